package config

import (
	"maps"
	"sort"
)

const (
	// GlobalSection holds client-wide settings
	GlobalSection = "global"
	// DefaultProfileKey names the active profile inside GlobalSection
	DefaultProfileKey = "default_profile"
	// DefaultProfile is the profile used when none is configured
	DefaultProfile = "default"
	// PennsieveProfileKey is the only key seeded into a synthesized profile
	PennsieveProfileKey = "pennsieve_profile_name"
	// DefaultPennsieveProfile is the seed value for PennsieveProfileKey
	DefaultPennsieveProfile = "pennsieve"
)

// Section is one named block of key/value settings
type Section map[string]string

// Get returns the value stored under key, or "" when absent
func (s Section) Get(key string) string {
	return s[key]
}

// GetOr returns the value stored under key, or fallback when absent or empty
func (s Section) GetOr(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Clone returns a copy of the section
func (s Section) Clone() Section {
	if s == nil {
		return Section{}
	}
	return maps.Clone(s)
}

// seedProfile returns the settings of a freshly synthesized profile
func seedProfile() Section {
	return Section{PennsieveProfileKey: DefaultPennsieveProfile}
}

// Config is the resolved two-level client configuration. It is built once
// per client and only read afterwards; accessors hand out copies.
type Config struct {
	order    []string
	sections map[string]Section
}

func newConfig() *Config {
	return &Config{sections: make(map[string]Section)}
}

// Defaults returns the seed configuration used when no source provides one
func Defaults() *Config {
	c := newConfig()
	c.set(GlobalSection, Section{DefaultProfileKey: DefaultProfile})
	c.set(DefaultProfile, seedProfile())
	return c
}

// set replaces a section, keeping its original position
func (c *Config) set(name string, s Section) {
	if _, ok := c.sections[name]; !ok {
		c.order = append(c.order, name)
	}
	c.sections[name] = s
}

// merge overlays s onto an existing section, creating it if needed
func (c *Config) merge(name string, s Section) {
	existing, ok := c.sections[name]
	if !ok {
		c.set(name, s.Clone())
		return
	}
	maps.Copy(existing, s)
}

// DefaultProfile returns the name of the active profile
func (c *Config) DefaultProfile() string {
	return c.sections[GlobalSection].GetOr(DefaultProfileKey, DefaultProfile)
}

// Profile returns a copy of the active profile section
func (c *Config) Profile() Section {
	return c.sections[c.DefaultProfile()].Clone()
}

// Section returns a copy of the named section
func (c *Config) Section(name string) (Section, bool) {
	s, ok := c.sections[name]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// Get returns a single value
func (c *Config) Get(section, key string) (string, bool) {
	s, ok := c.sections[section]
	if !ok {
		return "", false
	}
	v, ok := s[key]
	return v, ok
}

// Sections returns section names in the order they were defined
func (c *Config) Sections() []string {
	return append([]string(nil), c.order...)
}

// Raw returns the configuration as a nested mapping that Normalize accepts
func (c *Config) Raw() map[string]any {
	raw := make(map[string]any, len(c.sections))
	for name, s := range c.sections {
		raw[name] = map[string]string(s.Clone())
	}
	return raw
}

// Keys returns the sorted keys of the named section
func (c *Config) Keys(section string) []string {
	s := c.sections[section]
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
