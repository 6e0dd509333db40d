package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nih-sparc/sparc-client-go/pkg/errors"
)

// Normalize turns a raw mapping into a Config.
//
// A mapping whose "global" entry is itself a mapping is nested: every
// top-level key becomes a section and is copied verbatim. A missing profile
// is synthesized with the seed settings; an existing one is left untouched.
//
// Any other mapping is flat: all of its keys are overlaid onto the seed
// settings of the "default" profile.
func Normalize(raw map[string]any) (*Config, error) {
	if _, nested := asSection(raw[GlobalSection]); nested {
		return normalizeNested(raw)
	}
	return normalizeFlat(raw), nil
}

func normalizeFlat(raw map[string]any) *Config {
	profile := seedProfile()
	for k, v := range raw {
		profile[optionKey(k)] = stringify(v)
	}

	c := newConfig()
	c.set(GlobalSection, Section{DefaultProfileKey: DefaultProfile})
	c.set(DefaultProfile, profile)
	return c
}

func normalizeNested(raw map[string]any) (*Config, error) {
	c := newConfig()

	for _, name := range sectionOrder(raw) {
		s, ok := asSection(raw[name])
		if !ok {
			return nil, errors.New(errors.ErrorTypeValidation,
				fmt.Sprintf("section %q must be a mapping, got %T", name, raw[name])).
				WithDetail("section", name)
		}
		c.set(name, s)
	}

	global := c.sections[GlobalSection]
	if global.Get(DefaultProfileKey) == "" {
		global[DefaultProfileKey] = DefaultProfile
	}

	profile := global[DefaultProfileKey]
	if _, ok := c.sections[profile]; !ok {
		c.set(profile, seedProfile())
	}
	return c, nil
}

// sectionOrder puts global first and the rest in lexical order
func sectionOrder(raw map[string]any) []string {
	names := make([]string, 0, len(raw))
	for name := range raw {
		if name != GlobalSection {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{GlobalSection}, names...)
}

// asSection converts any supported mapping type into a Section
func asSection(v any) (Section, bool) {
	switch m := v.(type) {
	case Section:
		return lowerKeys(m), true
	case map[string]string:
		return lowerKeys(m), true
	case map[string]any:
		s := make(Section, len(m))
		for k, val := range m {
			s[optionKey(k)] = stringify(val)
		}
		return s, true
	default:
		return nil, false
	}
}

func lowerKeys(m map[string]string) Section {
	s := make(Section, len(m))
	for k, v := range m {
		s[optionKey(k)] = v
	}
	return s
}

// optionKey folds option names the way INI parsers do
func optionKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
