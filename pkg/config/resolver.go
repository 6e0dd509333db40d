package config

import (
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/nih-sparc/sparc-client-go/pkg/errors"
	"github.com/nih-sparc/sparc-client-go/pkg/logger"
)

// DefaultFile is the configuration file read by default construction
const DefaultFile = "config.ini"

// Resolver builds a Config from one of the supported input channels
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver. A nil logger uses the global one.
func NewResolver(l *zap.Logger) *Resolver {
	if l == nil {
		l = logger.Get()
	}
	return &Resolver{logger: l.With(zap.String("component", "config_resolver"))}
}

// FromMap resolves a flat or nested mapping
func (r *Resolver) FromMap(raw map[string]any) (*Config, error) {
	cfg, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("configuration resolved from mapping",
		zap.Strings("sections", cfg.Sections()),
		zap.String("profile", cfg.DefaultProfile()))
	return cfg, nil
}

// FromFile resolves a configuration file. INI is assumed unless the
// extension says YAML or JSON. Problems reading or parsing the file are
// logged and answered with Defaults; a profile that the file selects but
// does not define is returned as an ErrorTypeLookup error.
func (r *Resolver) FromFile(path string) (*Config, error) {
	log := r.logger.With(zap.String("file", path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return r.fromDocument(path, yaml.Unmarshal, log)
	case ".json":
		return r.fromDocument(path, gojson.Unmarshal, log)
	}

	sections, err := readINI(path)
	if err != nil {
		log.Warn("configuration file not provided or incorrect, using default settings", zap.Error(err))
		return Defaults(), nil
	}

	cfg := Defaults()
	for _, name := range sections.order {
		cfg.merge(name, sections.values[name])
	}
	if len(sections.defaults) > 0 {
		for _, name := range cfg.order {
			s := cfg.sections[name]
			for k, v := range sections.defaults {
				if _, ok := s[k]; !ok {
					s[k] = v
				}
			}
		}
	}

	profile := cfg.DefaultProfile()
	if _, ok := cfg.sections[profile]; !ok {
		return nil, errors.Newf(errors.ErrorTypeLookup, "default profile %q is not defined", profile).
			WithDetail("file", path).
			WithDetail("profile", profile)
	}

	log.Debug("configuration resolved from file",
		zap.Strings("sections", cfg.Sections()),
		zap.String("profile", profile))
	return cfg, nil
}

func (r *Resolver) fromDocument(path string, unmarshal func([]byte, interface{}) error, log *zap.Logger) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		log.Warn("configuration file not provided or incorrect, using default settings", zap.Error(err))
		return Defaults(), nil
	}

	var raw map[string]any
	if err := unmarshal(data, &raw); err != nil {
		log.Warn("configuration file not provided or incorrect, using default settings", zap.Error(err))
		return Defaults(), nil
	}
	return r.FromMap(raw)
}

type iniSections struct {
	order    []string
	values   map[string]Section
	defaults Section
}

func readINI(path string) (*iniSections, error) {
	if path == "" {
		return nil, errors.New(errors.ErrorTypeConfig, "no configuration file given")
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is chosen by the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read configuration file")
	}
	if !startsWithSection(data) {
		return nil, errors.New(errors.ErrorTypeConfig, "configuration file has options before the first section header")
	}

	// values are kept verbatim: no inline comments, quotes preserved
	f, err := ini.LoadSources(ini.LoadOptions{
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
		AllowPythonMultilineValues: true,
	}, data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse configuration file")
	}

	out := &iniSections{values: make(map[string]Section)}
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			out.defaults = Section(sec.KeysHash())
			continue
		}
		out.order = append(out.order, sec.Name())
		out.values[sec.Name()] = Section(sec.KeysHash())
	}
	return out, nil
}

// startsWithSection reports whether the first line that is not blank or a
// comment is a section header
func startsWithSection(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		return strings.HasPrefix(line, "[")
	}
	return true
}

func resolver() *Resolver {
	return NewResolver(nil)
}

// FromMap resolves a mapping with the default resolver
func FromMap(raw map[string]any) (*Config, error) {
	return resolver().FromMap(raw)
}

// FromFile resolves a configuration file with the default resolver
func FromFile(path string) (*Config, error) {
	return resolver().FromFile(path)
}

// FromEnv resolves the environment with the default resolver
func FromEnv(opts EnvOptions) (*Config, error) {
	return resolver().FromEnv(opts)
}
