package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nih-sparc/sparc-client-go/pkg/errors"
)

const (
	// DefaultEnvPrefix prefixes every recognized environment variable
	DefaultEnvPrefix = "SPARC_"
	// DefaultDotenvFile is loaded when EnvOptions.DotenvPath is empty
	DefaultDotenvFile = ".env"
)

// EnvOptions controls FromEnv
type EnvOptions struct {
	// DotenvPath is the dotenv file to load first; empty means ".env"
	DotenvPath string
	// SkipDotenv disables dotenv loading entirely
	SkipDotenv bool
	// Prefix overrides DefaultEnvPrefix
	Prefix string
}

// envVars lists the recognized variables. Only the tags are used: presence
// is checked with os.LookupEnv so that a variable set to "" still counts.
type envVars struct {
	PennsieveProfile string `env:"PENNSIEVE_PROFILE"`
	SciCrunchAPIKey  string `env:"SCICRUNCH_API_KEY"`
	O2SparcHost      string `env:"O2SPARC_HOST"`
	O2SparcUsername  string `env:"O2SPARC_USERNAME"`
	O2SparcPassword  string `env:"O2SPARC_PASSWORD"`
}

// envKeys maps an unprefixed variable name to its configuration key
var envKeys = map[string]string{
	"PENNSIEVE_PROFILE": PennsieveProfileKey,
	"SCICRUNCH_API_KEY": "scicrunch_api_key",
	"O2SPARC_HOST":      "o2sparc_host",
	"O2SPARC_USERNAME":  "o2sparc_username",
	"O2SPARC_PASSWORD":  "o2sparc_password",
}

// collectEnv returns the configuration keys of every recognized variable
// present in the environment
func collectEnv(prefix string) (map[string]any, error) {
	params, err := env.GetFieldParamsWithOptions(&envVars{}, env.Options{Prefix: prefix})
	if err != nil {
		return nil, err
	}

	out := make(map[string]any)
	for _, p := range params {
		if v, ok := os.LookupEnv(p.Key); ok {
			out[envKeys[p.OwnKey]] = v
		}
	}
	return out, nil
}

// FromEnv resolves the process environment into a flat default profile.
// The dotenv file, when present, only fills variables that are not already
// set in the environment.
func (r *Resolver) FromEnv(opts EnvOptions) (*Config, error) {
	if !opts.SkipDotenv {
		if err := r.loadDotenv(opts.DotenvPath); err != nil {
			return nil, err
		}
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	settings, err := collectEnv(prefix)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read environment")
	}

	r.logger.Debug("configuration collected from environment",
		zap.String("prefix", prefix),
		zap.Int("variables", len(settings)))
	return r.FromMap(settings)
}

func (r *Resolver) loadDotenv(path string) error {
	if path == "" {
		path = DefaultDotenvFile
	}

	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("dotenv file not found, skipping", zap.String("file", path))
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to load dotenv file").
			WithDetail("file", path)
	}
	r.logger.Debug("dotenv file loaded", zap.String("file", path))
	return nil
}
