package client

import (
	"go.uber.org/zap"

	"github.com/nih-sparc/sparc-client-go/pkg/config"
	"github.com/nih-sparc/sparc-client-go/pkg/registry"
)

// Option configures a Client
type Option func(*options)

type options struct {
	connect    bool
	configFile string
	registry   *registry.Registry
	logger     *zap.Logger
}

func defaultOptions() options {
	return options{
		connect:    true,
		configFile: config.DefaultFile,
	}
}

// WithConnect sets whether services are connected right after construction
func WithConnect(connect bool) Option {
	return func(o *options) { o.connect = connect }
}

// WithConfigFile sets the file New reads
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithRegistry replaces the global service registry
func WithRegistry(r *registry.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLogger sets the client logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}
