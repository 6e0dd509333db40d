// Package client is the entry point of the SPARC client. It resolves a
// configuration, discovers the registered services and loads each one with
// the active profile.
//
//	c, err := client.FromMap(ctx, map[string]any{
//		"pennsieve_profile_name": "prod",
//		"scicrunch_api_key":      "key",
//	}, client.WithConnect(false))
//	if err != nil {
//		return err
//	}
//	sc, err := client.Get[*scicrunch.Service](c, "scicrunch")
//
// A Client is not safe for concurrent mutation; AddModule and Connect must
// be serialized by the caller.
package client

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nih-sparc/sparc-client-go/pkg/config"
	"github.com/nih-sparc/sparc-client-go/pkg/errors"
	"github.com/nih-sparc/sparc-client-go/pkg/logger"
	"github.com/nih-sparc/sparc-client-go/pkg/observability"
	"github.com/nih-sparc/sparc-client-go/pkg/registry"
	"github.com/nih-sparc/sparc-client-go/pkg/service"

	// Register the bundled services with the global registry
	_ "github.com/nih-sparc/sparc-client-go/pkg/services/all"
)

// Client holds the resolved configuration and the loaded services
type Client struct {
	config   *config.Config
	registry *registry.Registry
	logger   *zap.Logger

	modules []registry.Module
	byName  map[string]service.Service
}

// New reads the configuration file (config.ini unless WithConfigFile says
// otherwise) and loads every discovered service. A missing or unreadable
// file falls back to the default configuration.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	o := resolveOptions(opts)
	cfg, err := config.NewResolver(o.logger).FromFile(o.configFile)
	if err != nil {
		return nil, err
	}
	return build(ctx, cfg, o)
}

// FromFile is New with an explicit configuration file
func FromFile(ctx context.Context, path string, opts ...Option) (*Client, error) {
	return New(ctx, append(opts, WithConfigFile(path))...)
}

// FromMap builds a client from a flat or nested configuration mapping
func FromMap(ctx context.Context, raw map[string]any, opts ...Option) (*Client, error) {
	o := resolveOptions(opts)
	cfg, err := config.NewResolver(o.logger).FromMap(raw)
	if err != nil {
		return nil, err
	}
	return build(ctx, cfg, o)
}

// FromEnv builds a client from SPARC_* environment variables, optionally
// loading a dotenv file first
func FromEnv(ctx context.Context, envOpts config.EnvOptions, opts ...Option) (*Client, error) {
	o := resolveOptions(opts)
	cfg, err := config.NewResolver(o.logger).FromEnv(envOpts)
	if err != nil {
		return nil, err
	}
	return build(ctx, cfg, o)
}

func resolveOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.registry == nil {
		o.registry = registry.Default()
	}
	return o
}

func build(ctx context.Context, cfg *config.Config, o options) (*Client, error) {
	c := &Client{
		config:   cfg,
		registry: o.registry,
		logger:   o.logger.With(zap.String("component", "sparc_client")),
		byName:   make(map[string]service.Service),
	}

	profile := cfg.DefaultProfile()
	c.logger.Debug("loading services",
		zap.String("profile", profile),
		zap.Strings("sections", cfg.Sections()),
		zap.Bool("connect", o.connect))

	modules, err := c.registry.Discover(ctx, cfg.Profile(), o.connect)
	if err != nil {
		return nil, err
	}
	c.add(modules)

	c.logger.Info("sparc client ready",
		zap.String("profile", profile),
		zap.Strings("modules", c.ModuleNames()))
	return c, nil
}

func (c *Client) add(modules []registry.Module) {
	for _, m := range modules {
		c.modules = append(c.modules, m)
		c.byName[m.Name] = m.Service
	}
}

// AddModule loads the units at paths and appends their services. A nil
// section loads them with the active profile. Paths loaded before a failing
// one stay added.
func (c *Client) AddModule(ctx context.Context, section config.Section, connect bool, paths ...string) error {
	if section == nil {
		section = c.config.Profile()
	}

	for _, path := range paths {
		modules, err := c.registry.Load(ctx, path, section, connect)
		if err != nil {
			c.logger.Debug("failed to add module", zap.String("path", path), zap.Error(err))
			return err
		}
		c.add(modules)
	}
	return nil
}

// Connect connects every loaded service that has a connect step, in
// discovery order, and returns the first failure. It may be called again;
// whether a service tolerates reconnecting is up to the service.
func (c *Client) Connect(ctx context.Context) (err error) {
	ctx, span := observability.StartSpan(ctx, "client.connect",
		attribute.Int("modules", len(c.modules)))
	defer func() { span.End(err) }()

	for _, m := range c.modules {
		if err := registry.Connect(ctx, m.Name, m.Service); err != nil {
			return err
		}
	}
	return nil
}

// Config returns the resolved configuration. Treat it as read-only.
func (c *Client) Config() *config.Config {
	return c.config
}

// ModuleNames returns the names of the loaded services in load order. A
// name repeats when one unit provides several services.
func (c *Client) ModuleNames() []string {
	names := make([]string, 0, len(c.modules))
	for _, m := range c.modules {
		names = append(names, m.Name)
	}
	return names
}

// Modules returns the loaded modules in load order
func (c *Client) Modules() []registry.Module {
	return append([]registry.Module(nil), c.modules...)
}

// Module returns the service loaded under name. With repeated names the
// last one loaded wins.
func (c *Client) Module(name string) (service.Service, bool) {
	svc, ok := c.byName[name]
	return svc, ok
}

// Get returns the service loaded under name as a T
func Get[T service.Service](c *Client, name string) (T, error) {
	var zero T

	svc, ok := c.Module(name)
	if !ok {
		return zero, errors.Newf(errors.ErrorTypeNotFound, "module %s is not loaded", name)
	}
	typed, ok := svc.(T)
	if !ok {
		return zero, errors.Newf(errors.ErrorTypeValidation, "module %s is a %T, not a %T", name, svc, zero).
			WithDetail("module", name)
	}
	return typed, nil
}

// String summarizes the client for logs
func (c *Client) String() string {
	return fmt.Sprintf("sparc client (profile %s, modules %v)", c.config.DefaultProfile(), c.ModuleNames())
}
