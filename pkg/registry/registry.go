// Package registry keeps the table of service units the client can load.
//
// Units register themselves from init, keyed by a slash-separated path:
//
//	func init() {
//		registry.MustRegister("services/pennsieve", New)
//	}
//
// Discovery enumerates every unit directly below the registry namespace;
// units outside it are only reachable by explicit path through Load.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/nih-sparc/sparc-client-go/pkg/config"
	"github.com/nih-sparc/sparc-client-go/pkg/errors"
	"github.com/nih-sparc/sparc-client-go/pkg/logger"
	"github.com/nih-sparc/sparc-client-go/pkg/metrics"
	"github.com/nih-sparc/sparc-client-go/pkg/observability"
	"github.com/nih-sparc/sparc-client-go/pkg/service"
)

// DefaultNamespace is the namespace enumerated by the global registry
const DefaultNamespace = "services"

// Factory creates a service instance from the connect flag and the active
// profile section
type Factory func(connect bool, section config.Section) (service.Service, error)

// Loader resolves the factories of a unit lazily. An error means the unit
// cannot be loaded.
type Loader func() ([]Factory, error)

// Module is one loaded service instance
type Module struct {
	// Name is the last segment of Path
	Name string
	// Path is the unit path the service was loaded from
	Path    string
	Service service.Service
}

type unit struct {
	path      string
	factories []Factory
	loaders   []Loader
}

func (u *unit) load() ([]Factory, error) {
	factories := append([]Factory(nil), u.factories...)
	for _, l := range u.loaders {
		fs, err := l()
		if err != nil {
			return nil, err
		}
		factories = append(factories, fs...)
	}
	return factories, nil
}

// Registry manages service unit registration and instantiation
type Registry struct {
	namespace string
	units     map[string]*unit
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry(DefaultNamespace)

// NewRegistry creates a registry that discovers units under namespace
func NewRegistry(namespace string) *Registry {
	return &Registry{
		namespace: strings.Trim(namespace, "/"),
		units:     make(map[string]*unit),
	}
}

// log returns the registry logger, falling back to the global one so that
// registries created during init follow later logger.Init calls
func (r *Registry) log() *zap.Logger {
	r.mu.RLock()
	l := r.logger
	r.mu.RUnlock()
	if l != nil {
		return l
	}
	return logger.Get().With(zap.String("component", "service_registry"))
}

// WithLogger replaces the registry logger
func (r *Registry) WithLogger(l *zap.Logger) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = l.With(zap.String("component", "service_registry"))
	return r
}

// Namespace returns the namespace enumerated by Discover
func (r *Registry) Namespace() string {
	return r.namespace
}

// Register adds factories to the unit at path. Registering the same path
// again appends, so one unit can provide several services.
func (r *Registry) Register(path string, factories ...Factory) error {
	if path == "" {
		return errors.New(errors.ErrorTypeValidation, "unit path is required")
	}
	for i, f := range factories {
		if f == nil {
			return errors.Newf(errors.ErrorTypeValidation, "factory %d of unit %s is nil", i, path)
		}
	}

	r.mu.Lock()
	u := r.unitLocked(path)
	u.factories = append(u.factories, factories...)
	r.mu.Unlock()

	r.log().Debug("service unit registered", zap.String("path", path), zap.Int("factories", len(factories)))
	return nil
}

// RegisterLoader adds a lazy loader to the unit at path
func (r *Registry) RegisterLoader(path string, loader Loader) error {
	if path == "" {
		return errors.New(errors.ErrorTypeValidation, "unit path is required")
	}
	if loader == nil {
		return errors.Newf(errors.ErrorTypeValidation, "loader of unit %s is nil", path)
	}

	r.mu.Lock()
	u := r.unitLocked(path)
	u.loaders = append(u.loaders, loader)
	r.mu.Unlock()

	r.log().Debug("service unit loader registered", zap.String("path", path))
	return nil
}

func (r *Registry) unitLocked(path string) *unit {
	u, ok := r.units[path]
	if !ok {
		u = &unit{path: path}
		r.units[path] = u
	}
	return u
}

// Units returns the sorted paths of units directly under the namespace
func (r *Registry) Units() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefix := r.namespace + "/"
	paths := make([]string, 0, len(r.units))
	for path := range r.units {
		rest, ok := strings.CutPrefix(path, prefix)
		if !ok || rest == "" || strings.Contains(rest, "/") {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Has reports whether a unit is registered at path
func (r *Registry) Has(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.units[path]
	return ok
}

// Load instantiates every service of the unit at path. An unknown path is an
// ErrorTypeNotFound error and a failing loader an ErrorTypeImport error.
func (r *Registry) Load(ctx context.Context, path string, section config.Section, connect bool) ([]Module, error) {
	r.mu.RLock()
	u, ok := r.units[path]
	r.mu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "module %s not found", path).
			WithDetail("path", path)
	}

	factories, err := u.load()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeImport, fmt.Sprintf("failed to load module %s", path)).
			WithDetail("path", path)
	}

	return r.instantiate(ctx, path, factories, section, connect)
}

// Discover loads every unit under the namespace in path order. Units that
// fail to load are logged and skipped; construction and connect failures
// are returned.
func (r *Registry) Discover(ctx context.Context, section config.Section, connect bool) (modules []Module, err error) {
	ctx, span := observability.StartSpan(ctx, "registry.discover",
		attribute.String("namespace", r.namespace))
	defer func() {
		span.SetAttributes(attribute.Int("modules", len(modules)))
		span.End(err)
	}()

	for _, path := range r.Units() {
		r.mu.RLock()
		u := r.units[path]
		r.mu.RUnlock()

		factories, loadErr := u.load()
		if loadErr != nil {
			r.log().Warn("skipping module, failed to load", zap.String("path", path), zap.Error(loadErr))
			metrics.UnitsSkipped.WithLabelValues(path).Inc()
			continue
		}

		loaded, err := r.instantiate(ctx, path, factories, section, connect)
		if err != nil {
			return nil, err
		}
		modules = append(modules, loaded...)
	}
	return modules, nil
}

func (r *Registry) instantiate(ctx context.Context, path string, factories []Factory, section config.Section, connect bool) ([]Module, error) {
	name := ModuleName(path)
	modules := make([]Module, 0, len(factories))

	for _, factory := range factories {
		svc, err := factory(connect, section.Clone())
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeInternal, fmt.Sprintf("failed to create service %s", name)).
				WithDetail("path", path)
		}
		if svc == nil {
			return nil, errors.Newf(errors.ErrorTypeInternal, "factory of %s returned no service", path)
		}

		metrics.ModulesLoaded.WithLabelValues(name).Inc()
		r.log().Debug("service created", zap.String("module", name), zap.String("service", svc.Name()))

		if connect {
			if err := Connect(ctx, name, svc); err != nil {
				return nil, err
			}
		}
		modules = append(modules, Module{Name: name, Path: path, Service: svc})
	}
	return modules, nil
}

// Connect calls Connect on svc if it implements service.Connector, recording
// a span and metrics for the call
func Connect(ctx context.Context, module string, svc service.Service) (err error) {
	if _, ok := svc.(service.Connector); !ok {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "service.connect", attribute.String("module", module))
	timer := metrics.NewTimer()
	defer func() {
		metrics.ObserveConnect(module, timer.Stop(), err)
		span.End(err)
	}()

	if _, err = service.Connect(ctx, svc); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("failed to connect %s", module)).
			WithDetail("module", module)
	}
	return nil
}

// ModuleName returns the short name of a unit path: the part after the last
// "/" or "."
func ModuleName(path string) string {
	if i := strings.LastIndexAny(path, "/."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Clear removes all registered units (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.units = make(map[string]*unit)
}

// Global registry functions

// Register registers factories in the global registry
func Register(path string, factories ...Factory) error {
	return globalRegistry.Register(path, factories...)
}

// MustRegister is Register for use from init; it panics on error
func MustRegister(path string, factories ...Factory) {
	if err := Register(path, factories...); err != nil {
		panic(err)
	}
}

// RegisterLoader registers a lazy loader in the global registry
func RegisterLoader(path string, loader Loader) error {
	return globalRegistry.RegisterLoader(path, loader)
}

// Units returns the discoverable units of the global registry
func Units() []string {
	return globalRegistry.Units()
}

// Load loads a unit from the global registry
func Load(ctx context.Context, path string, section config.Section, connect bool) ([]Module, error) {
	return globalRegistry.Load(ctx, path, section, connect)
}

// Discover runs discovery on the global registry
func Discover(ctx context.Context, section config.Section, connect bool) ([]Module, error) {
	return globalRegistry.Discover(ctx, section, connect)
}

// Default returns the global registry instance
func Default() *Registry {
	return globalRegistry
}
