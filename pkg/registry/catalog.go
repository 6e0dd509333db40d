package registry

import (
	"sort"
	"sync"

	"github.com/nih-sparc/sparc-client-go/pkg/errors"
)

// ServiceInfo describes a service unit for listings and help output
type ServiceInfo struct {
	Name        string   `json:"name" yaml:"name"`
	Path        string   `json:"path" yaml:"path"`
	Description string   `json:"description" yaml:"description"`
	Version     string   `json:"version" yaml:"version"`
	ConfigKeys  []string `json:"config_keys" yaml:"config_keys"`
}

// Catalog manages service metadata
type Catalog struct {
	services map[string]*ServiceInfo
	mu       sync.RWMutex
}

// NewCatalog creates a new service catalog
func NewCatalog() *Catalog {
	return &Catalog{
		services: make(map[string]*ServiceInfo),
	}
}

// Register adds a service to the catalog, keyed by its path
func (c *Catalog) Register(info *ServiceInfo) error {
	if info == nil || info.Path == "" {
		return errors.New(errors.ErrorTypeValidation, "service info requires a path")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.services[info.Path]; exists {
		return errors.Newf(errors.ErrorTypeValidation, "service %s already in catalog", info.Path)
	}
	if info.Name == "" {
		info.Name = ModuleName(info.Path)
	}

	c.services[info.Path] = info
	return nil
}

// Get retrieves service information
func (c *Catalog) Get(path string) (*ServiceInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, exists := c.services[path]
	if !exists {
		return nil, errors.Newf(errors.ErrorTypeNotFound, "service %s not found in catalog", path)
	}

	return info, nil
}

// List returns all services in the catalog ordered by path
func (c *Catalog) List() []*ServiceInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]*ServiceInfo, 0, len(c.services))
	for _, info := range c.services {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos
}

// Global catalog instance
var globalCatalog = NewCatalog()

// RegisterServiceInfo registers service information in the global catalog
func RegisterServiceInfo(info *ServiceInfo) error {
	return globalCatalog.Register(info)
}

// GetServiceInfo retrieves service information from the global catalog
func GetServiceInfo(path string) (*ServiceInfo, error) {
	return globalCatalog.Get(path)
}

// ListServiceInfo lists all services in the global catalog
func ListServiceInfo() []*ServiceInfo {
	return globalCatalog.List()
}
