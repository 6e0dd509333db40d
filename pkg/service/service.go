// Package service defines the contract between the SPARC client and the
// service plugins it discovers.
package service

import (
	"context"
)

// Service is implemented by every plugin the client loads. The client treats
// services opaquely; callers type-assert to the concrete plugin type or use
// client.Get.
type Service interface {
	// Name returns the short name of the integration (e.g. "pennsieve")
	Name() string
}

// Connector is implemented by services that need an explicit connection
// step. Services without it are ready as soon as they are constructed.
type Connector interface {
	Connect(ctx context.Context) error
}

// Connect calls Connect on s when it implements Connector. The boolean
// reports whether a connect call was made.
func Connect(ctx context.Context, s Service) (bool, error) {
	c, ok := s.(Connector)
	if !ok {
		return false, nil
	}
	return true, c.Connect(ctx)
}
