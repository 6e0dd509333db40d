// Package o2sparc integrates the o²S²PARC simulation platform public API
package o2sparc

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/nih-sparc/sparc-client-go/pkg/clients"
	"github.com/nih-sparc/sparc-client-go/pkg/config"
	"github.com/nih-sparc/sparc-client-go/pkg/errors"
	"github.com/nih-sparc/sparc-client-go/pkg/logger"
	"github.com/nih-sparc/sparc-client-go/pkg/registry"
	"github.com/nih-sparc/sparc-client-go/pkg/service"
)

const (
	// Path is the registry path of the unit
	Path = "services/o2sparc"

	HostKey     = "o2sparc_host"
	UsernameKey = "o2sparc_username"
	PasswordKey = "o2sparc_password"
	DefaultHost = "https://api.osparc.io"
)

func init() {
	registry.MustRegister(Path, New)
	if err := registry.RegisterServiceInfo(&registry.ServiceInfo{
		Path:        Path,
		Description: "o²S²PARC simulation platform",
		Version:     "1.0.0",
		ConfigKeys:  []string{HostKey, UsernameKey, PasswordKey},
	}); err != nil {
		panic(err)
	}
}

// Profile is the account behind the API key
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Login     string `json:"login"`
	Role      string `json:"role"`
}

// Solver is a computational service available to the account
type Solver struct {
	ID          string `json:"id"`
	Version     string `json:"version"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Service is the o²S²PARC integration
type Service struct {
	username string
	password string
	http     *clients.HTTPClient
	logger   *zap.Logger
	profile  *Profile
}

// New creates the service from the active profile section
func New(_ bool, section config.Section) (service.Service, error) {
	log := logger.With(zap.String("component", "o2sparc"))
	httpClient, err := clients.NewHTTPClient("o2sparc", section.GetOr(HostKey, DefaultHost), nil, log)
	if err != nil {
		return nil, err
	}

	s := &Service{
		username: section.Get(UsernameKey),
		password: section.Get(PasswordKey),
		http:     httpClient,
		logger:   log,
	}
	httpClient.Use(func(req *http.Request) {
		if s.username != "" {
			req.SetBasicAuth(s.username, s.password)
		}
	})
	return s, nil
}

// Name returns "o2sparc"
func (s *Service) Name() string {
	return "o2sparc"
}

// Host returns the API root the service talks to
func (s *Service) Host() string {
	return s.http.BaseURL()
}

// Connect verifies the credentials by fetching the account profile. Without
// credentials it only logs a warning.
func (s *Service) Connect(ctx context.Context) error {
	if s.username == "" {
		s.logger.Warn("o2sparc credentials not configured, service stays disconnected")
		return nil
	}
	if s.profile != nil {
		return nil
	}

	p, err := s.Profile(ctx)
	if err != nil {
		return err
	}
	s.profile = p
	s.logger.Info("connected", zap.String("login", p.Login), zap.String("host", s.Host()))
	return nil
}

// Profile returns the account profile
func (s *Service) Profile(ctx context.Context) (*Profile, error) {
	if err := s.requireCredentials(); err != nil {
		return nil, err
	}
	var p Profile
	if err := s.http.GetJSON(ctx, "/v0/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Solvers lists the solvers the account can run
func (s *Service) Solvers(ctx context.Context) ([]Solver, error) {
	if err := s.requireCredentials(); err != nil {
		return nil, err
	}
	var solvers []Solver
	if err := s.http.GetJSON(ctx, "/v0/solvers", nil, &solvers); err != nil {
		return nil, err
	}
	return solvers, nil
}

func (s *Service) requireCredentials() error {
	if s.username == "" {
		return errors.Newf(errors.ErrorTypeAuthentication, "%s and %s are not configured", UsernameKey, PasswordKey)
	}
	return nil
}
