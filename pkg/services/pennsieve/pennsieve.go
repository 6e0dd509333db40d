// Package pennsieve integrates the Pennsieve data platform.
//
// The service reads API credentials from a Pennsieve agent profile file
// (~/.pennsieve/config.ini by default), exchanges them for a session token
// and authenticates later calls with it.
package pennsieve

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gopkg.in/ini.v1"

	"github.com/nih-sparc/sparc-client-go/pkg/clients"
	"github.com/nih-sparc/sparc-client-go/pkg/config"
	"github.com/nih-sparc/sparc-client-go/pkg/errors"
	"github.com/nih-sparc/sparc-client-go/pkg/logger"
	"github.com/nih-sparc/sparc-client-go/pkg/registry"
	"github.com/nih-sparc/sparc-client-go/pkg/service"
)

const (
	// Path is the registry path of the unit
	Path = "services/pennsieve"

	// ConfigPathKey optionally overrides the profile file location
	ConfigPathKey = "pennsieve_config_path"
	// DefaultHost is used when the profile has no api_host
	DefaultHost = "https://api.pennsieve.io"

	sessionLifetime = 55 * time.Minute
)

func init() {
	registry.MustRegister(Path, New)
	if err := registry.RegisterServiceInfo(&registry.ServiceInfo{
		Path:        Path,
		Description: "Pennsieve data management platform",
		Version:     "1.0.0",
		ConfigKeys:  []string{config.PennsieveProfileKey, ConfigPathKey},
	}); err != nil {
		panic(err)
	}
}

// Credentials is one profile of the Pennsieve profile file
type Credentials struct {
	Token  string
	Secret string
	Host   string
}

// Dataset is a dataset summary returned by ListDatasets
type Dataset struct {
	ID          string `json:"id"`
	IntID       int64  `json:"intId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	State       string `json:"state"`
}

type datasetEnvelope struct {
	Content Dataset `json:"content"`
}

// Service is the Pennsieve integration
type Service struct {
	profile    string
	configPath string
	connect    bool
	logger     *zap.Logger

	mu  sync.Mutex
	api *clients.HTTPClient
}

// New creates the service from the active profile section
func New(connect bool, section config.Section) (service.Service, error) {
	return &Service{
		profile:    section.GetOr(config.PennsieveProfileKey, config.DefaultPennsieveProfile),
		configPath: section.Get(ConfigPathKey),
		connect:    connect,
		logger:     logger.With(zap.String("component", "pennsieve")),
	}, nil
}

// Name returns "pennsieve"
func (s *Service) Name() string {
	return "pennsieve"
}

// Profile returns the Pennsieve profile the service authenticates with
func (s *Service) Profile() string {
	return s.profile
}

// Connected reports whether a session has been established
func (s *Service) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.api != nil
}

// Connect establishes a session. A missing profile file leaves the service
// unconnected with a warning; bad credentials are an error.
func (s *Service) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api != nil {
		return nil
	}

	path, err := s.profilePath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		s.logger.Warn("pennsieve profile file not found, service stays disconnected",
			zap.String("path", path))
		return nil
	}

	creds, err := ReadCredentials(path, s.profile)
	if err != nil {
		return err
	}

	api, err := dial(ctx, creds, s.logger)
	if err != nil {
		return err
	}
	s.api = api
	s.logger.Info("connected", zap.String("profile", s.profile), zap.String("host", creds.Host))
	return nil
}

func (s *Service) profilePath() (string, error) {
	if s.configPath != "" {
		return expandHome(s.configPath)
	}
	return expandHome(filepath.Join("~", ".pennsieve", "config.ini"))
}

func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "cannot resolve home directory")
	}
	return filepath.Join(home, rest), nil
}

// ReadCredentials reads profile from a Pennsieve profile file
func ReadCredentials(path, profile string) (*Credentials, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read pennsieve profile file").
			WithDetail("path", path)
	}
	if !f.HasSection(profile) {
		return nil, errors.Newf(errors.ErrorTypeLookup, "pennsieve profile %q not found in %s", profile, path)
	}

	sec := f.Section(profile)
	creds := &Credentials{
		Token:  sec.Key("api_token").String(),
		Secret: sec.Key("api_secret").String(),
		Host:   sec.Key("api_host").MustString(DefaultHost),
	}
	if creds.Token == "" || creds.Secret == "" {
		return nil, errors.Newf(errors.ErrorTypeAuthentication, "pennsieve profile %q lacks api_token or api_secret", profile)
	}
	return creds, nil
}

// ListDatasets returns the datasets visible to the session
func (s *Service) ListDatasets(ctx context.Context) ([]Dataset, error) {
	api, err := s.client()
	if err != nil {
		return nil, err
	}

	var envelopes []datasetEnvelope
	if err := api.GetJSON(ctx, "/datasets", nil, &envelopes); err != nil {
		return nil, err
	}

	datasets := make([]Dataset, 0, len(envelopes))
	for _, e := range envelopes {
		datasets = append(datasets, e.Content)
	}
	return datasets, nil
}

func (s *Service) client() (*clients.HTTPClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.api == nil {
		return nil, errors.New(errors.ErrorTypeAuthentication, "pennsieve service is not connected")
	}
	return s.api, nil
}

// dial exchanges creds for a session and returns a client that sends it as
// a bearer token, renewing it once it expires
func dial(ctx context.Context, creds *Credentials, log *zap.Logger) (*clients.HTTPClient, error) {
	auth, err := clients.NewHTTPClient("pennsieve", creds.Host, nil, log)
	if err != nil {
		return nil, err
	}
	api, err := clients.NewHTTPClient("pennsieve", creds.Host, nil, log)
	if err != nil {
		return nil, err
	}

	source := &sessionSource{ctx: context.WithoutCancel(ctx), auth: auth, creds: creds}
	tok, err := source.Token()
	if err != nil {
		return nil, err
	}

	api.UseTokenSource(oauth2.ReuseTokenSource(tok, source))
	return api, nil
}

type sessionRequest struct {
	TokenID string `json:"tokenId"`
	Secret  string `json:"secret"`
}

type sessionResponse struct {
	SessionToken string `json:"session_token"`
	Organization string `json:"organization"`
	ExpiresIn    int    `json:"expires_in"`
}

// sessionSource is an oauth2.TokenSource backed by the session endpoint
type sessionSource struct {
	ctx   context.Context
	auth  *clients.HTTPClient
	creds *Credentials
}

func (s *sessionSource) Token() (*oauth2.Token, error) {
	var resp sessionResponse
	err := s.auth.PostJSON(s.ctx, "/account/api/session",
		sessionRequest{TokenID: s.creds.Token, Secret: s.creds.Secret}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.SessionToken == "" {
		return nil, errors.New(errors.ErrorTypeAuthentication, "pennsieve returned an empty session token")
	}

	lifetime := sessionLifetime
	if resp.ExpiresIn > 0 {
		lifetime = time.Duration(resp.ExpiresIn) * time.Second
	}
	return &oauth2.Token{
		AccessToken: resp.SessionToken,
		TokenType:   "Bearer",
		Expiry:      time.Now().Add(lifetime),
	}, nil
}
