// Package scicrunch integrates the SciCrunch knowledge base search API
package scicrunch

import (
	"context"
	"net/http"
	"net/url"

	gojson "github.com/goccy/go-json"
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
	Path = "services/scicrunch"

	APIKeyKey   = "scicrunch_api_key"
	HostKey     = "scicrunch_host"
	DefaultHost = "https://scicrunch.org/api/1"
)

func init() {
	registry.MustRegister(Path, New)
	if err := registry.RegisterServiceInfo(&registry.ServiceInfo{
		Path:        Path,
		Description: "SciCrunch resource and knowledge base search",
		Version:     "1.0.0",
		ConfigKeys:  []string{APIKeyKey, HostKey},
	}); err != nil {
		panic(err)
	}
}

// SearchResult is the part of an Elasticsearch response the client exposes
type SearchResult struct {
	Total int   `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Hit is one matching document
type Hit struct {
	Index  string            `json:"_index"`
	ID     string            `json:"_id"`
	Score  float64           `json:"_score"`
	Source gojson.RawMessage `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Total gojson.RawMessage `json:"total"`
		Hits  []Hit             `json:"hits"`
	} `json:"hits"`
}

// Service is the SciCrunch integration. It has no connect step; the API key
// is sent with every request.
type Service struct {
	apiKey string
	http   *clients.HTTPClient
}

// New creates the service from the active profile section
func New(_ bool, section config.Section) (service.Service, error) {
	log := logger.With(zap.String("component", "scicrunch"))
	httpClient, err := clients.NewHTTPClient("scicrunch", section.GetOr(HostKey, DefaultHost), nil, log)
	if err != nil {
		return nil, err
	}

	s := &Service{apiKey: section.Get(APIKeyKey), http: httpClient}
	if s.apiKey != "" {
		httpClient.Use(func(req *http.Request) {
			q := req.URL.Query()
			q.Set("api_key", s.apiKey)
			req.URL.RawQuery = q.Encode()
		})
	}
	return s, nil
}

// Name returns "scicrunch"
func (s *Service) Name() string {
	return "scicrunch"
}

// Host returns the API root the service talks to
func (s *Service) Host() string {
	return s.http.BaseURL()
}

// Search runs a query string search against index
func (s *Service) Search(ctx context.Context, index, query string) (*SearchResult, error) {
	if index == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "search index is required")
	}
	if s.apiKey == "" {
		return nil, errors.Newf(errors.ErrorTypeAuthentication, "%s is not configured", APIKeyKey)
	}

	var resp searchResponse
	err := s.http.GetJSON(ctx, "/elastic/"+url.PathEscape(index)+"/_search", url.Values{"q": {query}}, &resp)
	if err != nil {
		return nil, err
	}

	return &SearchResult{Total: totalHits(resp.Hits.Total), Hits: resp.Hits.Hits}, nil
}

// totalHits accepts both the legacy number and the {"value": n} object form
func totalHits(raw gojson.RawMessage) int {
	var n int
	if err := gojson.Unmarshal(raw, &n); err == nil {
		return n
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := gojson.Unmarshal(raw, &obj); err == nil {
		return obj.Value
	}
	return 0
}
