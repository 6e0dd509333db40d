package clients

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"

	"github.com/nih-sparc/sparc-client-go/pkg/errors"
	"github.com/nih-sparc/sparc-client-go/pkg/metrics"
)

func newTestClient(t *testing.T, url string) *HTTPClient {
	t.Helper()
	cfg := DefaultHTTPConfig()
	cfg.EnableHTTP2 = false
	c, err := NewHTTPClient("test", url, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewHTTPClient_InvalidBaseURL(t *testing.T) {
	_, err := NewHTTPClient("test", "not a url", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/items", r.URL.Path)
		assert.Equal(t, "mouse", r.URL.Query().Get("q"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"total": 2, "items": ["a", "b"]}`)
	}))
	defer server.Close()

	before := promtest.ToFloat64(metrics.HTTPRequests.WithLabelValues("test", "200"))

	c := newTestClient(t, server.URL+"/api/")
	c.Use(func(req *http.Request) { req.Header.Set("X-Key", "secret") })

	var out struct {
		Total int      `json:"total"`
		Items []string `json:"items"`
	}
	err := c.GetJSON(context.Background(), "items", map[string][]string{"q": {"mouse"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, []string{"a", "b"}, out.Items)
	assert.Equal(t, before+1, promtest.ToFloat64(metrics.HTTPRequests.WithLabelValues("test", "200")))
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name": "x"}`, string(body))
		_, _ = io.WriteString(w, `{"ok": true}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	var out map[string]bool
	require.NoError(t, c.PostJSON(context.Background(), "/create", map[string]string{"name": "x"}, &out))
	assert.True(t, out["ok"])
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   errors.ErrorType
	}{
		{http.StatusUnauthorized, errors.ErrorTypeAuthentication},
		{http.StatusForbidden, errors.ErrorTypeAuthentication},
		{http.StatusNotFound, errors.ErrorTypeNotFound},
		{http.StatusBadGateway, errors.ErrorTypeConnection},
		{http.StatusBadRequest, errors.ErrorTypeConnection},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			err := newTestClient(t, server.URL).GetJSON(context.Background(), "/x", nil, nil)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.want))

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.status, e.Details["status"])
			assert.Equal(t, "nope", e.Details["body"])
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := newTestClient(t, url).GetJSON(context.Background(), "/x", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
}

func TestUseTokenSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{}`)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.UseTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"}))
	require.NoError(t, c.GetJSON(context.Background(), "/me", nil, nil))
}
