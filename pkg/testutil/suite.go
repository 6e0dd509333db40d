package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// ServiceSuite is a base suite for tests that talk to a fake HTTP API. Each
// test gets a fresh mux, server, context and observed logger.
type ServiceSuite struct {
	suite.Suite

	Mux    *http.ServeMux
	Server *httptest.Server
	Logs   *observer.ObservedLogs
	Logger *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// SetupTest starts the fake server
func (s *ServiceSuite) SetupTest() {
	s.ctx, s.cancel = context.WithTimeout(context.Background(), 30*time.Second)

	core, logs := observer.New(zap.DebugLevel)
	s.Logger = zap.New(core)
	s.Logs = logs

	s.Mux = http.NewServeMux()
	s.Server = httptest.NewServer(s.Mux)
}

// TearDownTest stops the fake server
func (s *ServiceSuite) TearDownTest() {
	s.Server.Close()
	s.cancel()
}

// Context returns the per-test context
func (s *ServiceSuite) Context() context.Context {
	return s.ctx
}

// URL returns the fake server URL joined with path
func (s *ServiceSuite) URL(path string) string {
	return s.Server.URL + path
}
