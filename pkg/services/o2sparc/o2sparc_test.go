package o2sparc

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/nih-sparc/sparc-client-go/pkg/config"
	"github.com/nih-sparc/sparc-client-go/pkg/errors"
	"github.com/nih-sparc/sparc-client-go/pkg/registry"
	"github.com/nih-sparc/sparc-client-go/pkg/testutil"
)

func TestRegistered(t *testing.T) {
	assert.True(t, registry.Default().Has(Path))
}

func TestDefaults(t *testing.T) {
	svc, err := New(true, config.Section{})
	require.NoError(t, err)
	assert.Equal(t, "o2sparc", svc.Name())
	assert.Equal(t, DefaultHost, svc.(*Service).Host())
}

type OsparcSuite struct {
	testutil.ServiceSuite
	calls int
}

func TestOsparcSuite(t *testing.T) {
	suite.Run(t, new(OsparcSuite))
}

func (s *OsparcSuite) SetupTest() {
	s.ServiceSuite.SetupTest()
	s.calls = 0

	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			s.calls++
			user, pass, ok := r.BasicAuth()
			if !ok || user != "key" || pass != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	s.Mux.HandleFunc("GET /v0/me", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"first_name": "Ada", "login": "ada@example.org", "role": "USER"}`)
	}))
	s.Mux.HandleFunc("GET /v0/solvers", authed(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `[{"id": "simcore/services/comp/isolve", "version": "2.1.1", "title": "iSolve"}]`)
	}))
	s.Mux.HandleFunc("GET /v0/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
}

func (s *OsparcSuite) newService(password string) *Service {
	section := config.Section{HostKey: s.Server.URL}
	if password != "" {
		section[UsernameKey] = "key"
		section[PasswordKey] = password
	}
	svc, err := New(true, section)
	s.Require().NoError(err)
	return svc.(*Service)
}

func (s *OsparcSuite) TestConnectAndSolvers() {
	svc := s.newService("secret")
	s.Require().NoError(svc.Connect(s.Context()))

	// the profile is fetched once
	s.Require().NoError(svc.Connect(s.Context()))
	s.Equal(1, s.calls)

	profile, err := svc.Profile(s.Context())
	s.Require().NoError(err)
	s.Equal("ada@example.org", profile.Login)

	solvers, err := svc.Solvers(s.Context())
	s.Require().NoError(err)
	s.Require().Len(solvers, 1)
	s.Equal("iSolve", solvers[0].Title)
}

func (s *OsparcSuite) TestConnectWrongPassword() {
	err := s.newService("nope").Connect(s.Context())
	s.Require().Error(err)
	s.True(errors.IsType(err, errors.ErrorTypeAuthentication))
}

func (s *OsparcSuite) TestConnectWithoutCredentials() {
	svc := s.newService("")
	s.Require().NoError(svc.Connect(s.Context()))
	s.Zero(s.calls)

	_, err := svc.Solvers(s.Context())
	s.True(errors.IsType(err, errors.ErrorTypeAuthentication))
}

func (s *OsparcSuite) TestServerError() {
	svc := s.newService("secret")
	var out map[string]any
	err := svc.http.GetJSON(s.Context(), "/v0/broken", nil, &out)
	s.True(errors.IsType(err, errors.ErrorTypeConnection))
}
