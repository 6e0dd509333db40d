// Package testutil provides testing utilities for the SPARC client
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// SPARCEnvVars are the variables read by config.FromEnv and the sparc CLI
var SPARCEnvVars = []string{
	"SPARC_PENNSIEVE_PROFILE",
	"SPARC_SCICRUNCH_API_KEY",
	"SPARC_O2SPARC_HOST",
	"SPARC_O2SPARC_USERNAME",
	"SPARC_O2SPARC_PASSWORD",
	"SPARC_CONFIG",
	"SPARC_ENV",
	"SPARC_DOTENV",
	"SPARC_LOG_LEVEL",
	"SPARC_TRACE",
}

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name inside a fresh temp dir and returns the
// full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// UnsetEnv removes keys from the environment for the duration of the test.
// Like t.Setenv it must not be used in parallel tests.
func UnsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		prev, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(key, prev)
			} else {
				_ = os.Unsetenv(key)
			}
		})
	}
}

// IsolateEnv unsets every SPARC_* variable the client reads
func IsolateEnv(t *testing.T) {
	t.Helper()
	UnsetEnv(t, SPARCEnvVars...)
}
