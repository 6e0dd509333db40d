package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nih-sparc/sparc-client-go/pkg/errors"
)

func TestNormalize_Flat(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		want map[string]any
	}{
		{
			name: "empty mapping gets the seed",
			raw:  map[string]any{},
			want: map[string]any{
				"global":  map[string]string{"default_profile": "default"},
				"default": map[string]string{"pennsieve_profile_name": "pennsieve"},
			},
		},
		{
			name: "nil mapping gets the seed",
			raw:  nil,
			want: map[string]any{
				"global":  map[string]string{"default_profile": "default"},
				"default": map[string]string{"pennsieve_profile_name": "pennsieve"},
			},
		},
		{
			name: "input overrides seed",
			raw:  map[string]any{"pennsieve_profile_name": "prod", "scicrunch_api_key": "key"},
			want: map[string]any{
				"global":  map[string]string{"default_profile": "default"},
				"default": map[string]string{"pennsieve_profile_name": "prod", "scicrunch_api_key": "key"},
			},
		},
		{
			name: "global that is not a mapping stays a flat key",
			raw:  map[string]any{"global": "yes"},
			want: map[string]any{
				"global":  map[string]string{"default_profile": "default"},
				"default": map[string]string{"pennsieve_profile_name": "pennsieve", "global": "yes"},
			},
		},
		{
			name: "non-string values are stringified and keys folded",
			raw:  map[string]any{"Retries": 3, "verbose": true, "empty": nil},
			want: map[string]any{
				"global": map[string]string{"default_profile": "default"},
				"default": map[string]string{
					"pennsieve_profile_name": "pennsieve",
					"retries":                "3",
					"verbose":                "true",
					"empty":                  "",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Raw())
			assert.Equal(t, "default", cfg.DefaultProfile())
		})
	}
}

func TestNormalize_FlatPennsieveProfile(t *testing.T) {
	for _, raw := range []map[string]any{
		{},
		{"pennsieve_profile_name": "ci"},
		{"o2sparc_host": "https://example.org"},
	} {
		cfg, err := Normalize(raw)
		require.NoError(t, err)

		want := "pennsieve"
		if v, ok := raw["pennsieve_profile_name"]; ok {
			want = v.(string)
		}
		v, ok := cfg.Get("default", "pennsieve_profile_name")
		assert.True(t, ok)
		assert.Equal(t, want, v)
	}
}

func TestNormalize_Nested(t *testing.T) {
	cfg, err := Normalize(map[string]any{
		"global": map[string]any{"default_profile": "test"},
		"test":   map[string]any{"pennsieve_profile_name": "test_profile"},
		"other":  map[string]string{"scicrunch_api_key": "k"},
	})
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.DefaultProfile())
	assert.Equal(t, []string{"global", "other", "test"}, cfg.Sections())
	assert.Equal(t, Section{"pennsieve_profile_name": "test_profile"}, cfg.Profile())

	_, hasDefault := cfg.Section("default")
	assert.False(t, hasDefault)
}

func TestNormalize_NestedSynthesizesMissingProfile(t *testing.T) {
	cfg, err := Normalize(map[string]any{
		"global": map[string]any{"default_profile": "prod"},
	})
	require.NoError(t, err)

	prod, ok := cfg.Section("prod")
	require.True(t, ok)
	assert.Equal(t, Section{"pennsieve_profile_name": "pennsieve"}, prod)
}

func TestNormalize_NestedMissingDefaultProfileKey(t *testing.T) {
	cfg, err := Normalize(map[string]any{
		"global": map[string]any{},
	})
	require.NoError(t, err)

	v, ok := cfg.Get("global", "default_profile")
	assert.True(t, ok)
	assert.Equal(t, "default", v)
	assert.Equal(t, Section{"pennsieve_profile_name": "pennsieve"}, cfg.Profile())
}

func TestNormalize_NestedPartialProfileIsNotMerged(t *testing.T) {
	cfg, err := Normalize(map[string]any{
		"global": map[string]any{"default_profile": "custom"},
		"custom": map[string]any{"scicrunch_api_key": "k"},
	})
	require.NoError(t, err)

	assert.Equal(t, Section{"scicrunch_api_key": "k"}, cfg.Profile())
}

func TestNormalize_NestedSectionMustBeMapping(t *testing.T) {
	_, err := Normalize(map[string]any{
		"global": map[string]any{"default_profile": "default"},
		"broken": "value",
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestNormalize_FixedPoint(t *testing.T) {
	inputs := []map[string]any{
		{},
		{"pennsieve_profile_name": "prod", "scicrunch_api_key": "key"},
		{
			"global": map[string]any{"default_profile": "ci"},
			"ci":     map[string]any{"pennsieve_profile_name": "ci"},
			"extra":  map[string]any{"a": "b"},
		},
	}

	for _, raw := range inputs {
		first, err := Normalize(raw)
		require.NoError(t, err)

		second, err := Normalize(first.Raw())
		require.NoError(t, err)

		assert.Equal(t, first.Raw(), second.Raw())
	}
}

func TestConfig_AccessorsReturnCopies(t *testing.T) {
	cfg := Defaults()

	p := cfg.Profile()
	p["pennsieve_profile_name"] = "mutated"

	s, _ := cfg.Section("default")
	s["extra"] = "x"

	names := cfg.Sections()
	names[0] = "changed"

	assert.Equal(t, Section{"pennsieve_profile_name": "pennsieve"}, cfg.Profile())
	assert.Equal(t, []string{"global", "default"}, cfg.Sections())
}

func TestSection_GetOr(t *testing.T) {
	s := Section{"a": "1", "empty": ""}

	assert.Equal(t, "1", s.GetOr("a", "x"))
	assert.Equal(t, "x", s.GetOr("empty", "x"))
	assert.Equal(t, "x", s.GetOr("missing", "x"))
	assert.Equal(t, Section{}, Section(nil).Clone())
}
