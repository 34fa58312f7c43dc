package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/foxauth/internal/pkg/env"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	env.Env = values
	t.Cleanup(func() { env.Env = nil })
}

func TestLoadDefaults(t *testing.T) {
	withEnv(t, map[string]string{
		"APP_KEY":       strings.Repeat("k", 32),
		"APP_URL":       "https://auth.example.com/",
		"FRONTEND_URL":  "https://app.example.com",
		"GOOGLE_KEY":    "gk",
		"GOOGLE_SECRET": "gs",
		"GITHUB_KEY":    "only-key",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://auth.example.com", cfg.AppURL)
	assert.Equal(t, []string{ScopeReadContent, ScopeWriteContent}, cfg.Token.DefaultScopes)
	assert.Equal(t, 30*24*time.Hour, cfg.Token.TTL)
	assert.Equal(t, "https://app.example.com/email-verified", cfg.Verification.OnSuccess)
	assert.Equal(t, 10, cfg.RateLimit.Register)
	assert.Equal(t, 5, cfg.RateLimit.Login)
	assert.Equal(t, 6, cfg.RateLimit.Resend)
	assert.Equal(t, "https://auth.example.com/api/v1/auth/socialite", cfg.OAuth.CallbackURL)

	assert.Contains(t, cfg.OAuth.Providers, "google")
	assert.NotContains(t, cfg.OAuth.Providers, "github", "providers need both key and secret")
}

func TestValidate(t *testing.T) {
	withEnv(t, map[string]string{"APP_KEY": "short"})
	_, err := Load()
	assert.ErrorContains(t, err, "APP_KEY")

	withEnv(t, map[string]string{
		"APP_KEY":              strings.Repeat("k", 32),
		"TOKEN_DEFAULT_SCOPES": "read-content,admin",
	})
	_, err = Load()
	assert.ErrorContains(t, err, "admin")

	withEnv(t, map[string]string{
		"APP_KEY":   strings.Repeat("k", 32),
		"DB_DRIVER": "postgres",
	})
	_, err = Load()
	assert.ErrorContains(t, err, "DB_DRIVER")
}

func TestCloneDoesNotShare(t *testing.T) {
	tc := TokenConfig{
		Catalogue:     []Scope{{Name: ScopeReadContent}},
		DefaultScopes: []string{ScopeReadContent},
	}
	c := tc.Clone()
	c.DefaultScopes[0] = "admin"
	c.Catalogue[0].Name = "admin"
	assert.Equal(t, ScopeReadContent, tc.DefaultScopes[0])
	assert.Equal(t, ScopeReadContent, tc.Catalogue[0].Name)

	oc := OAuthConfig{Providers: map[string]ProviderCredentials{"google": {Key: "k", Secret: "s"}}}
	o := oc.Clone()
	delete(o.Providers, "google")
	o.Providers["github"] = ProviderCredentials{}
	assert.Contains(t, oc.Providers, "google")
	assert.NotContains(t, oc.Providers, "github")
}

func TestTokenConfigKnown(t *testing.T) {
	tc := TokenConfig{Catalogue: []Scope{{Name: ScopeReadContent}}}
	assert.True(t, tc.Known(ScopeReadContent))
	assert.False(t, tc.Known(ScopeWriteContent))
}
