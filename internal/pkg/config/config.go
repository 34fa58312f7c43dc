// Package config assembles the service configuration once at startup.
// The resulting Config is passed by value into the components that need it.
// Copies share their slices and maps; components that keep a section use
// its Clone.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/foxauth/internal/pkg/env"
)

const (
	ScopeReadContent  = "read-content"
	ScopeWriteContent = "write-content"
)

// Scope is a named permission a token may carry.
type Scope struct {
	Name        string
	Description string
}

type DatabaseConfig struct {
	Driver     string // mysql or sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

type CacheConfig struct {
	Host     string
	Port     string
	Password string
}

// Addr returns host:port for the redis client.
func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type TokenConfig struct {
	Name           string
	Catalogue      []Scope
	DefaultScopes  []string
	TTL            time.Duration
	PurgeRetention time.Duration
}

// Known reports whether scope is part of the catalogue.
func (t TokenConfig) Known(scope string) bool {
	for _, s := range t.Catalogue {
		if s.Name == scope {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with t.
func (t TokenConfig) Clone() TokenConfig {
	c := t
	c.Catalogue = append([]Scope(nil), t.Catalogue...)
	c.DefaultScopes = append([]string(nil), t.DefaultScopes...)
	return c
}

type VerificationConfig struct {
	TTL       time.Duration
	Secret    string
	Frontend  string
	OnSuccess string
}

type RateLimitConfig struct {
	Register int
	Login    int
	Resend   int
	Window   time.Duration
	UseRedis bool
}

type MailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
	Workers  int
}

type ProviderCredentials struct {
	Key    string
	Secret string
}

type OAuthConfig struct {
	Providers   map[string]ProviderCredentials
	CallbackURL string // base, provider name and /callback are appended
	HTTPTimeout time.Duration
	StateTTL    time.Duration
	StateSecret string
}

// Clone returns a copy that shares no map with o.
func (o OAuthConfig) Clone() OAuthConfig {
	c := o
	c.Providers = make(map[string]ProviderCredentials, len(o.Providers))
	for name, creds := range o.Providers {
		c.Providers[name] = creds
	}
	return c
}

type MetricsConfig struct {
	User     string
	Password string
}

type Config struct {
	AppName     string
	AppURL      string
	AppKey      string
	Env         string
	Host        string
	Port        string
	FrontendURL string

	Database     DatabaseConfig
	Cache        CacheConfig
	Token        TokenConfig
	Verification VerificationConfig
	RateLimit    RateLimitConfig
	Mail         MailConfig
	OAuth        OAuthConfig
	Metrics      MetricsConfig
}

// Load reads the configuration from the loaded .env map and the process
// environment. Call env.SetupEnvFile first.
func Load() (Config, error) {
	port := env.GetEnv("APP_PORT", "4000")
	appURL := strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:"+port), "/")
	appKey := env.GetEnv("APP_KEY", "")
	frontend := strings.TrimRight(env.GetEnv("FRONTEND_URL", "http://localhost:3000"), "/")

	cfg := Config{
		AppName:     env.GetEnv("APP_NAME", "FoxAuth"),
		AppURL:      appURL,
		AppKey:      appKey,
		Env:         env.GetEnv("APP_ENV", "prod"),
		Host:        env.GetEnv("APP_HOST", "localhost"),
		Port:        port,
		FrontendURL: frontend,
		Database: DatabaseConfig{
			Driver:     env.GetEnv("DB_DRIVER", "mysql"),
			Host:       env.GetEnv("DB_HOST", "127.0.0.1"),
			Port:       env.GetEnv("DB_PORT", "3306"),
			User:       env.GetEnv("DB_USER", ""),
			Password:   env.GetEnv("DB_PASSWORD", ""),
			Name:       env.GetEnv("DB_NAME", ""),
			SQLitePath: env.GetEnv("DB_SQLITE_PATH", "foxauth.db"),
		},
		Cache: CacheConfig{
			Host:     env.GetEnv("CACHE_HOST", "localhost"),
			Port:     env.GetEnv("CACHE_PORT", "6379"),
			Password: env.GetEnv("CACHE_PASSWORD", ""),
		},
		Token: TokenConfig{
			Name: "auth_token",
			Catalogue: []Scope{
				{Name: ScopeReadContent, Description: "Read project contents"},
				{Name: ScopeWriteContent, Description: "Create or update project contents"},
			},
			DefaultScopes:  env.GetEnvList("TOKEN_DEFAULT_SCOPES", []string{ScopeReadContent, ScopeWriteContent}),
			TTL:            env.GetEnvDuration("TOKEN_TTL", 30*24*time.Hour),
			PurgeRetention: env.GetEnvDuration("TOKEN_PURGE_RETENTION", 7*24*time.Hour),
		},
		Verification: VerificationConfig{
			TTL:       env.GetEnvDuration("VERIFICATION_TTL", 60*time.Minute),
			Secret:    appKey,
			Frontend:  frontend,
			OnSuccess: frontend + "/email-verified",
		},
		RateLimit: RateLimitConfig{
			Register: env.GetEnvInt("RATE_LIMIT_REGISTER", 10),
			Login:    env.GetEnvInt("RATE_LIMIT_LOGIN", 5),
			Resend:   env.GetEnvInt("RATE_LIMIT_RESEND", 6),
			Window:   env.GetEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
			UseRedis: env.GetEnvBool("RATE_LIMIT_REDIS", true),
		},
		Mail: MailConfig{
			Host:     env.GetEnv("SMTP_HOST", ""),
			Port:     env.GetEnv("SMTP_PORT", "25"),
			Username: env.GetEnv("SMTP_USERNAME", ""),
			Password: env.GetEnv("SMTP_PASSWORD", ""),
			Sender:   env.GetEnv("SMTP_SENDER", ""),
			Workers:  env.GetEnvInt("MAIL_WORKERS", 2),
		},
		OAuth: OAuthConfig{
			Providers:   map[string]ProviderCredentials{},
			CallbackURL: appURL + "/api/v1/auth/socialite",
			HTTPTimeout: env.GetEnvDuration("OAUTH_HTTP_TIMEOUT", 10*time.Second),
			StateTTL:    env.GetEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
			StateSecret: appKey,
		},
		Metrics: MetricsConfig{
			User:     env.GetEnv("METRICS_USER", "admin"),
			Password: env.GetEnv("METRICS_PASSWORD", ""),
		},
	}

	for _, name := range []string{"google", "github", "facebook", "discord"} {
		prefix := strings.ToUpper(name)
		key := env.GetEnv(prefix+"_KEY", "")
		secret := env.GetEnv(prefix+"_SECRET", "")
		if key != "" && secret != "" {
			cfg.OAuth.Providers[name] = ProviderCredentials{Key: key, Secret: secret}
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks the invariants the rest of the service relies on.
func (c Config) Validate() error {
	if len(c.AppKey) < 32 {
		return errors.New("APP_KEY must be set to at least 32 characters")
	}
	if c.Token.TTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	if len(c.Token.DefaultScopes) == 0 {
		return errors.New("TOKEN_DEFAULT_SCOPES must not be empty")
	}
	for _, s := range c.Token.DefaultScopes {
		if !c.Token.Known(s) {
			return fmt.Errorf("default scope %q is not a known scope", s)
		}
	}
	if c.Verification.TTL <= 0 {
		return errors.New("VERIFICATION_TTL must be positive")
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

func (c Config) IsDev() bool {
	return c.Env == "dev"
}
