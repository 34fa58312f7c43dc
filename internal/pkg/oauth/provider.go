// Package oauth wraps the goth providers behind a small strategy interface
// so the social login flow can be driven without sessions.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/github"
	"github.com/markbates/goth/providers/google"

	"github.com/ManuelReschke/foxauth/internal/pkg/config"
)

var ErrMissingCode = errors.New("authorization code missing")

// Profile is the identity an external provider returned.
type Profile struct {
	Provider string
	ID       string
	Email    string
	Name     string
	NickName string
}

// DisplayName falls back to the nickname and then to the provider id.
func (p *Profile) DisplayName() string {
	switch {
	case strings.TrimSpace(p.Name) != "":
		return p.Name
	case strings.TrimSpace(p.NickName) != "":
		return p.NickName
	default:
		return p.Provider + " user " + p.ID
	}
}

type Provider interface {
	Name() string
	// AuthCodeURL returns the provider authorization URL carrying state.
	AuthCodeURL(state string) (string, error)
	// Exchange trades the callback parameters for the user's profile.
	Exchange(ctx context.Context, params url.Values) (*Profile, error)
}

type gothProvider struct {
	provider goth.Provider
}

func (g *gothProvider) Name() string {
	return g.provider.Name()
}

func (g *gothProvider) AuthCodeURL(state string) (string, error) {
	sess, err := g.provider.BeginAuth(state)
	if err != nil {
		return "", err
	}
	return sess.GetAuthURL()
}

// Exchange runs the code exchange and profile fetch. goth does not take a
// context, so the outbound calls are bounded by the provider HTTP client
// timeout instead.
func (g *gothProvider) Exchange(ctx context.Context, params url.Values) (*Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if params.Get("code") == "" {
		return nil, ErrMissingCode
	}
	sess, err := g.provider.BeginAuth(params.Get("state"))
	if err != nil {
		return nil, err
	}
	if _, err := sess.Authorize(g.provider, params); err != nil {
		return nil, fmt.Errorf("exchange code with %s: %w", g.provider.Name(), err)
	}
	user, err := g.provider.FetchUser(sess)
	if err != nil {
		return nil, fmt.Errorf("fetch %s profile: %w", g.provider.Name(), err)
	}
	if user.UserID == "" {
		return nil, fmt.Errorf("%s returned a profile without id", g.provider.Name())
	}
	return &Profile{
		Provider: g.provider.Name(),
		ID:       user.UserID,
		Email:    strings.ToLower(strings.TrimSpace(user.Email)),
		Name:     user.Name,
		NickName: user.NickName,
	}, nil
}

// Registry maps provider names to their strategy.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a goth provider for every configured provider. Each
// provider gets an HTTP client with the configured timeout.
func NewRegistry(cfg config.OAuthConfig) *Registry {
	var providers []Provider
	for name, creds := range cfg.Providers {
		p := newGothProvider(name, creds, cfg.CallbackURL+"/"+name+"/callback", &http.Client{Timeout: cfg.HTTPTimeout})
		if p == nil {
			continue
		}
		providers = append(providers, &gothProvider{provider: p})
	}
	return NewRegistryFrom(providers...)
}

func NewRegistryFrom(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the enabled providers in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newGothProvider(name string, creds config.ProviderCredentials, callback string, client *http.Client) goth.Provider {
	switch name {
	case "google":
		p := google.New(creds.Key, creds.Secret, callback, "email", "profile")
		p.HTTPClient = client
		return p
	case "github":
		p := github.New(creds.Key, creds.Secret, callback, "read:user", "user:email")
		p.HTTPClient = client
		return p
	case "facebook":
		p := facebook.New(creds.Key, creds.Secret, callback, "email", "public_profile")
		p.HTTPClient = client
		return p
	case "discord":
		p := discord.New(creds.Key, creds.Secret, callback, discord.ScopeIdentify, discord.ScopeEmail)
		p.HTTPClient = client
		return p
	default:
		return nil
	}
}
