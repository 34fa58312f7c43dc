// Package authtest provides fakes for exercising the auth flows without
// SMTP, Redis or real OAuth providers.
package authtest

import (
	"context"
	"net/url"
	"sync"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/internal/pkg/events"
	"github.com/ManuelReschke/foxauth/internal/pkg/oauth"
)

// Provider is an oauth.Provider that returns a fixed profile for any code.
type Provider struct {
	ProviderName string
	Profile      oauth.Profile
	Err          error
}

func (p *Provider) Name() string {
	return p.ProviderName
}

func (p *Provider) AuthCodeURL(state string) (string, error) {
	return "https://provider.test/authorize?state=" + url.QueryEscape(state), nil
}

func (p *Provider) Exchange(_ context.Context, params url.Values) (*oauth.Profile, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if params.Get("code") == "" {
		return nil, oauth.ErrMissingCode
	}
	profile := p.Profile
	profile.Provider = p.ProviderName
	return &profile, nil
}

// Sender records verification mails instead of queueing them.
type Sender struct {
	mu    sync.Mutex
	users []uint
	Err   error
}

func (s *Sender) Send(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.users = append(s.users, user.ID)
	return nil
}

func (s *Sender) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Publisher records published events.
type Publisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *Publisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Count returns how many events named name were published.
func (p *Publisher) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
