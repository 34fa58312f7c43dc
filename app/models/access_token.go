package models

import (
	"strings"
	"time"
)

// AccessToken is the persisted side of an opaque bearer token. Only the
// sha256 of the token value is stored.
type AccessToken struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	TokenHash string    `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	Scopes    string    `gorm:"type:text" json:"-"`
	Revoked   bool      `gorm:"not null;default:false;index" json:"revoked"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ScopeList returns the scopes as a slice.
func (t *AccessToken) ScopeList() []string {
	if t.Scopes == "" {
		return []string{}
	}
	return strings.Fields(t.Scopes)
}

func (t *AccessToken) SetScopes(scopes []string) {
	t.Scopes = strings.Join(scopes, " ")
}

func (t *AccessToken) HasScope(scope string) bool {
	for _, s := range t.ScopeList() {
		if s == scope {
			return true
		}
	}
	return false
}

// IsUsable reports whether the token is neither revoked nor expired at now.
func (t *AccessToken) IsUsable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
