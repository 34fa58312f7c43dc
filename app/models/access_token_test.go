package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessTokenScopes(t *testing.T) {
	tok := &AccessToken{}
	assert.Empty(t, tok.ScopeList())

	tok.SetScopes([]string{"read-content", "write-content"})
	assert.Equal(t, "read-content write-content", tok.Scopes)
	assert.True(t, tok.HasScope("write-content"))
	assert.False(t, tok.HasScope("admin"))
}

func TestAccessTokenIsUsable(t *testing.T) {
	now := time.Now()
	tok := &AccessToken{ExpiresAt: now.Add(time.Hour)}
	assert.True(t, tok.IsUsable(now))

	tok.Revoked = true
	assert.False(t, tok.IsUsable(now))

	tok.Revoked = false
	assert.False(t, tok.IsUsable(now.Add(2*time.Hour)))
}
