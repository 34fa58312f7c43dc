package verification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/internal/pkg/mail"
)

type captureQueue struct {
	msgs []mail.Message
	err  error
}

func (q *captureQueue) Enqueue(_ context.Context, msg mail.Message) error {
	if q.err != nil {
		return q.err
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func TestNotifierEnqueuesSignedLink(t *testing.T) {
	renderer, err := mail.NewRenderer()
	require.NoError(t, err)
	q := &captureQueue{}
	s := newSigner()
	n := NewNotifier("FoxAuth", s, renderer, q)

	user := &models.User{ID: 3, Name: "Ada", Email: "ada@x.com"}
	require.NoError(t, n.Send(context.Background(), user))

	require.Len(t, q.msgs, 1)
	assert.Equal(t, "ada@x.com", q.msgs[0].To)
	assert.Equal(t, "Verify Email Address", q.msgs[0].Subject)
	assert.Contains(t, q.msgs[0].HTMLBody, "https://auth.example.com/api/v1/auth/email/verify/3/"+user.EmailVerificationHash())
	assert.Contains(t, q.msgs[0].HTMLBody, "60 minutes")
}

func TestNotifierReturnsQueueError(t *testing.T) {
	renderer, err := mail.NewRenderer()
	require.NoError(t, err)
	n := NewNotifier("FoxAuth", newSigner(), renderer, &captureQueue{err: errors.New("redis down")})

	assert.Error(t, n.Send(context.Background(), &models.User{ID: 1, Email: "a@x.com"}))
}
