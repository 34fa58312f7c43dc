package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/ManuelReschke/foxauth/app/models"
	"github.com/ManuelReschke/foxauth/internal/pkg/mail"
)

const templateName = "verify_email"

// Notifier renders the verification mail for a user and hands it to the
// mail queue.
type Notifier struct {
	appName  string
	signer   *Signer
	renderer *mail.Renderer
	queue    mail.Queue
	ttl      time.Duration
}

func NewNotifier(appName string, signer *Signer, renderer *mail.Renderer, queue mail.Queue) *Notifier {
	return &Notifier{
		appName:  appName,
		signer:   signer,
		renderer: renderer,
		queue:    queue,
		ttl:      signer.ttl,
	}
}

// Send enqueues a fresh signed link for user. It returns once the message
// is queued; delivery happens on the mail worker.
func (n *Notifier) Send(ctx context.Context, user *models.User) error {
	body, err := n.renderer.Render(templateName, map[string]interface{}{
		"Name":      user.Name,
		"AppName":   n.appName,
		"URL":       n.signer.URL(user),
		"ExpiresIn": fmt.Sprintf("%d minutes", int(n.ttl.Minutes())),
	})
	if err != nil {
		return err
	}
	return n.queue.Enqueue(ctx, mail.Message{
		To:       user.Email,
		Subject:  "Verify Email Address",
		HTMLBody: body,
	})
}
