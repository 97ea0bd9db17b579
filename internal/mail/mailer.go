package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
)

// InvitationChannel is the queue the invitation mail jobs go through.
const InvitationChannel = "user-invitations"

// InvitationMail is the payload of one invitation mail job.
type InvitationMail struct {
	Email      string `json:"email"`
	Token      string `json:"token"`
	ConfirmURL string `json:"confirm_url"`
}

// Mailer dispatches the registration mail for a freshly created
// invitation. Dispatch is best-effort: a failure is logged by the caller
// and never fails the invitation itself.
type Mailer interface {
	SendUserInvitation(ctx context.Context, email, token string) error
}

// QueueMailer publishes invitation mail jobs to a broker; the mail
// worker picks them up and delivers them.
type QueueMailer struct {
	queue  Queue
	domain string
	logger *slog.Logger
}

func NewQueueMailer(queue Queue, domain string, logger *slog.Logger) *QueueMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueMailer{queue: queue, domain: domain, logger: logger}
}

func (m *QueueMailer) SendUserInvitation(ctx context.Context, email, token string) error {
	job := InvitationMail{
		Email:      email,
		Token:      token,
		ConfirmURL: ConfirmURL(m.domain, token, email),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	id, err := m.queue.Publish(ctx, InvitationChannel, data, map[string]string{
		"type": "user-invitation",
	})
	if err != nil {
		return err
	}

	m.logger.Info("invitation mail queued", "job_id", id, "email", email)
	return nil
}

// LogMailer stands in when no mail backend is configured: it logs the
// registration link instead of delivering it.
type LogMailer struct {
	domain string
	logger *slog.Logger
}

func NewLogMailer(domain string, logger *slog.Logger) *LogMailer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMailer{domain: domain, logger: logger}
}

func (m *LogMailer) SendUserInvitation(_ context.Context, email, token string) error {
	m.logger.Info("mail backend disabled, invitation link not sent",
		"email", email,
		"confirm_url", ConfirmURL(m.domain, token, email),
	)
	return nil
}

// ConfirmURL builds the registration link embedded in the invitation
// mail: {domain}/register/{token}?email={email}.
func ConfirmURL(domain, token, email string) string {
	return fmt.Sprintf("%s/register/%s?email=%s", domain, token, url.QueryEscape(email))
}
