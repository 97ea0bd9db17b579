package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/larswaechter/aionic-api/config"
)

const invitationSubject = "You were invited to join Aionic"

// Worker consumes invitation mail jobs and delivers them over SMTP.
// Without a configured SMTP host it logs each job and acknowledges it,
// which keeps local setups working without a mail server.
type Worker struct {
	queue  Queue
	cfg    config.MailConfig
	logger *slog.Logger
}

func NewWorker(queue Queue, cfg config.MailConfig, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{queue: queue, cfg: cfg, logger: logger}
}

// Run blocks consuming jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("mail worker started", "channel", InvitationChannel)
	return w.queue.Subscribe(ctx, InvitationChannel, w.handle)
}

func (w *Worker) handle(_ context.Context, job Job) error {
	var m InvitationMail
	if err := json.Unmarshal(job.Data, &m); err != nil {
		// Unparseable jobs would be redelivered forever; drop them.
		w.logger.Error("invalid mail job, dropping", "job_id", job.ID, "error", err)
		return nil
	}

	if w.cfg.SMTPHost == "" {
		w.logger.Info("smtp not configured, skipping delivery",
			"job_id", job.ID, "email", m.Email, "confirm_url", m.ConfirmURL)
		return nil
	}

	if err := w.deliver(m); err != nil {
		w.logger.Error("mail delivery failed", "job_id", job.ID, "email", m.Email, "error", err)
		return err
	}

	w.logger.Info("invitation mail delivered", "job_id", job.ID, "email", m.Email)
	return nil
}

func (w *Worker) deliver(m InvitationMail) error {
	addr := fmt.Sprintf("%s:%d", w.cfg.SMTPHost, w.cfg.SMTPPort)

	var auth smtp.Auth
	if w.cfg.SMTPUser != "" {
		auth = smtp.PlainAuth("", w.cfg.SMTPUser, w.cfg.SMTPPass, w.cfg.SMTPHost)
	}

	msg := strings.Join([]string{
		"From: " + w.cfg.From,
		"To: " + m.Email,
		"Subject: " + invitationSubject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
		"",
		invitationBody(m),
	}, "\r\n")

	return smtp.SendMail(addr, auth, w.cfg.From, []string{m.Email}, []byte(msg))
}

func invitationBody(m InvitationMail) string {
	return fmt.Sprintf(
		`<p>Hi,</p><p>you were invited to join Aionic. Complete your registration here:</p><p><a href="%s">%s</a></p>`,
		m.ConfirmURL, m.ConfirmURL,
	)
}
