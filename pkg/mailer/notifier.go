package mailer

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/pkg/mailer/templates"
)

// Sender delivers a rendered message. *Mailgun satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Publisher hands a job to a broker and returns once it is accepted.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// DirectNotifier renders templates in-process and sends them right away.
type DirectNotifier struct {
	Sender Sender
	Cfg    *config.Config
}

func NewDirectNotifier(s Sender, cfg *config.Config) *DirectNotifier {
	return &DirectNotifier{Sender: s, Cfg: cfg}
}

func (n *DirectNotifier) SendVerificationEmail(ctx context.Context, to, name, link string, expiresAt time.Time) error {
	data := templates.NewVerifyEmailData(n.Cfg, name, to, link, templates.WithExpiresAt(expiresAt))
	return n.send(ctx, to, templates.VerifyEmail, data)
}

func (n *DirectNotifier) SendPlanUpgraded(ctx context.Context, to, name, plan string) error {
	data := templates.NewPlanUpgradedData(n.Cfg, name, to, plan)
	return n.send(ctx, to, templates.PlanUpgraded, data)
}

func (n *DirectNotifier) send(ctx context.Context, to, tmpl string, data templates.EmailData) error {
	subject, text, html, err := templates.Render(tmpl, data)
	if err != nil {
		return err
	}
	return n.Sender.Send(ctx, to, subject, text, html)
}

// QueueNotifier publishes EmailJob messages for cmd/email_worker to render and send.
type QueueNotifier struct {
	Pub Publisher
	Cfg *config.Config
}

func NewQueueNotifier(p Publisher, cfg *config.Config) *QueueNotifier {
	return &QueueNotifier{Pub: p, Cfg: cfg}
}

func (n *QueueNotifier) SendVerificationEmail(ctx context.Context, to, name, link string, expiresAt time.Time) error {
	data := templates.NewVerifyEmailData(n.Cfg, name, to, link, templates.WithExpiresAt(expiresAt))
	return n.Pub.PublishJSON(ctx, EmailJob{To: to, Template: templates.VerifyEmail, Data: templates.ToMap(data)})
}

func (n *QueueNotifier) SendPlanUpgraded(ctx context.Context, to, name, plan string) error {
	data := templates.NewPlanUpgradedData(n.Cfg, name, to, plan)
	return n.Pub.PublishJSON(ctx, EmailJob{To: to, Template: templates.PlanUpgraded, Data: templates.ToMap(data)})
}

// LogNotifier only logs. The verification link is a credential, so it is written at debug level.
type LogNotifier struct {
	Logger *logrus.Logger
}

func NewLogNotifier(l *logrus.Logger) *LogNotifier { return &LogNotifier{Logger: l} }

func (n *LogNotifier) SendVerificationEmail(_ context.Context, to, name, link string, expiresAt time.Time) error {
	entry := n.Logger.WithFields(logrus.Fields{"to": to, "name": name, "expires_at": expiresAt.UTC()})
	entry.Info("verification email suppressed")
	entry.WithField("link", link).Debug("verification link")
	return nil
}

func (n *LogNotifier) SendPlanUpgraded(_ context.Context, to, name, plan string) error {
	n.Logger.WithFields(logrus.Fields{"to": to, "name": name, "plan": plan}).Info("plan upgraded email suppressed")
	return nil
}
