package templates

import (
	"time"

	"github.com/resumeforge/api/config"
)

// Option pattern
type Option func(*EmailData)

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }
func WithPlan(plan string) Option     { return func(d *EmailData) { d.Plan = plan } }

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

// NewBaseEmailData fills the branding fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:  name,
		Email: email,
		Type:  typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.CompanyAddress = cfg.CompanyAddress
		d.AppName = cfg.AppName
		d.LogoURL = cfg.LogoURL
		d.SupportURL = cfg.SupportURL
		d.PrivacyURL = cfg.PrivacyURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(cfg *config.Config, name, email, verifyURL string, opts ...Option) EmailData {
	opts = append([]Option{WithVerifyURL(verifyURL)}, opts...)
	return NewBaseEmailData(cfg, VerifyEmail, name, email, opts...)
}

func NewPlanUpgradedData(cfg *config.Config, name, email, plan string, opts ...Option) EmailData {
	opts = append([]Option{WithPlan(plan)}, opts...)
	return NewBaseEmailData(cfg, PlanUpgraded, name, email, opts...)
}
