package application

import (
	"context"
	"io"
	"time"

	"github.com/resumeforge/api/internal/domain/entity"
)

// Notifier delivers account emails. Implementations live in pkg/mailer.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, name, link string, expiresAt time.Time) error
	SendPlanUpgraded(ctx context.Context, to, name, plan string) error
}

// CredentialIssuer mints bearer credentials bound to an account id.
type CredentialIssuer interface {
	Issue(userID string) (token string, expiresAt time.Time, err error)
}

// PaymentGateway registers orders remotely and knows the signature a genuine checkout produces.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (orderID string, err error)
	ExpectedSignature(orderID, paymentID string) string
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// UserDocument is the searchable projection of an account.
type UserDocument struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	ProfileImageURL  string    `json:"profile_image_url"`
	EmailVerified    bool      `json:"email_verified"`
	SubscriptionPlan string    `json:"subscription_plan"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewUserDocument(u *entity.User) UserDocument {
	return UserDocument{
		ID:               u.ID.String(),
		Email:            u.Email,
		Name:             u.Name,
		ProfileImageURL:  u.ProfileImageURL,
		EmailVerified:    u.EmailVerified,
		SubscriptionPlan: u.SubscriptionPlan,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// UserIndexer maintains the account directory used by search.
type UserIndexer interface {
	Index(ctx context.Context, doc UserDocument) error
	Search(ctx context.Context, q string, size int) ([]UserDocument, error)
}
