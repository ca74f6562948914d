package entity

import (
	"time"
)

// UserID identifies an account. Handlers only ever receive one from the request authenticator.
type UserID string

func (id UserID) String() string { return string(id) }

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field.
//
// VerificationToken and VerificationExpires are either both nil or both set;
// a verified user never carries a token.
type User struct {
	ID                  UserID
	Email               string
	Password            string
	Name                string
	ProfileImageURL     string
	EmailVerified       bool
	VerificationToken   *string
	VerificationExpires *time.Time
	SubscriptionPlan    string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PendingVerification reports whether a verification ticket is outstanding.
func (u *User) PendingVerification() bool {
	return !u.EmailVerified && u.VerificationToken != nil && u.VerificationExpires != nil
}

// UserView is the read projection returned to clients. It never carries the password hash or the verification token.
type UserView struct {
	ID               UserID    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	ProfileImageURL  string    `json:"profile_image_url"`
	EmailVerified    bool      `json:"email_verified"`
	SubscriptionPlan string    `json:"subscription_plan"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *User) View() UserView {
	return UserView{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		ProfileImageURL:  u.ProfileImageURL,
		EmailVerified:    u.EmailVerified,
		SubscriptionPlan: u.SubscriptionPlan,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
