package repository

import (
	"context"
	"time"

	"github.com/resumeforge/api/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
//
// The verification ticket is only ever written through ReplaceVerificationToken and
// ConsumeVerificationToken, both of which update token and expiry in a single conditional write.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id entity.UserID) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// ReplaceVerificationToken overwrites the pending ticket of an unverified user.
	// Returns ErrNotFound when the user is missing or already verified.
	ReplaceVerificationToken(ctx context.Context, id entity.UserID, token string, expires time.Time) error
	// ConsumeVerificationToken marks the holder of token verified and clears the ticket,
	// provided the ticket has not expired at now. Returns ErrNotFound when nothing matched.
	ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (entity.UserID, error)
	UpdateProfile(ctx context.Context, u *entity.User) error
}
