package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/resumeforge/api/internal/domain/entity"
	"github.com/resumeforge/api/internal/domain/repository"
)

type UserRepository struct {
	db DB
}

func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id::text, email, password_hash, name, profile_image_url, email_verified,
	verification_token, verification_expires, subscription_plan, created_at, updated_at`

func scanUser(row pgx.Row) (*entity.User, error) {
	var (
		u  entity.User
		id string
	)
	if err := row.Scan(&id, &u.Email, &u.Password, &u.Name, &u.ProfileImageURL, &u.EmailVerified,
		&u.VerificationToken, &u.VerificationExpires, &u.SubscriptionPlan, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	u.ID = entity.UserID(id)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	var id string
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, profile_image_url, email_verified,
			verification_token, verification_expires, subscription_plan)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.ProfileImageURL, u.EmailVerified,
		u.VerificationToken, u.VerificationExpires, u.SubscriptionPlan)

	if err := row.Scan(&id, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapErr(err)
	}
	u.ID = entity.UserID(id)
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id entity.UserID) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String()))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) ReplaceVerificationToken(ctx context.Context, id entity.UserID, token string, expires time.Time) error {
	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET verification_token = $2, verification_expires = $3, updated_at = now()
		WHERE id = $1 AND email_verified = FALSE
	`, id.String(), token, expires)
	if err != nil {
		return mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (entity.UserID, error) {
	var id string
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET email_verified = TRUE, verification_token = NULL, verification_expires = NULL, updated_at = now()
		WHERE verification_token = $1 AND verification_expires >= $2 AND email_verified = FALSE
		RETURNING id::text
	`, token, now).Scan(&id)
	if err != nil {
		return "", mapErr(err)
	}
	return entity.UserID(id), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, u *entity.User) error {
	err := r.db.QueryRow(ctx, `
		UPDATE users
		SET name = $2, profile_image_url = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, u.ID.String(), u.Name, u.ProfileImageURL).Scan(&u.UpdatedAt)
	return mapErr(err)
}

var _ repository.UserRepository = (*UserRepository)(nil)
