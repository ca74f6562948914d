package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeforge/api/internal/domain/entity"
	"github.com/resumeforge/api/internal/domain/repository"
)

var userCols = []string{"id", "email", "password_hash", "name", "profile_image_url", "email_verified",
	"verification_token", "verification_expires", "subscription_plan", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserRepository_Create(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, exp := "tok", now.Add(24*time.Hour)
	u := &entity.User{Email: "a@x.io", Password: "hash", Name: "Ann", SubscriptionPlan: entity.PlanBasic,
		VerificationToken: &tok, VerificationExpires: &exp}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("a@x.io", "hash", "Ann", "", false, &tok, &exp, entity.PlanBasic).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("u-1", now, now))

	require.NoError(t, r.Create(context.Background(), u))
	assert.Equal(t, entity.UserID("u-1"), u.ID)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := r.Create(context.Background(), &entity.User{Email: "a@x.io"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tok, exp := "tok", now.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
		WithArgs("a@x.io").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow("u-1", "a@x.io", "hash", "Ann", "", false, &tok, &exp, entity.PlanBasic, now, now))

	u, err := r.GetByEmail(context.Background(), "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, entity.UserID("u-1"), u.ID)
	require.NotNil(t, u.VerificationToken)
	assert.Equal(t, "tok", *u.VerificationToken)
	assert.True(t, u.PendingVerification())
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no rows", err: pgx.ErrNoRows},
		{name: "malformed uuid", err: &pgconn.PgError{Code: "22P02"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			r := NewUserRepository(mock)
			mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
				WithArgs("nope").
				WillReturnError(tt.err)

			_, err := r.GetByID(context.Background(), "nope")
			assert.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func TestUserRepository_ReplaceVerificationToken(t *testing.T) {
	exp := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	t.Run("overwrites pair", func(t *testing.T) {
		mock := newMock(t)
		r := NewUserRepository(mock)
		mock.ExpectExec(regexp.QuoteMeta("SET verification_token = $2, verification_expires = $3")).
			WithArgs("u-1", "new", exp).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, r.ReplaceVerificationToken(context.Background(), "u-1", "new", exp))
	})

	t.Run("verified or missing", func(t *testing.T) {
		mock := newMock(t)
		r := NewUserRepository(mock)
		mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND email_verified = FALSE")).
			WithArgs("u-1", "new", exp).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, r.ReplaceVerificationToken(context.Background(), "u-1", "new", exp), repository.ErrNotFound)
	})
}

func TestUserRepository_ConsumeVerificationToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("consumed", func(t *testing.T) {
		mock := newMock(t)
		r := NewUserRepository(mock)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE verification_token = $1 AND verification_expires >= $2")).
			WithArgs("tok", now).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("u-1"))

		id, err := r.ConsumeVerificationToken(context.Background(), "tok", now)
		require.NoError(t, err)
		assert.Equal(t, entity.UserID("u-1"), id)
	})

	t.Run("stale or expired", func(t *testing.T) {
		mock := newMock(t)
		r := NewUserRepository(mock)
		mock.ExpectQuery(regexp.QuoteMeta("SET email_verified = TRUE, verification_token = NULL, verification_expires = NULL")).
			WithArgs("old", now).
			WillReturnError(pgx.ErrNoRows)

		_, err := r.ConsumeVerificationToken(context.Background(), "old", now)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	now := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	u := &entity.User{ID: "u-1", Name: "Ann B", ProfileImageURL: "https://img"}

	mock.ExpectQuery(regexp.QuoteMeta("SET name = $2, profile_image_url = $3")).
		WithArgs("u-1", "Ann B", "https://img").
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

	require.NoError(t, r.UpdateProfile(context.Background(), u))
	assert.Equal(t, now, u.UpdatedAt)
}

func TestUserRepository_ExistsByEmailPropagatesErrors(t *testing.T) {
	mock := newMock(t)
	r := NewUserRepository(mock)
	boom := errors.New("conn reset")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).WithArgs("a@x.io").WillReturnError(boom)

	_, err := r.ExistsByEmail(context.Background(), "a@x.io")
	assert.ErrorIs(t, err, boom)
}
