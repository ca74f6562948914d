package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeforge/api/internal/domain/entity"
)

func TestRegister_CreatesPendingBasicAccount(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	u, err := h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.io", Password: "secret1", ProfileImageURL: "https://img/a.png"})
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, entity.PlanBasic, u.SubscriptionPlan)
	assert.False(t, u.EmailVerified)
	assert.NotEqual(t, "secret1", u.Password)
	require.True(t, u.PendingVerification())
	assert.Equal(t, h.clock.Add(24*time.Hour), *u.VerificationExpires)

	require.Len(t, h.notifier.verify, 1)
	mail := h.notifier.verify[0]
	assert.Equal(t, "ann@x.io", mail.to)
	assert.Equal(t, "http://localhost:8080/api/auth/verify-email?token="+*u.VerificationToken, mail.link)
	assert.Contains(t, h.index.docs, u.ID.String())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = h.users.Register(ctx, RegisterInput{Name: "Other", Email: "ann@x.io", Password: "secret2"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, h.notifier.verify, 1)
}

func TestRegister_ConcurrentSameEmailCreatesOne(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "race@x.io", Password: "secret1"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, ok)
}

func TestRegister_NotifierFailureLeavesAccountPending(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.notifier.verifyErr = errBoom

	_, err := h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errBoom)

	u, err := h.store.Users().GetByEmail(ctx, "ann@x.io")
	require.NoError(t, err)
	assert.False(t, u.EmailVerified)
	assert.True(t, u.PendingVerification())

	h.notifier.verifyErr = nil
	require.NoError(t, h.users.ResendVerification(ctx, "ann@x.io"))
	require.NoError(t, h.users.VerifyEmail(ctx, h.notifier.lastToken()))
}

func TestVerifyEmail(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)
	token := h.notifier.lastToken()

	require.NoError(t, h.users.VerifyEmail(ctx, token))

	u, _ := h.store.Users().GetByEmail(ctx, "ann@x.io")
	assert.True(t, u.EmailVerified)
	assert.Nil(t, u.VerificationToken)
	assert.Nil(t, u.VerificationExpires)
	assert.True(t, h.index.docs[u.ID.String()].EmailVerified)

	assert.ErrorIs(t, h.users.VerifyEmail(ctx, token), ErrNotFound, "token is single use")
}

func TestVerifyEmail_UnknownAndEmpty(t *testing.T) {
	h := newHarness()
	assert.ErrorIs(t, h.users.VerifyEmail(context.Background(), "nope"), ErrNotFound)
	assert.ErrorIs(t, h.users.VerifyEmail(context.Background(), ""), ErrNotFound)
}

func TestVerifyEmail_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		advance time.Duration
		wantErr error
	}{
		{name: "just before expiry", advance: 24*time.Hour - time.Second},
		{name: "exactly at expiry", advance: 24 * time.Hour},
		{name: "after expiry", advance: 24*time.Hour + time.Second, wantErr: ErrExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			ctx := context.Background()
			_, err := h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
			require.NoError(t, err)

			h.clock = h.clock.Add(tt.advance)
			err = h.users.VerifyEmail(ctx, h.notifier.lastToken())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				u, _ := h.store.Users().GetByEmail(ctx, "ann@x.io")
				assert.False(t, u.EmailVerified)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestResendVerification_InvalidatesPreviousToken(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)
	oldToken := h.notifier.lastToken()

	h.clock = h.clock.Add(time.Hour)
	require.NoError(t, h.users.ResendVerification(ctx, "ann@x.io"))
	newToken := h.notifier.lastToken()
	require.NotEqual(t, oldToken, newToken)
	assert.Equal(t, h.clock.Add(24*time.Hour), h.notifier.verify[1].expiresAt)

	assert.ErrorIs(t, h.users.VerifyEmail(ctx, oldToken), ErrNotFound)
	assert.NoError(t, h.users.VerifyEmail(ctx, newToken))
}

func TestResendVerification_Errors(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	assert.ErrorIs(t, h.users.ResendVerification(ctx, "ghost@x.io"), ErrNotFound)

	h.verifiedUser("ann@x.io")
	assert.ErrorIs(t, h.users.ResendVerification(ctx, "ann@x.io"), ErrAlreadyVerified)
}

func TestLogin(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.users.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@x.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = h.users.Login(ctx, "ann@x.io", "secret1")
	assert.ErrorIs(t, err, ErrEmailNotVerified)

	require.NoError(t, h.users.VerifyEmail(ctx, h.notifier.lastToken()))

	res, err := h.users.Login(ctx, "ann@x.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, h.clock.Add(time.Hour), res.ExpiresAt)

	id, err := h.jwt.Decode(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID.String(), id)
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.verifiedUser("ann@x.io")

	_, errUnknown := h.users.Login(ctx, "ghost@x.io", "secret1")
	_, errWrong := h.users.Login(ctx, "ann@x.io", "wrong-password")

	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrong, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestGetProfileAndUpdate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	res := h.verifiedUser("ann@x.io")

	_, err := h.users.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	u, err := h.users.UpdateProfile(ctx, res.User.ID, UpdateProfileInput{Name: "Ann B"})
	require.NoError(t, err)
	assert.Equal(t, "Ann B", u.Name)

	got, err := h.users.GetProfile(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann B", got.Name)
	assert.Equal(t, "Ann B", h.index.docs[res.User.ID.String()].Name)

	view := got.View()
	assert.Equal(t, res.User.ID, view.ID)
	assert.True(t, view.EmailVerified)
}

func TestUploadProfileImage(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.users.UploadProfileImage(ctx, strings.NewReader("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, ErrUpstream, "no uploader configured")

	up := &fakeUploader{}
	h.users.Uploader = up

	url, err := h.users.UploadProfileImage(ctx, strings.NewReader("pngbytes"), "Me.PNG", "image/png")
	require.NoError(t, err)
	require.Len(t, up.paths, 1)
	assert.True(t, strings.HasPrefix(up.paths[0], "profile-images/"))
	assert.True(t, strings.HasSuffix(up.paths[0], ".png"))
	assert.Equal(t, "pngbytes", up.body)
	assert.Contains(t, url, up.paths[0])

	_, err = h.users.UploadProfileImage(ctx, strings.NewReader("x"), "a.pdf", "application/pdf")
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	up.err = context.DeadlineExceeded
	_, err = h.users.UploadProfileImage(ctx, strings.NewReader("x"), "a.png", "image/png")
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSearchUsers(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.verifiedUser("ann@x.io")
	h.verifiedUser("bob@x.io")

	docs, err := h.users.SearchUsers(ctx, "ann", 0)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "ann@x.io", docs[0].Email)

	docs, err = h.users.SearchUsers(ctx, "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, docs)

	h.index.err = errBoom
	_, err = h.users.SearchUsers(ctx, "ann", 10)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, errBoom)
}
