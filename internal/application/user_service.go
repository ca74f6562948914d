package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/internal/domain/entity"
	repo "github.com/resumeforge/api/internal/domain/repository"
	"github.com/resumeforge/api/pkg/helpers"
	"github.com/resumeforge/api/pkg/metrics"
)

const verificationTTL = 24 * time.Hour

type UserService struct {
	Repo        repo.UserRepository
	Credentials CredentialIssuer
	Notifier    Notifier
	Uploader    Uploader    // optional
	Index       UserIndexer // optional
	Logger      *logrus.Logger
	Metrics     *metrics.Metrics

	VerifyURL     string
	NotifyTimeout time.Duration

	now      func() time.Time
	newToken func() string
}

func NewUserService(r repo.UserRepository, creds CredentialIssuer, n Notifier, cfg *config.Config, logger *logrus.Logger) *UserService {
	return &UserService{
		Repo:          r,
		Credentials:   creds,
		Notifier:      n,
		Logger:        logger,
		VerifyURL:     cfg.VerifyEmailURL,
		NotifyTimeout: cfg.NotifyTimeout,
		now:           time.Now,
		newToken:      uuid.NewString,
	}
}

type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ProfileImageURL string
}

type LoginResult struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

type UpdateProfileInput struct {
	Name            string
	ProfileImageURL string
}

// Register creates an unverified Basic account and mails its verification link.
// When the mail cannot be handed off the account stays pending and ErrUpstream is returned;
// ResendVerification recovers it.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	exists, err := s.Repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		s.Metrics.Inc(metrics.Registrations, "conflict")
		return nil, ErrConflict
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token := s.newToken()
	expires := s.now().Add(verificationTTL).UTC()
	u := &entity.User{
		Email:               in.Email,
		Password:            hash,
		Name:                in.Name,
		ProfileImageURL:     in.ProfileImageURL,
		SubscriptionPlan:    entity.PlanBasic,
		VerificationToken:   &token,
		VerificationExpires: &expires,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			s.Metrics.Inc(metrics.Registrations, "conflict")
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	indexUser(ctx, s.Index, s.Logger, u)

	if err := s.sendVerification(ctx, u, token, expires); err != nil {
		s.Metrics.Inc(metrics.Registrations, "notify_failed")
		return nil, err
	}
	s.Metrics.Inc(metrics.Registrations, "created")
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("user registered")
	}
	return u, nil
}

// VerifyEmail consumes a verification token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}
	u, err := s.Repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup token: %w", err)
	}
	now := s.now()
	if u.VerificationExpires == nil || u.VerificationExpires.Before(now) {
		return ErrExpired
	}

	// The holder may have been re-issued a token or verified since the read above.
	if _, err := s.Repo.ConsumeVerificationToken(ctx, token, now); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("consume token: %w", err)
	}

	u.EmailVerified = true
	u.VerificationToken, u.VerificationExpires = nil, nil
	indexUser(ctx, s.Index, s.Logger, u)
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID).Info("email verified")
	}
	return nil
}

// ResendVerification replaces the pending token of an unverified account and mails the new link.
func (s *UserService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup email: %w", err)
	}
	if u.EmailVerified {
		return ErrAlreadyVerified
	}

	token := s.newToken()
	expires := s.now().Add(verificationTTL).UTC()
	if err := s.Repo.ReplaceVerificationToken(ctx, u.ID, token, expires); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// verified in between
			return ErrAlreadyVerified
		}
		return fmt.Errorf("replace token: %w", err)
	}
	return s.sendVerification(ctx, u, token, expires)
}

// Login checks the password and issues a bearer credential for a verified account.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return nil, fmt.Errorf("lookup email: %w", err)
		}
		helpers.BurnPasswordCompare(password)
		s.Metrics.Inc(metrics.Logins, "invalid")
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		s.Metrics.Inc(metrics.Logins, "invalid")
		return nil, ErrInvalidCredentials
	}
	if !u.EmailVerified {
		s.Metrics.Inc(metrics.Logins, "unverified")
		return nil, ErrEmailNotVerified
	}

	token, exp, err := s.Credentials.Issue(u.ID.String())
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("issue credential failed")
		}
		return nil, fmt.Errorf("issue credential: %w", err)
	}
	s.Metrics.Inc(metrics.Logins, "ok")
	return &LoginResult{User: u, Token: token, ExpiresAt: exp}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID entity.UserID) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateProfile changes the non-empty fields of in.
func (s *UserService) UpdateProfile(ctx context.Context, userID entity.UserID, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.ProfileImageURL != "" {
		u.ProfileImageURL = in.ProfileImageURL
	}
	if err := s.Repo.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	indexUser(ctx, s.Index, s.Logger, u)
	return u, nil
}

// UploadProfileImage stores an image under profile-images/ and returns its public URL.
// It runs before an account exists, so the object is not tied to a user.
func (s *UserService) UploadProfileImage(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrUnsupportedMedia
	}
	if s.Uploader == nil {
		return "", fmt.Errorf("%w: image storage not configured", ErrUpstream)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := "profile-images/" + uuid.NewString() + ext
	u, err := s.Uploader.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("object", objectPath).Error("profile image upload failed")
		}
		return "", fmt.Errorf("%w: upload image: %w", ErrUpstream, err)
	}
	return u, nil
}

// SearchUsers runs a directory search. Without an index it returns no results.
func (s *UserService) SearchUsers(ctx context.Context, q string, size int) ([]UserDocument, error) {
	if s.Index == nil || strings.TrimSpace(q) == "" {
		return []UserDocument{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	docs, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, fmt.Errorf("%w: search users: %w", ErrUpstream, err)
	}
	return docs, nil
}

func (s *UserService) verificationLink(token string) string {
	sep := "?"
	if strings.Contains(s.VerifyURL, "?") {
		sep = "&"
	}
	return s.VerifyURL + sep + "token=" + url.QueryEscape(token)
}

func (s *UserService) sendVerification(ctx context.Context, u *entity.User, token string, expires time.Time) error {
	if s.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.NotifyTimeout)
		defer cancel()
	}
	if err := s.Notifier.SendVerificationEmail(ctx, u.Email, u.Name, s.verificationLink(token), expires); err != nil {
		s.Metrics.Inc(metrics.VerificationEmails, "failed")
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("send verification email failed")
		}
		return fmt.Errorf("%w: send verification email: %w", ErrUpstream, err)
	}
	s.Metrics.Inc(metrics.VerificationEmails, "sent")
	return nil
}

// indexUser refreshes the directory entry for u. Failures are logged and otherwise ignored.
func indexUser(ctx context.Context, idx UserIndexer, logger *logrus.Logger, u *entity.User) {
	if idx == nil {
		return
	}
	if err := idx.Index(ctx, NewUserDocument(u)); err != nil && logger != nil {
		logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
	}
}
