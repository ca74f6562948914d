package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/internal/domain/entity"
	"github.com/resumeforge/api/internal/domain/repository"
	"github.com/resumeforge/api/pkg/response"
)

const CtxUserIDKey = "userID"

type ctxKey struct{}

// TokenDecoder turns a bearer credential into the account id it was issued for.
type TokenDecoder interface {
	Decode(token string) (string, error)
}

// AccountLookup resolves an account id; repository.UserRepository satisfies it.
type AccountLookup interface {
	GetByID(ctx context.Context, id entity.UserID) (*entity.User, error)
}

// Authenticate resolves the caller from "Authorization: Bearer <token>".
// It never rejects: a missing, malformed, invalid or orphaned credential leaves the request
// anonymous, and RequireAuth decides whether that is acceptable.
func Authenticate(tokens TokenDecoder, accounts AccountLookup, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		uid, err := tokens.Decode(raw)
		if err != nil {
			if logger != nil {
				logger.WithField("request_id", c.GetString("request_id")).Debug("bearer credential rejected")
			}
			c.Next()
			return
		}

		ctx := c.Request.Context()
		u, err := accounts.GetByID(ctx, entity.UserID(uid))
		if err != nil {
			if logger != nil && !errors.Is(err, repository.ErrNotFound) {
				logger.WithError(err).WithField("user_id", uid).Warn("account lookup failed during authentication")
			}
			c.Next()
			return
		}

		c.Set(CtxUserIDKey, u.ID)
		c.Request = c.Request.WithContext(context.WithValue(ctx, ctxKey{}, u.ID))
		c.Next()
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUserID(c); !ok {
			response.Fail(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated account of the request, if any.
func CurrentUserID(c *gin.Context) (entity.UserID, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(entity.UserID)
	return id, ok && id != ""
}

// UserIDFromContext is CurrentUserID for code that only has the request context.
func UserIDFromContext(ctx context.Context) (entity.UserID, bool) {
	id, ok := ctx.Value(ctxKey{}).(entity.UserID)
	return id, ok && id != ""
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
