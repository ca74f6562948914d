package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/internal/application"
	"github.com/resumeforge/api/pkg/response"
)

// writeError maps service errors to a status and a client-safe message.
// Unknown errors are logged and answered with a generic 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := http.StatusInternalServerError, "internal server error"
	switch {
	case errors.Is(err, application.ErrConflict):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, application.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, application.ErrExpired):
		status, msg = http.StatusGone, "verification token expired"
	case errors.Is(err, application.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, application.ErrEmailNotVerified):
		status, msg = http.StatusForbidden, "email not verified"
	case errors.Is(err, application.ErrAlreadyVerified):
		status, msg = http.StatusConflict, "email already verified"
	case errors.Is(err, application.ErrInvalidPlan):
		status, msg = http.StatusBadRequest, "invalid plan type"
	case errors.Is(err, application.ErrUnsupportedMedia):
		status, msg = http.StatusUnsupportedMediaType, "only image uploads are accepted"
	case errors.Is(err, application.ErrUpstream):
		status, msg = http.StatusBadGateway, "upstream service unavailable"
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
	}
	response.Fail(c, status, msg, nil)
}

func invalidPayload(c *gin.Context, details any) {
	response.Fail(c, http.StatusBadRequest, "invalid payload", details)
}
