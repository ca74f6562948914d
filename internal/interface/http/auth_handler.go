package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/internal/application"
	"github.com/resumeforge/api/internal/domain/entity"
	"github.com/resumeforge/api/internal/interface/middleware"
	"github.com/resumeforge/api/pkg/response"
	"github.com/resumeforge/api/pkg/validation"
)

const maxImageBytes = 5 << 20

type AuthHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.UserService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Name            string `json:"name" binding:"required,personname"`
	Email           string `json:"email" binding:"required,email,max=254"`
	Password        string `json:"password" binding:"required,pwd"`
	ProfileImageURL string `json:"profile_image_url" binding:"omitempty,url,max=2048"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type resendRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type updateProfileRequest struct {
	Name            string `json:"name" binding:"omitempty,personname"`
	ProfileImageURL string `json:"profile_image_url" binding:"omitempty,url,max=2048"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      entity.UserView `json:"user"`
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	})
	if errors.Is(err, application.ErrUpstream) {
		response.Fail(c, http.StatusBadGateway, "account created but the verification email could not be sent; request a new one", nil)
		return
	}
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, u.View(), "registration successful, check your email to verify your account", nil)
}

// VerifyEmail GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		invalidPayload(c, map[string]string{"token": "is required"})
		return
	}
	if err := h.Svc.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, application.ErrNotFound) {
			response.Fail(c, http.StatusBadRequest, "invalid or already used verification token", nil)
			return
		}
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"verified": true}, "email verified successfully", nil)
}

// ResendVerification POST /api/auth/resend-verification {email}
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req resendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"sent": true}, "verification email sent", nil)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, loginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User.View()}, "login successful", nil)
}

// UploadImage POST /api/auth/upload-image (multipart field "image")
func (h *AuthHandler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		invalidPayload(c, map[string]string{"image": "is required"})
		return
	}
	if fh.Size > maxImageBytes {
		response.Fail(c, http.StatusRequestEntityTooLarge, "image must be at most 5 MB", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		invalidPayload(c, map[string]string{"image": "could not be read"})
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadProfileImage(c.Request.Context(), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"image_url": url}, "image uploaded", nil)
}

// GetProfile GET /api/auth/profile (auth required)
func (h *AuthHandler) GetProfile(c *gin.Context) {
	uid, _ := middleware.CurrentUserID(c)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u.View(), "profile", nil)
}

// UpdateProfile PUT /api/auth/profile (auth required)
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	uid, _ := middleware.CurrentUserID(c)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidPayload(c, validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{Name: req.Name, ProfileImageURL: req.ProfileImageURL})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u.View(), "profile updated", nil)
}
