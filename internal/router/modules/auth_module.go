package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/resumeforge/api/internal/interface/http"
	"github.com/resumeforge/api/internal/interface/middleware"
)

// AuthModule serves registration, verification, login and the caller's profile.
// Public: POST /auth/register, GET /auth/verify-email, POST /auth/resend-verification,
// POST /auth/login, POST /auth/upload-image
// Protected: GET /auth/profile, PUT /auth/profile
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   redis.Scripter
	Logger  *logrus.Logger
	Allow   middleware.AllowFunc // optional bypass for the public limiters
}

func NewAuthModule(h *handlers.AuthHandler, rdb redis.Scripter, logger *logrus.Logger) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb, Logger: logger}
}

func (m *AuthModule) limit(max int, key middleware.KeyFunc, allow middleware.AllowFunc) gin.HandlerFunc {
	return middleware.RateLimit(m.Redis, middleware.Limit{
		Max:    max,
		Window: time.Minute,
		Key:    key,
		Allow:  allow,
	}, m.Logger)
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/auth")

	g.POST("/register", m.limit(10, middleware.KeyByIPAndPath(), m.Allow), m.Handler.Register)
	g.GET("/verify-email", m.limit(30, middleware.KeyByIPAndPath(), m.Allow), m.Handler.VerifyEmail)
	g.POST("/resend-verification", m.limit(5, middleware.KeyByIPAndPath(), m.Allow), m.Handler.ResendVerification)
	g.POST("/login", m.limit(10, middleware.KeyByIP(), m.Allow), m.Handler.Login)
	// signed-in users replacing their photo are not counted against the anonymous budget
	g.POST("/upload-image", m.limit(20, middleware.KeyByIPAndPath(), middleware.AllowAuthenticated()), m.Handler.UploadImage)

	auth := g.Group("/")
	auth.Use(middleware.RequireAuth())
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.limit(60, middleware.KeyByUserID(), nil), m.Handler.UpdateProfile)
	}
}
