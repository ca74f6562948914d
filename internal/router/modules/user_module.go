package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/resumeforge/api/internal/interface/http"
	"github.com/resumeforge/api/internal/interface/middleware"
)

// UserModule exposes the account directory.
// Protected: GET /users/search
type UserModule struct {
	Handler *handlers.UserHandler
	Redis   redis.Scripter
	Logger  *logrus.Logger
}

func NewUserModule(h *handlers.UserHandler, rdb redis.Scripter, logger *logrus.Logger) *UserModule {
	return &UserModule{Handler: h, Redis: rdb, Logger: logger}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/users")
	auth.Use(
		middleware.RequireAuth(),
		middleware.RateLimit(m.Redis, middleware.Limit{Max: 120, Window: time.Minute, Key: middleware.KeyByUserID()}, m.Logger),
	)
	{
		auth.GET("/search", m.Handler.Search)
	}
}
