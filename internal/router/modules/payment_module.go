package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	handlers "github.com/resumeforge/api/internal/interface/http"
	"github.com/resumeforge/api/internal/interface/middleware"
)

// PaymentModule serves plan purchase and payment history. Every route requires a caller.
type PaymentModule struct {
	Handler *handlers.PaymentHandler
	Redis   redis.Scripter
	Logger  *logrus.Logger
}

func NewPaymentModule(h *handlers.PaymentHandler, rdb redis.Scripter, logger *logrus.Logger) *PaymentModule {
	return &PaymentModule{Handler: h, Redis: rdb, Logger: logger}
}

func (m *PaymentModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/payment")
	auth.Use(middleware.RequireAuth())
	orderLimiter := middleware.RateLimit(m.Redis, middleware.Limit{Max: 10, Window: time.Minute, Key: middleware.KeyByUserID()}, m.Logger)
	{
		auth.POST("/create-order", orderLimiter, m.Handler.CreateOrder)
		auth.POST("/verify", m.Handler.Verify)
		auth.GET("/history", m.Handler.History)
		auth.GET("/order/:orderId", m.Handler.OrderDetails)
	}
}
