package router

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/resumeforge/api/internal/container"
	handlers "github.com/resumeforge/api/internal/interface/http"
	"github.com/resumeforge/api/internal/interface/middleware"
	"github.com/resumeforge/api/internal/router/modules"
)

// InitModules builds handlers from c and registers their modules with the router registry.
// It is called once during startup.
func InitModules(r *Registry, c *container.Container) {
	users := c.UserService()
	payments := c.PaymentService()

	var limiter redis.Scripter
	if c.Redis != nil {
		limiter = c.Redis
	}

	auth := modules.NewAuthModule(handlers.NewAuthHandler(users, c.Logger), limiter, c.Logger)
	if c.Config.Env == "development" {
		auth.Allow = middleware.AllowPrivateIP()
	}
	r.Add(auth)
	r.Add(modules.NewUserModule(handlers.NewUserHandler(users, c.Logger), limiter, c.Logger))
	r.Add(modules.NewPaymentModule(handlers.NewPaymentHandler(payments, c.Config.RazorpayKeyID, c.Logger), limiter, c.Logger))

	if c.Config.MetricsEnabled && c.Metrics != nil {
		r.Engine.GET("/metrics", gin.WrapH(c.Metrics.Handler()))
	}
}
