package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/internal/container"
	"github.com/resumeforge/api/internal/infrastructure/memory"
	"github.com/resumeforge/api/internal/interface/middleware"
	"github.com/resumeforge/api/pkg/helpers"
	"github.com/resumeforge/api/pkg/mailer"
	"github.com/resumeforge/api/pkg/metrics"
	"github.com/resumeforge/api/pkg/payment"
)

func init() { gin.SetMode(gin.TestMode) }

func newTestContainer(t *testing.T, env string) *container.Container {
	t.Helper()
	mr := miniredis.RunT(t)
	store := memory.NewStore()
	logger := helpers.NewDiscardLogger()
	cfg := &config.Config{Env: env, MetricsEnabled: true, RazorpayKeyID: "rzp_test", NotifyTimeout: time.Second}
	return &container.Container{
		Config:   cfg,
		Logger:   logger,
		Redis:    helpers.NewRedisClient(mr.Addr(), "", 0),
		JWT:      helpers.NewJWTManager("secret", time.Hour),
		Metrics:  metrics.New("test"),
		Users:    store.Users(),
		Payments: store.Payments(),
		Notifier: mailer.NewLogNotifier(logger),
		Gateway:  payment.NewRazorpay("rzp_test", "secret", time.Second),
	}
}

func newTestEngine(c *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP(false), middleware.Authenticate(c.JWT, c.Users, c.Logger))
	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

func TestInitModules_Routes(t *testing.T) {
	r := newTestEngine(newTestContainer(t, "production"))

	got := map[string]bool{}
	for _, ri := range r.Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"POST /api/auth/register",
		"GET /api/auth/verify-email",
		"POST /api/auth/resend-verification",
		"POST /api/auth/login",
		"POST /api/auth/upload-image",
		"GET /api/auth/profile",
		"PUT /api/auth/profile",
		"GET /api/users/search",
		"POST /api/payment/create-order",
		"POST /api/payment/verify",
		"GET /api/payment/history",
		"GET /api/payment/order/:orderId",
		"GET /metrics",
	} {
		assert.True(t, got[want], want)
	}
}

func TestInitModules_ProtectedRoutesRequireAuth(t *testing.T) {
	r := newTestEngine(newTestContainer(t, "production"))

	for _, path := range []string{"/api/auth/profile", "/api/users/search?q=a", "/api/payment/history", "/api/payment/order/x"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestInitModules_LoginIsRateLimited(t *testing.T) {
	r := newTestEngine(newTestContainer(t, "production"))

	var last int
	for i := 0; i < 11; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@x.io","password":"secret1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestInitModules_MetricsExposeDomainCounters(t *testing.T) {
	c := newTestContainer(t, "production")
	r := newTestEngine(c)

	_, err := c.UserService().Login(context.Background(), "ghost@x.io", "secret1")
	require.Error(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_logins_total{outcome="invalid"} 1`)
}
