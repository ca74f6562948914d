package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/internal/application"
	"github.com/resumeforge/api/internal/container"
	esinfra "github.com/resumeforge/api/internal/infrastructure/elasticsearch"
	"github.com/resumeforge/api/internal/infrastructure/memory"
	pginfra "github.com/resumeforge/api/internal/infrastructure/postgres"
	"github.com/resumeforge/api/internal/infrastructure/storage"
	"github.com/resumeforge/api/internal/interface/middleware"
	"github.com/resumeforge/api/internal/router"
	"github.com/resumeforge/api/pkg/helpers"
	"github.com/resumeforge/api/pkg/mailer"
	"github.com/resumeforge/api/pkg/metrics"
	"github.com/resumeforge/api/pkg/payment"
	"github.com/resumeforge/api/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()
	c := &container.Container{
		Config: cfg,
		Logger: logger,
		JWT:    helpers.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
	}
	if cfg.MetricsEnabled {
		c.Metrics = metrics.New("resumeforge")
	}

	// Accounts and payments
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		c.Users, c.Payments = store.Users(), store.Payments()
	default:
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			logger.Fatalf("migration failed: %v", err)
		}
		c.Users, c.Payments = pginfra.NewUserRepository(pool), pginfra.NewPaymentRepository(pool)
	}

	// Redis backs the rate limiters only; when it is down they fail open
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()
	c.Redis = rdb

	c.Gateway = payment.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret, cfg.GatewayTimeout)

	notifier, closeNotifier := buildNotifier(cfg, logger)
	defer closeNotifier()
	c.Notifier = notifier

	// Optional collaborators
	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			logger.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		up, err := storage.NewGCSUploader(gcsClient, cfg.GCSBucket)
		if err != nil {
			logger.Fatalf("gcs uploader: %v", err)
		}
		c.Uploader = up
	} else {
		logger.Warn("GCS_BUCKET not set, image upload disabled")
	}
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch unavailable, user search disabled")
		} else {
			c.Indexer = esinfra.NewUserIndexer(es, cfg.ESUsersIndex)
		}
	}

	// Gin engine and global middleware
	r := gin.New()
	// client address resolution is left to middleware.RealIP
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Fatalf("trusted proxies: %v", err)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP(cfg.Env != "development"))
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Authenticate(c.JWT, c.Users, logger))

	reg := router.NewRegistry(r)
	router.InitModules(reg, c)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}

// buildNotifier picks the verification mail transport from NOTIFY_MODE. MAIL_SEND_ENABLED=false
// forces the log notifier. The returned func releases the transport.
func buildNotifier(cfg *config.Config, logger *logrus.Logger) (application.Notifier, func()) {
	mode := cfg.NotifyMode
	if !cfg.MailSendEnabled {
		mode = "log"
	}
	switch mode {
	case "direct":
		if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
			logger.Fatal("NOTIFY_MODE=direct requires MAILGUN_DOMAIN, MAILGUN_API_KEY and MAILGUN_SENDER")
		}
		mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
		return mailer.NewDirectNotifier(mg, cfg), func() {}
	case "queue":
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.Fatalf("rabbitmq: %v", err)
		}
		return mailer.NewQueueNotifier(pub, cfg), pub.Close
	default:
		logger.Warn("verification mail is logged, not sent")
		return mailer.NewLogNotifier(logger), func() {}
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// golang-migrate needs database/sql, opened through the pgx stdlib driver
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
