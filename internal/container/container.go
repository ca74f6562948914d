package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/internal/application"
	repo "github.com/resumeforge/api/internal/domain/repository"
	"github.com/resumeforge/api/pkg/helpers"
	"github.com/resumeforge/api/pkg/metrics"
)

// Container carries the components built in main so the router can wire modules from them.
// Uploader and Indexer are optional and stay nil when their backends are not configured.
type Container struct {
	Config  *config.Config
	Logger  *logrus.Logger
	Redis   *redis.Client
	JWT     *helpers.JWTManager
	Metrics *metrics.Metrics

	Users    repo.UserRepository
	Payments repo.PaymentRepository

	Notifier application.Notifier
	Gateway  application.PaymentGateway
	Uploader application.Uploader
	Indexer  application.UserIndexer
}

// UserService builds the account service over the container's collaborators.
func (c *Container) UserService() *application.UserService {
	svc := application.NewUserService(c.Users, c.JWT, c.Notifier, c.Config, c.Logger)
	svc.Uploader = c.Uploader
	svc.Index = c.Indexer
	svc.Metrics = c.Metrics
	return svc
}

// PaymentService builds the payment service. Plan-upgraded mail reuses the account notifier.
func (c *Container) PaymentService() *application.PaymentService {
	svc := application.NewPaymentService(c.Payments, c.Users, c.Gateway, c.Config, c.Logger)
	svc.Notifier = c.Notifier
	svc.Index = c.Indexer
	svc.Metrics = c.Metrics
	return svc
}
