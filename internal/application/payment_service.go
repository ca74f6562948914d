package application

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/resumeforge/api/config"
	"github.com/resumeforge/api/internal/domain/entity"
	repo "github.com/resumeforge/api/internal/domain/repository"
	"github.com/resumeforge/api/pkg/metrics"
)

type PaymentService struct {
	Payments repo.PaymentRepository
	Users    repo.UserRepository
	Gateway  PaymentGateway
	Notifier Notifier    // optional, plan-upgraded email
	Index    UserIndexer // optional
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics

	NotifyTimeout time.Duration

	newReceipt func(plan string) string
}

func NewPaymentService(payments repo.PaymentRepository, users repo.UserRepository, gw PaymentGateway, cfg *config.Config, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		Payments:      payments,
		Users:         users,
		Gateway:       gw,
		Logger:        logger,
		NotifyTimeout: cfg.NotifyTimeout,
		newReceipt:    receiptFor,
	}
}

// receiptFor returns "<plan>_<8 hex chars>", e.g. premium_1f3a9c0d.
func receiptFor(plan string) string {
	return strings.ToLower(plan) + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// CreateOrder registers a gateway order for a paid plan and records it as created.
// Nothing is persisted unless the gateway returned an order id.
func (s *PaymentService) CreateOrder(ctx context.Context, userID entity.UserID, planType string) (*entity.Payment, error) {
	plan, ok := entity.LookupPaidPlan(planType)
	if !ok {
		return nil, ErrInvalidPlan
	}
	if _, err := s.Users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	receipt := s.newReceipt(plan.Name)
	orderID, err := s.Gateway.CreateOrder(ctx, plan.Amount, plan.Currency, receipt)
	if err != nil {
		s.Metrics.Inc(metrics.OrdersCreated, plan.Name, "gateway_failed")
		if s.Logger != nil {
			s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "receipt": receipt}).Error("gateway create order failed")
		}
		return nil, fmt.Errorf("%w: create order: %w", ErrUpstream, err)
	}

	p := &entity.Payment{
		UserID:   userID,
		OrderID:  orderID,
		Amount:   plan.Amount,
		Currency: plan.Currency,
		PlanType: plan.Name,
		Receipt:  receipt,
		Status:   entity.PaymentCreated,
	}
	if err := s.Payments.Create(ctx, p); err != nil {
		s.Metrics.Inc(metrics.OrdersCreated, plan.Name, "store_failed")
		return nil, fmt.Errorf("create payment %s: %w", orderID, err)
	}
	s.Metrics.Inc(metrics.OrdersCreated, plan.Name, "created")
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": userID, "order_id": orderID, "plan": plan.Name}).Info("order created")
	}
	return p, nil
}

// VerifyPayment checks the checkout signature and, when genuine, marks the order paid and
// upgrades its owner in one transaction. A mismatch returns false and touches nothing.
// Repeating a verified call returns true without writing again.
func (s *PaymentService) VerifyPayment(ctx context.Context, orderID, paymentID, signature string) (bool, error) {
	expected := s.Gateway.ExpectedSignature(orderID, paymentID)
	if expected == "" || signature == "" || !hmac.Equal([]byte(expected), []byte(signature)) {
		s.Metrics.Inc(metrics.PaymentVerifications, "bad_signature")
		if s.Logger != nil {
			s.Logger.WithField("order_id", orderID).Warn("payment signature mismatch")
		}
		return false, nil
	}

	p, applied, err := s.Payments.MarkPaidAndUpgrade(ctx, orderID, paymentID, signature)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.Metrics.Inc(metrics.PaymentVerifications, "not_found")
			return false, ErrNotFound
		}
		s.Metrics.Inc(metrics.PaymentVerifications, "error")
		return false, fmt.Errorf("mark paid %s: %w", orderID, err)
	}
	if !applied {
		s.Metrics.Inc(metrics.PaymentVerifications, "already_paid")
		return true, nil
	}

	s.Metrics.Inc(metrics.PaymentVerifications, "verified")
	s.Metrics.Inc(metrics.PlanUpgrades, p.PlanType)
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": p.UserID, "order_id": orderID, "plan": p.PlanType}).Info("payment verified, plan upgraded")
	}
	s.afterUpgrade(ctx, p)
	return true, nil
}

// afterUpgrade sends the confirmation email and refreshes the directory. Both are best effort;
// the upgrade is already committed.
func (s *PaymentService) afterUpgrade(ctx context.Context, p *entity.Payment) {
	if s.Notifier == nil && s.Index == nil {
		return
	}
	u, err := s.Users.GetByID(ctx, p.UserID)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", p.UserID).Warn("load upgraded user failed")
		}
		return
	}
	indexUser(ctx, s.Index, s.Logger, u)
	if s.Notifier == nil {
		return
	}
	nctx := ctx
	if s.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		nctx, cancel = context.WithTimeout(ctx, s.NotifyTimeout)
		defer cancel()
	}
	if err := s.Notifier.SendPlanUpgraded(nctx, u.Email, u.Name, p.PlanType); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("send plan upgraded email failed")
	}
}

// GetUserPayments lists the user's payments, newest first.
func (s *PaymentService) GetUserPayments(ctx context.Context, userID entity.UserID) ([]*entity.Payment, error) {
	list, err := s.Payments.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	if list == nil {
		list = []*entity.Payment{}
	}
	return list, nil
}

// GetPaymentDetails looks a payment up by gateway order id. Callers scope it to the owner.
func (s *PaymentService) GetPaymentDetails(ctx context.Context, orderID string) (*entity.Payment, error) {
	p, err := s.Payments.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}
