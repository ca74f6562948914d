package repository

import (
	"context"

	"github.com/resumeforge/api/internal/domain/entity"
)

// PaymentRepository defines persistence for gateway orders.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*entity.Payment, error)
	// ListByUser returns the user's payments, newest first.
	ListByUser(ctx context.Context, userID entity.UserID) ([]*entity.Payment, error)
	// MarkPaidAndUpgrade moves a created payment to paid and sets the owner's subscription plan
	// to the payment's plan in one transaction. applied is false when the payment was already paid,
	// in which case nothing is written. Returns ErrNotFound for an unknown order or a missing owner.
	MarkPaidAndUpgrade(ctx context.Context, orderID, paymentID, signature string) (p *entity.Payment, applied bool, err error)
}
