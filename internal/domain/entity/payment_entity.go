package entity

import "time"

type PaymentStatus string

const (
	PaymentCreated PaymentStatus = "created"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment records one gateway order. Amount, currency, plan and receipt are fixed at creation;
// Status only moves from created to paid.
type Payment struct {
	ID        string        `json:"id"`
	UserID    UserID        `json:"user_id"`
	OrderID   string        `json:"order_id"`
	PaymentID *string       `json:"payment_id,omitempty"`
	Signature *string       `json:"-"`
	Amount    int64         `json:"amount"`
	Currency  string        `json:"currency"`
	PlanType  string        `json:"plan_type"`
	Receipt   string        `json:"receipt"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (p *Payment) IsPaid() bool { return p.Status == PaymentPaid }
