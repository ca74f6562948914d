package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/resumeforge/api/internal/domain/entity"
	"github.com/resumeforge/api/internal/domain/repository"
)

type PaymentRepository struct {
	db DB
}

func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id::text, user_id::text, order_id, payment_id, signature, amount, currency,
	plan_type, receipt, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*entity.Payment, error) {
	var (
		p              entity.Payment
		userID, status string
	)
	if err := row.Scan(&p.ID, &userID, &p.OrderID, &p.PaymentID, &p.Signature, &p.Amount, &p.Currency,
		&p.PlanType, &p.Receipt, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	p.UserID = entity.UserID(userID)
	p.Status = entity.PaymentStatus(status)
	return &p, nil
}

func (r *PaymentRepository) Create(ctx context.Context, p *entity.Payment) error {
	if p.Status == "" {
		p.Status = entity.PaymentCreated
	}
	row := r.db.QueryRow(ctx, `
		INSERT INTO payments (user_id, order_id, amount, currency, plan_type, receipt, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text, created_at, updated_at
	`, p.UserID.String(), p.OrderID, p.Amount, p.Currency, p.PlanType, p.Receipt, string(p.Status))

	return mapErr(row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt))
}

func (r *PaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*entity.Payment, error) {
	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID entity.UserID) ([]*entity.Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkPaidAndUpgrade runs the created->paid transition and the owner's plan change in one
// transaction. The status predicate on the payment update makes concurrent calls serialize on
// the row lock; only the first one sees status = 'created'.
func (r *PaymentRepository) MarkPaidAndUpgrade(ctx context.Context, orderID, paymentID, signature string) (*entity.Payment, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	// no-op once committed
	defer func() { _ = tx.Rollback(ctx) }()

	p, applied, err := markPaid(ctx, tx, orderID, paymentID, signature)
	if err != nil || !applied {
		return p, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}
	return p, true, nil
}

func markPaid(ctx context.Context, tx pgx.Tx, orderID, paymentID, signature string) (*entity.Payment, bool, error) {
	p, err := scanPayment(tx.QueryRow(ctx, `
		UPDATE payments
		SET status = 'paid', payment_id = $2, signature = $3, updated_at = now()
		WHERE order_id = $1 AND status = 'created'
		RETURNING `+paymentColumns, orderID, paymentID, signature))
	if errors.Is(err, repository.ErrNotFound) {
		// unknown order, or already paid
		cur, gerr := scanPayment(tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
		if gerr != nil {
			return nil, false, gerr
		}
		return cur, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	res, err := tx.Exec(ctx, `
		UPDATE users SET subscription_plan = $2, updated_at = now() WHERE id = $1
	`, p.UserID.String(), p.PlanType)
	if err != nil {
		return nil, false, mapErr(err)
	}
	if res.RowsAffected() == 0 {
		return nil, false, repository.ErrNotFound
	}
	return p, true, nil
}

var _ repository.PaymentRepository = (*PaymentRepository)(nil)
