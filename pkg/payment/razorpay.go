package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
)

var ErrMissingOrderID = errors.New("gateway response has no order id")

// orderCreator is the slice of the Razorpay SDK we call; *resources.Order satisfies it.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay registers orders with the Razorpay API and recomputes checkout signatures.
type Razorpay struct {
	orders  orderCreator
	secret  []byte
	timeout time.Duration
}

func NewRazorpay(keyID, keySecret string, timeout time.Duration) *Razorpay {
	client := razorpay.NewClient(keyID, keySecret)
	return &Razorpay{orders: client.Order, secret: []byte(keySecret), timeout: timeout}
}

// CreateOrder registers an order for amount (minor units) and returns the gateway order id.
// The SDK call has no context support, so it runs on its own goroutine and is abandoned
// when ctx or the configured timeout fires.
func (r *Razorpay) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		body, err := r.orders.Create(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
		if err != nil {
			done <- result{err: err}
			return
		}
		id, _ := body["id"].(string)
		if id == "" {
			done <- result{err: ErrMissingOrderID}
			return
		}
		done <- result{id: id}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("razorpay create order: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("razorpay create order: %w", res.err)
		}
		return res.id, nil
	}
}

// ExpectedSignature is the hex HMAC-SHA256 of "orderID|paymentID" under the key secret,
// which is what Razorpay checkout hands back to the client on success.
// Without a key secret it returns "", which matches no signature.
func (r *Razorpay) ExpectedSignature(orderID, paymentID string) string {
	if len(r.secret) == 0 {
		return ""
	}
	return Sign(r.secret, orderID, paymentID)
}

func Sign(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
