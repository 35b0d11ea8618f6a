// Package payment talks to the payment provider and checks the signatures
// it hands back to the client after checkout.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	razorpay "github.com/razorpay/razorpay-go"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
)

// Order is a provider-side order awaiting payment.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
	Status   string `json:"status,omitempty"`
}

// Provider creates orders with an external payment gateway.
type Provider interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error)
	KeyID() string
	Secret() string
}

// ToMinor converts a major-unit amount (e.g. rupees) into minor units.
func ToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" keyed by secret.
func Sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches Sign(orderID,
// paymentID, secret). The comparison is constant time.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}
	expected := Sign(orderID, paymentID, secret)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// RazorpayProvider creates orders through razorpay-go.
type RazorpayProvider struct {
	client *razorpay.Client
	keyID  string
	secret string
}

// NewRazorpay returns a provider for the key pair. It returns nil when
// either half is missing.
func NewRazorpay(keyID, secret string) *RazorpayProvider {
	if keyID == "" || secret == "" {
		return nil
	}
	return &RazorpayProvider{client: razorpay.NewClient(keyID, secret), keyID: keyID, secret: secret}
}

// KeyID returns the public key id.
func (p *RazorpayProvider) KeyID() string  { return p.keyID }
// Secret returns the key secret used to sign checkouts.
func (p *RazorpayProvider) Secret() string { return p.secret }

// CreateOrder posts a new order. The SDK call is not context aware, so it
// runs in a goroutine and the caller stops waiting when ctx is done.
func (p *RazorpayProvider) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (Order, error) {
	type result struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, err := p.client.Order.Create(map[string]interface{}{
			"amount":   amountMinor,
			"currency": currency,
			"receipt":  receipt,
		}, nil)
		done <- result{body, err}
	}()

	select {
	case <-ctx.Done():
		return Order{}, apperr.Upstream("payment provider timed out", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return Order{}, apperr.Upstream("payment provider rejected the order", r.err)
		}
		return orderFromBody(r.body, amountMinor, currency, receipt)
	}
}

func orderFromBody(body map[string]interface{}, amount int64, currency, receipt string) (Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return Order{}, apperr.Upstream("payment provider returned no order id", fmt.Errorf("body: %v", body))
	}
	o := Order{ID: id, Amount: amount, Currency: currency, Receipt: receipt}
	if v, ok := body["amount"].(float64); ok {
		o.Amount = int64(v)
	}
	if v, ok := body["currency"].(string); ok && v != "" {
		o.Currency = v
	}
	if v, ok := body["status"].(string); ok {
		o.Status = v
	}
	return o, nil
}

// Disabled is used when no key pair is configured. Orders fail as an
// upstream error; signatures never verify.
type Disabled struct{}

// CreateOrder always fails with an upstream error.
func (Disabled) CreateOrder(context.Context, int64, string, string) (Order, error) {
	return Order{}, apperr.Upstream("payment provider is not configured", nil)
}
// KeyID is empty.
func (Disabled) KeyID() string  { return "" }
// Secret is empty.
func (Disabled) Secret() string { return "" }

// New picks the Razorpay provider when both keys are set.
func New(keyID, secret string) Provider {
	if p := NewRazorpay(keyID, secret); p != nil {
		return p
	}
	return Disabled{}
}
