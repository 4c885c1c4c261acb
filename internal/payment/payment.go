package payment

import (
	"context"
	"time"
)

// SessionRequest tells the processor what to charge: exactly the order's
// stored total, tagged with the order id so the completion webhook can find
// it again.
type SessionRequest struct {
	OrderID        string
	AmountInCents  int64
	Currency       string
	Description    string
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

// Session is the redirect target returned by the processor.
type Session struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

// Provider creates payment-collection handoffs against an external
// processor.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
}
