package processor

import (
	"context"
)

// Intent statuses reported by the card processor.
const (
	IntentStatusPending        = "pending"
	IntentStatusRequiresAction = "requires_action"
	IntentStatusSucceeded      = "succeeded"
	IntentStatusFailed         = "failed"
)

// Webhook event types the payment service reacts to.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.failed"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type RefundResult struct {
	ID          string
	AmountCents int64
}

// Event is a verified webhook notification from the processor.
type Event struct {
	ID          string
	Type        string
	IntentID    string
	AmountCents int64
}

// PaymentProcessor is the boundary to the external card processor. The core
// never assumes a call succeeded; failures surface as ordinary errors which
// the payment service wraps into domain.PaymentProcessorError.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, customerRef string, metadata map[string]string) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID, methodRef string) (*Intent, error)
	Refund(ctx context.Context, intentID string, amountCents int64, reason string) (*RefundResult, error)
	VerifyWebhookSignature(payload []byte, signature string) (*Event, error)
}
