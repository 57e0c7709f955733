package webhook

import (
	"context"
	"errors"

	"github.com/garrettladley/storefront/internal/client/payment"
)

var (
	ErrInvalidSignature        = errors.New("invalid signature")
	ErrInvalidPayload          = errors.New("invalid payload")
	ErrUnknownNotificationType = errors.New("unknown notification type")
	ErrUpstreamFailure         = errors.New("payment provider lookup failed")
)

type ProcessRequest struct {
	Body      []byte
	Signature string
	// RequestID is the provider's x-request-id. It is only used to correlate
	// logs and never takes part in verification.
	RequestID string
}

// Provider is the slice of the payment provider the processor reads from.
type Provider interface {
	GetPaymentRecord(ctx context.Context, paymentID string) (*payment.Payment, error)
}

type Service interface {
	// ProcessWebhook verifies, parses, dispatches and reconciles a webhook,
	// in that order, stopping at the first stage that fails.
	// Returns ErrInvalidSignature if the signature does not match.
	// Returns ErrInvalidPayload for malformed JSON or a missing type or id.
	// Returns ErrUnknownNotificationType for types outside the known set.
	// Returns ErrUpstreamFailure if the payment lookup fails.
	// Reconciliation failures are logged and never returned.
	ProcessWebhook(ctx context.Context, req ProcessRequest) (Result, error)
}
