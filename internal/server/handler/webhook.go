package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/garrettladley/storefront/internal/service/webhook"
	"github.com/garrettladley/storefront/internal/xerrors"
	"github.com/garrettladley/storefront/internal/xhttp"
	"github.com/garrettladley/storefront/internal/xslog"
)

const maxWebhookBodyBytes = 1 << 20

type Webhook struct {
	service webhook.Service
	now     func() time.Time
}

func NewWebhook(service webhook.Service) *Webhook {
	return &Webhook{service: service, now: time.Now}
}

type webhookAck struct {
	Success bool `json:"success"`
}

type webhookStatus struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleWebhook handles POST /api/webhooks/payment requests.
func (h *Webhook) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		logger.ErrorContext(ctx, "failed to read webhook body", xslog.Error(err))
		xerrors.WriteError(ctx, w, xerrors.Internal(xerrors.WithMessage("failed to read request body"), xerrors.WithCause(err)))
		return
	}

	req := webhook.ProcessRequest{
		Body:      body,
		Signature: r.Header.Get(xhttp.XSignature),
		RequestID: r.Header.Get(xhttp.XRequestID),
	}

	if _, err := h.service.ProcessWebhook(ctx, req); err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			xerrors.WriteError(ctx, w, xerrors.Unauthorized(xerrors.WithMessage("Invalid signature"), xerrors.WithCode("invalid_signature")))
			return
		}

		message, code := describeFailure(err)
		xerrors.WriteError(ctx, w, xerrors.Internal(xerrors.WithMessage(message), xerrors.WithCode(code), xerrors.WithCause(err)))
		return
	}

	xhttp.WriteOK(w, webhookAck{Success: true})
}

// HandleStatus handles GET /api/webhooks/payment as a liveness check for the
// provider's dashboard.
func (h *Webhook) HandleStatus(w http.ResponseWriter, _ *http.Request) {
	xhttp.WriteOK(w, webhookStatus{
		Message:   "payment webhook endpoint is active",
		Timestamp: h.now().UTC(),
	})
}

func describeFailure(err error) (message, code string) {
	switch {
	case errors.Is(err, webhook.ErrInvalidPayload):
		return "Invalid notification payload", "invalid_payload"
	case errors.Is(err, webhook.ErrUnknownNotificationType):
		return "Unknown notification type", "unknown_notification_type"
	case errors.Is(err, webhook.ErrUpstreamFailure):
		return "Failed to fetch payment", "payment_lookup_failed"
	default:
		return "Webhook processing failed", "webhook_failed"
	}
}
