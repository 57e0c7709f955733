package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garrettladley/storefront/internal/metrics"
	"github.com/garrettladley/storefront/internal/storage"
	"github.com/garrettladley/storefront/internal/xslog"
)

type Processor struct {
	secret   string
	provider Provider
	orders   storage.OrderStore
	metrics  *metrics.Webhook
	now      func() time.Time
}

var _ Service = (*Processor)(nil)

type Option func(*Processor)

func WithMetrics(m *metrics.Webhook) Option {
	return func(p *Processor) { p.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// NewProcessor builds a processor that verifies signatures with secret, the
// server-held webhook secret.
func NewProcessor(secret string, provider Provider, orders storage.OrderStore, opts ...Option) *Processor {
	p := &Processor{
		secret:   secret,
		provider: provider,
		orders:   orders,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) ProcessWebhook(ctx context.Context, req ProcessRequest) (result Result, err error) {
	start := time.Now()
	notificationType := NotificationTypeUnknown
	defer func() {
		p.metrics.ObserveNotification(notificationType.String(), outcome(err), time.Since(start))
	}()

	if req.RequestID != "" {
		ctx = xslog.WithAttrs(ctx, xslog.DeliveryID(req.RequestID))
	}

	if !VerifySignature(req.Body, req.Signature, p.secret) {
		return Result{}, ErrInvalidSignature
	}

	n, err := ParseNotification(req.Body)
	if err != nil {
		return Result{}, err
	}
	notificationType = n.Type

	result, err = p.ProcessNotification(ctx, n)
	if err != nil {
		return Result{}, err
	}

	p.ReconcileOrder(ctx, result)
	return result, nil
}

// ProcessNotification dispatches a parsed notification. It has no side
// effects beyond the provider lookup for payment notifications.
func (p *Processor) ProcessNotification(ctx context.Context, n Notification) (Result, error) {
	if n.RawType == "" || n.ResourceID == "" {
		return Result{}, fmt.Errorf("%w: type and data.id are required", ErrInvalidPayload)
	}

	logger := xslog.FromContext(ctx).With(
		xslog.NotificationType(n.RawType),
		xslog.ResourceID(n.ResourceID),
	)

	result := Result{Type: n.Type, RawType: n.RawType, ResourceID: n.ResourceID}

	switch n.Type {
	case NotificationTypePayment:
		record, err := p.provider.GetPaymentRecord(ctx, n.ResourceID)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrUpstreamFailure, err)
		}
		if record == nil {
			return Result{}, fmt.Errorf("%w: no payment record for %s", ErrUpstreamFailure, n.ResourceID)
		}
		result.Payment = record
		logger.InfoContext(ctx, "fetched payment record", xslog.PaymentStatus(record.Status))
		return result, nil

	case NotificationTypePlan, NotificationTypeSubscription, NotificationTypeInvoice:
		logger.InfoContext(ctx, "acknowledged notification")
		return result, nil

	case NotificationTypeUnknown:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownNotificationType, n.RawType)
	}

	return Result{}, fmt.Errorf("%w: %q", ErrUnknownNotificationType, n.RawType)
}

// ReconcileOrder applies a payment result onto the order store. It only acts
// when the result carries both a payment id and a status, and it never
// returns an error: failures are logged and counted.
func (p *Processor) ReconcileOrder(ctx context.Context, result Result) {
	paymentID, status := result.PaymentID(), result.PaymentStatus()
	if paymentID == "" || status == "" {
		return
	}

	logger := xslog.FromContext(ctx).With(
		xslog.PaymentID(paymentID),
		xslog.PaymentStatus(status),
	)

	n, err := p.orders.UpdatePaymentStatus(ctx, storage.OrderStatusUpdate{
		PaymentID:     paymentID,
		PaymentStatus: status,
		UpdatedAt:     p.now(),
	})
	if err != nil {
		p.metrics.ReconcileFailed()
		logger.ErrorContext(ctx, "failed to reconcile order", xslog.Error(err))
		return
	}
	if n == 0 {
		logger.WarnContext(ctx, "no order matched payment")
		return
	}

	logger.InfoContext(ctx, "reconciled order", xslog.Count(int(n)))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrUnknownNotificationType):
		return "unknown_type"
	case errors.Is(err, ErrUpstreamFailure):
		return "upstream_failure"
	default:
		return "error"
	}
}
