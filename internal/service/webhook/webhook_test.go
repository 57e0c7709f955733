package webhook

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/storefront/internal/client/payment"
	"github.com/garrettladley/storefront/internal/storage"
)

const testSecret = "whsec_test"

type fakeProvider struct {
	mu     sync.Mutex
	calls  []string
	record *payment.Payment
	err    error
}

func (f *fakeProvider) GetPaymentRecord(_ context.Context, id string) (*payment.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	if f.err != nil {
		return nil, f.err
	}
	return f.record, nil
}

type fakeOrderStore struct {
	mu      sync.Mutex
	updates []storage.OrderStatusUpdate
	n       int64
	err     error
}

func (f *fakeOrderStore) UpdatePaymentStatus(_ context.Context, u storage.OrderStatusUpdate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	return f.n, f.err
}

var fixedNow = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func newTestProcessor(provider *fakeProvider, orders *fakeOrderStore) *Processor {
	return NewProcessor(testSecret, provider, orders, WithClock(func() time.Time { return fixedNow }))
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	bodies := [][]byte{
		[]byte(`{"type":"payment","data":{"id":"p1"}}`),
		[]byte(""),
		[]byte("\x00\xff binary"),
	}
	secrets := []string{"s", "a much longer shared secret value", testSecret}

	for _, body := range bodies {
		for _, secret := range secrets {
			sig := Sign(body, secret)
			if !VerifySignature(body, sig, secret) {
				t.Errorf("VerifySignature(%q, Sign, %q) = false, want true", body, secret)
			}

			for i := range len(body) * 8 {
				mutated := append([]byte(nil), body...)
				mutated[i/8] ^= 1 << (i % 8)
				if VerifySignature(mutated, sig, secret) {
					t.Fatalf("VerifySignature accepted body with bit %d flipped", i)
				}
			}
		}
	}
}

func TestVerifySignature_FailsClosed(t *testing.T) {
	t.Parallel()

	body := []byte(`{"type":"payment","data":{"id":"p1"}}`)

	tests := []struct {
		name      string
		signature string
		secret    string
	}{
		{name: "empty signature", signature: "", secret: testSecret},
		{name: "empty secret", signature: Sign(body, ""), secret: ""},
		{name: "not hex", signature: "zz-not-hex", secret: testSecret},
		{name: "wrong secret", signature: Sign(body, "other"), secret: testSecret},
		{name: "truncated", signature: Sign(body, testSecret)[:10], secret: testSecret},
		{name: "request id used as key", signature: Sign(body, "req-123"), secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if VerifySignature(body, tt.signature, tt.secret) {
				t.Error("VerifySignature() = true, want false")
			}
		})
	}
}

func TestProcessNotification_PaymentReconciles(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{record: &payment.Payment{ID: 1, Status: payment.StatusApproved}}
	orders := &fakeOrderStore{n: 1}
	p := newTestProcessor(provider, orders)

	body := []byte(`{"type":"payment","data":{"id":"1"}}`)
	result, err := p.ProcessWebhook(context.Background(), ProcessRequest{
		Body:      body,
		Signature: Sign(body, testSecret),
		RequestID: "req-1",
	})
	if err != nil {
		t.Fatalf("ProcessWebhook() error = %v", err)
	}
	if result.PaymentStatus() != payment.StatusApproved {
		t.Errorf("result status = %q, want approved", result.PaymentStatus())
	}

	if diff := cmp.Diff([]string{"1"}, provider.calls); diff != "" {
		t.Errorf("provider calls mismatch (-want +got):\n%s", diff)
	}

	want := []storage.OrderStatusUpdate{{PaymentID: "1", PaymentStatus: "approved", UpdatedAt: fixedNow}}
	if diff := cmp.Diff(want, orders.updates); diff != "" {
		t.Errorf("order updates mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessNotification_PaymentP1(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{record: &payment.Payment{Status: payment.StatusApproved}}
	orders := &fakeOrderStore{n: 1}
	p := newTestProcessor(provider, orders)

	result, err := p.ProcessNotification(context.Background(), Notification{
		Type:       NotificationTypePayment,
		RawType:    "payment",
		ResourceID: "p1",
	})
	if err != nil {
		t.Fatalf("ProcessNotification() error = %v", err)
	}
	if result.Payment == nil || result.Payment.Status != "approved" {
		t.Fatalf("result payment = %+v, want approved record", result.Payment)
	}

	p.ReconcileOrder(context.Background(), result)
	want := []storage.OrderStatusUpdate{{PaymentID: "p1", PaymentStatus: "approved", UpdatedAt: fixedNow}}
	if diff := cmp.Diff(want, orders.updates); diff != "" {
		t.Errorf("order updates mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileOrder_SkipsIncompleteResults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result Result
	}{
		{name: "no payment", result: Result{Type: NotificationTypeSubscription, RawType: "subscription", ResourceID: "s1"}},
		{name: "no status", result: Result{Type: NotificationTypePayment, RawType: "payment", ResourceID: "p1", Payment: &payment.Payment{ID: 1}}},
		{name: "no id", result: Result{Type: NotificationTypePayment, RawType: "payment", Payment: &payment.Payment{Status: "approved"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orders := &fakeOrderStore{}
			p := newTestProcessor(&fakeProvider{}, orders)
			p.ReconcileOrder(context.Background(), tt.result)
			if len(orders.updates) != 0 {
				t.Errorf("order updates = %d, want 0", len(orders.updates))
			}
		})
	}
}

func TestProcessNotification_Acknowledged(t *testing.T) {
	t.Parallel()

	for _, typ := range []string{"plan", "subscription", "invoice"} {
		t.Run(typ, func(t *testing.T) {
			t.Parallel()

			provider := &fakeProvider{}
			orders := &fakeOrderStore{}
			p := newTestProcessor(provider, orders)

			body := []byte(`{"type":"` + typ + `","data":{"id":"s1"}}`)
			result, err := p.ProcessWebhook(context.Background(), ProcessRequest{
				Body:      body,
				Signature: Sign(body, testSecret),
			})
			if err != nil {
				t.Fatalf("ProcessWebhook() error = %v", err)
			}

			want := Result{Type: ParseNotificationType(typ), RawType: typ, ResourceID: "s1"}
			if diff := cmp.Diff(want, result); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
			if len(provider.calls) != 0 {
				t.Errorf("provider calls = %d, want 0", len(provider.calls))
			}
			if len(orders.updates) != 0 {
				t.Errorf("order updates = %d, want 0", len(orders.updates))
			}
		})
	}
}

func TestProcessWebhook_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		body        string
		signature   func(body []byte) string
		providerErr error
		noRecord    bool
		wantErr     error
	}{
		{
			name:      "bad signature",
			body:      `{"type":"payment","data":{"id":"1"}}`,
			signature: func([]byte) string { return "deadbeef" },
			wantErr:   ErrInvalidSignature,
		},
		{
			name:    "empty notification",
			body:    `{}`,
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "missing id",
			body:    `{"type":"payment","data":{}}`,
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "malformed json",
			body:    `{"type":`,
			wantErr: ErrInvalidPayload,
		},
		{
			name:    "unknown type",
			body:    `{"type":"chargeback","data":{"id":"c1"}}`,
			wantErr: ErrUnknownNotificationType,
		},
		{
			name:        "provider failure",
			body:        `{"type":"payment","data":{"id":"1"}}`,
			providerErr: errors.New("provider timeout"),
			wantErr:     ErrUpstreamFailure,
		},
		{
			name:     "provider returns no record",
			body:     `{"type":"payment","data":{"id":"1"}}`,
			noRecord: true,
			wantErr:  ErrUpstreamFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			provider := &fakeProvider{record: &payment.Payment{ID: 1, Status: "approved"}, err: tt.providerErr}
			if tt.noRecord {
				provider.record = nil
			}
			orders := &fakeOrderStore{}
			p := newTestProcessor(provider, orders)

			body := []byte(tt.body)
			sig := Sign(body, testSecret)
			if tt.signature != nil {
				sig = tt.signature(body)
			}

			_, err := p.ProcessWebhook(context.Background(), ProcessRequest{Body: body, Signature: sig})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ProcessWebhook() error = %v, want %v", err, tt.wantErr)
			}
			if len(orders.updates) != 0 {
				t.Errorf("order updates = %d, want 0", len(orders.updates))
			}
			if errors.Is(tt.wantErr, ErrInvalidSignature) || errors.Is(tt.wantErr, ErrInvalidPayload) {
				if len(provider.calls) != 0 {
					t.Errorf("provider calls = %d, want 0", len(provider.calls))
				}
			}
		})
	}
}

func TestProcessNotification_EmptyHasNoSideEffects(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}
	orders := &fakeOrderStore{}
	p := newTestProcessor(provider, orders)

	_, err := p.ProcessNotification(context.Background(), Notification{})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("ProcessNotification() error = %v, want ErrInvalidPayload", err)
	}
	if len(provider.calls) != 0 || len(orders.updates) != 0 {
		t.Errorf("side effects: provider=%d orders=%d, want none", len(provider.calls), len(orders.updates))
	}
}

func TestProcessWebhook_ReconcileFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{record: &payment.Payment{ID: 7, Status: "rejected"}}
	orders := &fakeOrderStore{err: errors.New("database unavailable")}
	p := newTestProcessor(provider, orders)

	body := []byte(`{"type":"payment","data":{"id":7}}`)
	result, err := p.ProcessWebhook(context.Background(), ProcessRequest{Body: body, Signature: Sign(body, testSecret)})
	if err != nil {
		t.Fatalf("ProcessWebhook() error = %v, want nil", err)
	}
	if result.ResourceID != "7" {
		t.Errorf("ResourceID = %q, want 7", result.ResourceID)
	}
	if len(orders.updates) != 1 {
		t.Errorf("order updates = %d, want 1 attempt", len(orders.updates))
	}
}

func TestParseNotificationType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want NotificationType
	}{
		{"payment", NotificationTypePayment},
		{"plan", NotificationTypePlan},
		{"subscription", NotificationTypeSubscription},
		{"invoice", NotificationTypeInvoice},
		{"Payment", NotificationTypeUnknown},
		{"", NotificationTypeUnknown},
	}

	for _, tt := range tests {
		if got := ParseNotificationType(tt.in); got != tt.want {
			t.Errorf("ParseNotificationType(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.want != NotificationTypeUnknown && tt.want.String() != tt.in {
			t.Errorf("%v.String() = %q, want %q", tt.want, tt.want.String(), tt.in)
		}
	}
}
