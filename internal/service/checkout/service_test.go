package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/storefront/internal/client/payment"
)

type fakeCreator struct {
	got  payment.PreferenceRequest
	resp *payment.Preference
	err  error
}

func (f *fakeCreator) CreatePreference(_ context.Context, req payment.PreferenceRequest) (*payment.Preference, error) {
	f.got = req
	return f.resp, f.err
}

func TestService_CreatePreference(t *testing.T) {
	t.Parallel()

	creator := &fakeCreator{resp: &payment.Preference{ID: "pref-1", InitPoint: "https://pay/1"}}
	svc := NewService(creator, Config{
		Currency:        "ARS",
		SuccessURL:      "https://shop/checkout/success",
		NotificationURL: "https://shop/api/webhooks/payment",
	})

	got, err := svc.CreatePreference(context.Background(), PreferenceRequest{
		Items:             []Item{{ID: "sku-1", Title: "Phone", Quantity: 2, UnitPrice: 100}},
		PayerEmail:        "buyer@example.com",
		ExternalReference: "order-1",
	})
	if err != nil {
		t.Fatalf("CreatePreference() error = %v", err)
	}

	if diff := cmp.Diff(PreferenceResponse{ID: "pref-1", InitPoint: "https://pay/1"}, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}

	want := payment.PreferenceRequest{
		Items:             []payment.PreferenceItem{{ID: "sku-1", Title: "Phone", Quantity: 2, UnitPrice: 100, CurrencyID: "ARS"}},
		Payer:             &payment.Payer{Email: "buyer@example.com"},
		ExternalReference: "order-1",
		BackURLs:          &payment.BackURLs{Success: "https://shop/checkout/success"},
		AutoReturn:        "approved",
		NotificationURL:   "https://shop/api/webhooks/payment",
	}
	if diff := cmp.Diff(want, creator.got); diff != "" {
		t.Errorf("provider request mismatch (-want +got):\n%s", diff)
	}
}

func TestService_CreatePreference_ProviderError(t *testing.T) {
	t.Parallel()

	svc := NewService(&fakeCreator{err: errors.New("boom")}, Config{})
	_, err := svc.CreatePreference(context.Background(), PreferenceRequest{
		Items:      []Item{{Title: "Phone", Quantity: 1, UnitPrice: 1}},
		PayerEmail: "buyer@example.com",
	})
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("CreatePreference() error = %v, want ErrProvider", err)
	}
}
