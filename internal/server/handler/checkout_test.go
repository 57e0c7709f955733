package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/storefront/internal/service/checkout"
)

type fakeCheckout struct {
	calls int
	err   error
}

func (f *fakeCheckout) CreatePreference(context.Context, checkout.PreferenceRequest) (checkout.PreferenceResponse, error) {
	f.calls++
	if f.err != nil {
		return checkout.PreferenceResponse{}, f.err
	}
	return checkout.PreferenceResponse{ID: "pref-1", InitPoint: "https://pay/1"}, nil
}

func TestCheckout_HandleCreatePreference(t *testing.T) {
	t.Parallel()

	const valid = `{"items":[{"title":"Phone","quantity":1,"unit_price":10}],"payer_email":"buyer@example.com"}`

	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantBody   map[string]any
		wantCalls  int
	}{
		{
			name:       "created",
			body:       valid,
			wantStatus: http.StatusCreated,
			wantBody:   map[string]any{"id": "pref-1", "init_point": "https://pay/1", "sandbox_init_point": ""},
			wantCalls:  1,
		},
		{
			name:       "malformed",
			body:       `{"items":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   map[string]any{"error": "invalid request body"},
		},
		{
			name:       "validation",
			body:       `{"items":[],"payer_email":"nope"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody: map[string]any{
				"error": "unprocessable entity",
				"fields": map[string]any{
					"items":       "must be at least 1",
					"payer_email": "must be a valid email address",
				},
			},
		},
		{
			name:       "provider failure",
			body:       valid,
			serviceErr: errors.New("boom"),
			wantStatus: http.StatusBadGateway,
			wantBody:   map[string]any{"error": "failed to create payment preference"},
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeCheckout{err: tt.serviceErr}
			h := NewCheckout(svc)

			rec := httptest.NewRecorder()
			h.HandleCreatePreference(rec, httptest.NewRequest(http.MethodPost, "/api/checkout/preference", strings.NewReader(tt.body)))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if diff := cmp.Diff(tt.wantBody, decode(t, rec)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
			if svc.calls != tt.wantCalls {
				t.Errorf("service calls = %d, want %d", svc.calls, tt.wantCalls)
			}
		})
	}
}
