package payment

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	go_json "github.com/goccy/go-json"
)

func TestClient_GetPaymentRecord(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/payments/123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Errorf("Authorization = %q, want Bearer token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":123,"status":"approved","status_detail":"accredited","currency_id":"ARS"}`)
	}))
	t.Cleanup(srv.Close)

	c := NewWithAccessToken("token", WithBaseURL(srv.URL))
	got, err := c.GetPaymentRecord(context.Background(), "123")
	if err != nil {
		t.Fatalf("GetPaymentRecord() error = %v", err)
	}

	want := &Payment{ID: 123, Status: StatusApproved, StatusDetail: "accredited", CurrencyID: "ARS"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetPaymentRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_GetPaymentRecord_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Ratelimit-Limit", "100")
		w.Header().Set("X-Ratelimit-Remaining", "0")
		w.Header().Set("X-Ratelimit-Reset", "30")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"payment not found","error":"not_found"}`)
	}))
	t.Cleanup(srv.Close)

	c := NewWithAccessToken("token", WithBaseURL(srv.URL))
	_, err := c.GetPaymentRecord(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("GetPaymentRecord() error = %v, want not found", err)
	}
}

func TestClient_CreatePreference(t *testing.T) {
	t.Parallel()

	var gotReq PreferenceRequest
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/checkout/preferences" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get(idempotencyKeyHeader)
		if err := go_json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"pref-1","init_point":"https://pay/1","sandbox_init_point":"https://sandbox/1"}`)
	}))
	t.Cleanup(srv.Close)

	c := NewWithAccessToken("token",
		WithBaseURL(srv.URL),
		WithIdempotencyKeyFunc(func() string { return "key-1" }),
	)

	req := PreferenceRequest{
		Items:             []PreferenceItem{{Title: "Phone", Quantity: 1, UnitPrice: 999.5, CurrencyID: "ARS"}},
		Payer:             &Payer{Email: "buyer@example.com"},
		ExternalReference: "order-1",
	}
	got, err := c.CreatePreference(context.Background(), req)
	if err != nil {
		t.Fatalf("CreatePreference() error = %v", err)
	}

	want := &Preference{ID: "pref-1", InitPoint: "https://pay/1", SandboxInitPoint: "https://sandbox/1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CreatePreference() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(req, gotReq); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
	if gotKey != "key-1" {
		t.Errorf("idempotency key = %q, want key-1", gotKey)
	}
}

func TestParseRateLimitHeaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		want    *RateLimitInfo
		wantErr bool
	}{
		{
			name:    "missing headers",
			headers: map[string]string{},
		},
		{
			name: "complex format",
			headers: map[string]string{
				"X-Ratelimit-Limit":     "100, 100;window=60",
				"X-Ratelimit-Remaining": "42",
				"X-Ratelimit-Reset":     "15",
			},
			want: &RateLimitInfo{Limit: 100, Remaining: 42, Reset: 15_000_000_000},
		},
		{
			name: "non-numeric",
			headers: map[string]string{
				"X-Ratelimit-Limit":     "abc",
				"X-Ratelimit-Remaining": "1",
				"X-Ratelimit-Reset":     "1",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got, err := ParseRateLimitHeaders(h)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRateLimitHeaders() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseRateLimitHeaders() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
