package handler

import (
	"context"
	"net/http"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/storefront/internal/service/checkout"
	"github.com/garrettladley/storefront/internal/validator"
	"github.com/garrettladley/storefront/internal/xerrors"
	"github.com/garrettladley/storefront/internal/xhttp"
)

const maxCheckoutBodyBytes = 64 << 10

type PreferenceCreator interface {
	CreatePreference(ctx context.Context, req checkout.PreferenceRequest) (checkout.PreferenceResponse, error)
}

type Checkout struct {
	service PreferenceCreator
}

func NewCheckout(service PreferenceCreator) *Checkout {
	return &Checkout{service: service}
}

// HandleCreatePreference handles POST /api/checkout/preference requests.
func (h *Checkout) HandleCreatePreference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkout.PreferenceRequest
	dec := go_json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCheckoutBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		xerrors.WriteError(ctx, w, xerrors.BadRequest(xerrors.WithMessage("invalid request body"), xerrors.WithCause(err)))
		return
	}

	if verr := validator.Validate(req); verr != nil {
		xerrors.WriteError(ctx, w, verr)
		return
	}

	resp, err := h.service.CreatePreference(ctx, req)
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.BadGateway(xerrors.WithMessage("failed to create payment preference"), xerrors.WithCause(err)))
		return
	}

	xhttp.WriteJSON(w, http.StatusCreated, resp)
}
