// Package checkout creates payment provider preferences for a cart.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/garrettladley/storefront/internal/client/payment"
	"github.com/garrettladley/storefront/internal/xslog"
)

var ErrProvider = errors.New("payment provider rejected preference")

type Item struct {
	ID        string  `json:"id"`
	Title     string  `json:"title" validate:"required,max=256"`
	Quantity  int     `json:"quantity" validate:"gt=0,lte=100"`
	UnitPrice float64 `json:"unit_price" validate:"gt=0"`
}

type PreferenceRequest struct {
	Items             []Item `json:"items" validate:"required,min=1,max=50,dive"`
	PayerEmail        string `json:"payer_email" validate:"required,email"`
	PayerName         string `json:"payer_name" validate:"max=256"`
	ExternalReference string `json:"external_reference" validate:"max=256"`
}

// Validate enforces rules struct tags cannot express.
func (r PreferenceRequest) Validate() map[string]string {
	var total float64
	for _, item := range r.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return map[string]string{"items": "total is out of range"}
	}
	return nil
}

type PreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type Creator interface {
	CreatePreference(ctx context.Context, req payment.PreferenceRequest) (*payment.Preference, error)
}

type Config struct {
	Currency        string
	SuccessURL      string
	FailureURL      string
	PendingURL      string
	NotificationURL string
}

type Service struct {
	creator Creator
	cfg     Config
}

func NewService(creator Creator, cfg Config) *Service {
	return &Service{creator: creator, cfg: cfg}
}

// CreatePreference expects req to be validated already.
func (s *Service) CreatePreference(ctx context.Context, req PreferenceRequest) (PreferenceResponse, error) {
	items := make([]payment.PreferenceItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = payment.PreferenceItem{
			ID:         item.ID,
			Title:      item.Title,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: s.cfg.Currency,
		}
	}

	preq := payment.PreferenceRequest{
		Items:             items,
		Payer:             &payment.Payer{Email: req.PayerEmail, Name: req.PayerName},
		ExternalReference: req.ExternalReference,
		NotificationURL:   s.cfg.NotificationURL,
	}
	if s.cfg.SuccessURL != "" || s.cfg.FailureURL != "" || s.cfg.PendingURL != "" {
		preq.BackURLs = &payment.BackURLs{
			Success: s.cfg.SuccessURL,
			Failure: s.cfg.FailureURL,
			Pending: s.cfg.PendingURL,
		}
		if s.cfg.SuccessURL != "" {
			preq.AutoReturn = "approved"
		}
	}

	pref, err := s.creator.CreatePreference(ctx, preq)
	if err != nil {
		return PreferenceResponse{}, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	xslog.FromContext(ctx).InfoContext(ctx, "created checkout preference",
		xslog.PreferenceID(pref.ID),
		xslog.Count(len(items)),
	)

	return PreferenceResponse{
		ID:               pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}
