package payment

import "time"

// Payment is the read-only payment record. Only ID and Status drive
// reconciliation; the rest is kept for logging and the webhook result.
type Payment struct {
	ID                int64      `json:"id"`
	Status            string     `json:"status"`
	StatusDetail      string     `json:"status_detail,omitempty"`
	ExternalReference string     `json:"external_reference,omitempty"`
	TransactionAmount float64    `json:"transaction_amount,omitempty"`
	CurrencyID        string     `json:"currency_id,omitempty"`
	DateApproved      *time.Time `json:"date_approved,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusApproved   = "approved"
	StatusAuthorized = "authorized"
	StatusInProcess  = "in_process"
	StatusRejected   = "rejected"
	StatusCancelled  = "cancelled"
	StatusRefunded   = "refunded"
)

type PreferenceItem struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

type Payer struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type BackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	Payer             *Payer           `json:"payer,omitempty"`
	ExternalReference string           `json:"external_reference,omitempty"`
	BackURLs          *BackURLs        `json:"back_urls,omitempty"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	NotificationURL   string           `json:"notification_url,omitempty"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}
