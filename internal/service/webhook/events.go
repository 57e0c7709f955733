package webhook

import (
	"bytes"
	"fmt"
	"strconv"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/storefront/internal/client/payment"
)

// NotificationType is the closed set of notification kinds the provider
// sends. Anything unrecognised parses to NotificationTypeUnknown.
type NotificationType uint8

const (
	NotificationTypeUnknown NotificationType = iota
	NotificationTypePayment
	NotificationTypePlan
	NotificationTypeSubscription
	NotificationTypeInvoice
)

func ParseNotificationType(s string) NotificationType {
	switch s {
	case "payment":
		return NotificationTypePayment
	case "plan":
		return NotificationTypePlan
	case "subscription":
		return NotificationTypeSubscription
	case "invoice":
		return NotificationTypeInvoice
	default:
		return NotificationTypeUnknown
	}
}

func (t NotificationType) String() string {
	switch t {
	case NotificationTypePayment:
		return "payment"
	case NotificationTypePlan:
		return "plan"
	case NotificationTypeSubscription:
		return "subscription"
	case NotificationTypeInvoice:
		return "invoice"
	case NotificationTypeUnknown:
		return "unknown"
	}
	return "unknown"
}

// Notification is a parsed webhook body.
type Notification struct {
	Type NotificationType
	// RawType is the type string as sent, kept for logging unknown types.
	RawType    string
	ResourceID string
}

// resourceID accepts data.id as either a JSON string or number.
type resourceID string

func (id *resourceID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := go_json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = resourceID(s)
		return nil
	}
	var n go_json.Number
	if err := go_json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("data.id must be a string or number: %w", err)
	}
	*id = resourceID(n.String())
	return nil
}

type rawNotification struct {
	Type string `json:"type"`
	Data *struct {
		ID resourceID `json:"id"`
	} `json:"data"`
}

// ParseNotification decodes a webhook body. A body that is not JSON returns
// an error wrapping ErrInvalidPayload; missing fields are left for
// ProcessNotification to reject.
func ParseNotification(body []byte) (Notification, error) {
	var raw rawNotification
	if err := go_json.Unmarshal(body, &raw); err != nil {
		return Notification{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	n := Notification{
		Type:    ParseNotificationType(raw.Type),
		RawType: raw.Type,
	}
	if raw.Data != nil {
		n.ResourceID = string(raw.Data.ID)
	}
	return n, nil
}

// Result is the outcome of a dispatched notification. Payment is set only
// for payment notifications.
type Result struct {
	Type       NotificationType `json:"-"`
	RawType    string           `json:"type"`
	ResourceID string           `json:"id"`
	Payment    *payment.Payment `json:"payment,omitempty"`
}

// PaymentID returns the fetched payment's id. A record without an id falls
// back to the resource id it was fetched by. Non-payment results return "".
func (r Result) PaymentID() string {
	if r.Payment == nil {
		return ""
	}
	if r.Payment.ID != 0 {
		return strconv.FormatInt(r.Payment.ID, 10)
	}
	return r.ResourceID
}

// PaymentStatus returns the fetched payment's status, or "" when there is
// none.
func (r Result) PaymentStatus() string {
	if r.Payment == nil {
		return ""
	}
	return r.Payment.Status
}
