package validator

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type item struct {
	Title    string  `json:"title" validate:"required"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Price    float64 `json:"unit_price" validate:"gt=0"`
}

type order struct {
	Email    string `json:"email" validate:"required,email"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
	Items    []item `json:"items" validate:"required,min=1,dive"`
	Coupon   string `json:"coupon"`
}

func (o order) Validate() map[string]string {
	if o.Coupon == "EXPIRED" {
		return map[string]string{"coupon": "has expired"}
	}
	return nil
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := order{
		Email: "buyer@example.com",
		Items: []item{{Title: "Phone", Quantity: 1, Price: 10}},
	}

	tests := []struct {
		name   string
		input  order
		fields map[string]string
	}{
		{
			name:  "valid",
			input: valid,
		},
		{
			name:  "missing email and items",
			input: order{},
			fields: map[string]string{
				"email": "is required",
				"items": "is required",
			},
		},
		{
			name: "nested item errors",
			input: order{
				Email:    "not-an-email",
				Currency: "ARSX",
				Items:    []item{{Quantity: 0, Price: 1}},
			},
			fields: map[string]string{
				"email":             "must be a valid email address",
				"currency":          "must have length 3",
				"items[0].title":    "is required",
				"items[0].quantity": "must be greater than 0",
			},
		},
		{
			name: "custom rule",
			input: order{
				Email:  valid.Email,
				Items:  valid.Items,
				Coupon: "EXPIRED",
			},
			fields: map[string]string{"coupon": "has expired"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(tt.input)
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if err.StatusCode != http.StatusUnprocessableEntity {
				t.Errorf("StatusCode = %d, want 422", err.StatusCode)
			}
			if diff := cmp.Diff(tt.fields, err.Validation.Fields); diff != "" {
				t.Errorf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
