package validator

import (
	"errors"
	"reflect"
	"strings"

	playground "github.com/go-playground/validator"

	"github.com/garrettladley/storefront/internal/xerrors"
)

type Validator interface {
	// Validate validates the fields of the struct and returns a map of errors.
	// returns nil if no errors are found
	Validate() map[string]string
}

var validate = newValidate()

func newValidate() *playground.Validate {
	v := playground.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks the `validate` struct tags of v and, if v implements
// Validator, its own rules. Field keys use the json names, dotted for nested
// fields. Returns nil when v is valid.
func Validate(v any) *xerrors.Error {
	fields := make(map[string]string)

	if err := validate.Struct(v); err != nil {
		var verrs playground.ValidationErrors
		if !errors.As(err, &verrs) {
			return xerrors.BadRequest(xerrors.WithCause(err))
		}
		for _, fe := range verrs {
			fields[fieldKey(fe.Namespace())] = message(fe)
		}
	}

	if custom, ok := v.(Validator); ok {
		for k, msg := range custom.Validate() {
			if _, exists := fields[k]; !exists {
				fields[k] = msg
			}
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return xerrors.Validation(fields)
}

// fieldKey drops the root struct name from a namespace such as
// "request.items[0].title".
func fieldKey(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
