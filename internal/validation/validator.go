// Package validation wraps go-playground/validator with the onboarding tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"marketplace/sellerhub/internal/verification"
)

var mobilePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// FieldError is one failed rule, keyed by the JSON field path.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// FieldErrors is the set of failures of one validation run.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", fe[0].Message)
}

// Validator validates request and form structs.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the gstin, ifsc and mobile tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("gstin", func(fl validator.FieldLevel) bool {
		return verification.ValidGSTIN(fl.Field().String())
	})
	_ = v.RegisterValidation("ifsc", func(fl validator.FieldLevel) bool {
		return verification.ValidIFSC(fl.Field().String())
	})
	_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// Struct validates s. Failures are returned as FieldErrors with the field
// path prefixed by prefix when it is non-empty.
func (v *Validator) Struct(prefix string, s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe)
		if prefix != "" {
			field = prefix + "." + field
		}
		out = append(out, FieldError{Field: field, Tag: fe.Tag(), Message: message(field, fe)})
	}
	return out
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "gstin":
		return fmt.Sprintf("%s must be a 15-character GSTIN", field)
	case "ifsc":
		return fmt.Sprintf("%s must be a valid IFSC code", field)
	case "mobile":
		return fmt.Sprintf("%s must be a 10-digit mobile number", field)
	case "latitude", "longitude":
		return fmt.Sprintf("%s is out of range", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
