// internal/app/system/inputval/inputval.go
package inputval

import (
	"net/mail"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	return v
}

// Struct validates a tagged struct and returns a field->message map
// suitable for a 422 response body. Returns nil when the value is valid.
func Struct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": "invalid input"}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fieldName(fe)] = message(fe)
	}
	return out
}

// fieldName lowercases the struct field so error keys match the JSON
// wire names (request structs use lower_snake or lowercase json tags).
func fieldName(fe validator.FieldError) string {
	return strings.ToLower(fe.Field())
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// IsValidEmail reports whether s is a plain RFC 5322 address.
// Display-name forms ("Pat <pat@example.com>") are rejected: callers
// store and fold the bare address only.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s
}
