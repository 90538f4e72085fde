package v1

import (
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// flattenBindingError converts a gin binding error into a single
// human-readable detail string. Field validation errors are joined by
// field name as "field: message | field: message"; everything else
// falls back to the error text.
func flattenBindingError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, snakeCase(fe.Field())+": "+validationMessage(fe))
	}
	return strings.Join(messages, " | ")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// snakeCase maps a Go struct field name to its JSON wire name,
// e.g. OldPassword -> old_password.
func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
