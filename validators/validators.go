// Package validators holds the shared struct validator; per-area request validators live in subpackages.
package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Struct validates s and returns every violated rule keyed by field, or nil when s is valid.
func Struct(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return map[string]string{"request": err.Error()}
	}

	out := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required!", label)
	case "email":
		return "Invalid email!"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long!", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long!", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s!", label, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id!", label)
	default:
		return fmt.Sprintf("%s is invalid!", label)
	}
}

// humanize turns a camelCase field name into a sentence-case label: firstName -> First name.
func humanize(field string) string {
	var b strings.Builder
	for i, r := range field {
		if i == 0 {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		if unicode.IsUpper(r) {
			b.WriteRune(' ')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
