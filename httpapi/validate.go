package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const passwordSpecials = "!@#$%^&*"

// validate checks request bodies against their `validate` tags. Field names in
// messages are the JSON names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("password", strongPassword); err != nil {
		panic(err)
	}
	return v
}

// strongPassword requires an ASCII letter, a digit and one of passwordSpecials.
// Length is left to min/max.
func strongPassword(fl validator.FieldLevel) bool {
	var letter, digit, special bool
	for _, r := range fl.Field().String() {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return letter && digit && special
}

// trimmer is implemented by bodies whose text fields are trimmed before validation.
type trimmer interface {
	trim()
}

// bind decodes and validates a JSON body, writing the 400 itself on failure.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeStatus(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	if t, ok := dst.(trimmer); ok {
		t.trim()
	}
	if err := validate.Struct(dst); err != nil {
		writeStatus(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "password":
		return fe.Field() + " needs a letter, a digit and one of " + passwordSpecials
	default:
		return fe.Field() + " is invalid"
	}
}
