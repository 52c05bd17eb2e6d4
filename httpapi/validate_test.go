package httpapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignUpBodyValidation(t *testing.T) {
	valid := signUpBody{Name: "Bob", Email: "bob@example.com", Password: "s3cret!x"}

	cases := []struct {
		name string
		edit func(*signUpBody)
		want string
	}{
		{"valid", func(*signUpBody) {}, ""},
		{"multibyte name", func(b *signUpBody) { b.Name = "Zoë" }, ""},
		{"short name", func(b *signUpBody) { b.Name = "B" }, "userName must be at least 2 characters"},
		{"long name", func(b *signUpBody) { b.Name = strings.Repeat("n", 21) }, "userName must be at most 20 characters"},
		{"bad email", func(b *signUpBody) { b.Email = "not-an-email" }, "userEmail must be a valid address"},
		{"missing password", func(b *signUpBody) { b.Password = "" }, "userPassword is required"},
		{"short password", func(b *signUpBody) { b.Password = "a1!" }, "userPassword must be at least 6 characters"},
		{"long password", func(b *signUpBody) { b.Password = strings.Repeat("a1!", 7) }, "userPassword must be at most 20 characters"},
		{"no special", func(b *signUpBody) { b.Password = "nospecial123" }, "userPassword needs a letter, a digit and one of !@#$%^&*"},
		{"no digit", func(b *signUpBody) { b.Password = "secret!!" }, "userPassword needs a letter, a digit and one of !@#$%^&*"},
		{"non-ascii letters only", func(b *signUpBody) { b.Password = "пароль1!" }, "userPassword needs a letter, a digit and one of !@#$%^&*"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := valid
			tc.edit(&body)
			err := validate.Struct(&body)
			if tc.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tc.want, validationMessage(err))
		})
	}
}

func TestBodiesTrimBeforeValidation(t *testing.T) {
	body := signUpBody{Name: "  Bo  ", Email: " bob@example.com\t", Password: " s3cret!x "}
	body.trim()

	assert.Equal(t, "Bo", body.Name)
	assert.Equal(t, "bob@example.com", body.Email)
	assert.Equal(t, " s3cret!x ", body.Password, "passwords are taken verbatim")
	assert.NoError(t, validate.Struct(&body))

	blank := signInBody{Email: "   ", Password: "x"}
	blank.trim()
	assert.Equal(t, "userEmail is required", validationMessage(validate.Struct(&blank)))
}

func TestValidationMessageFallback(t *testing.T) {
	assert.Equal(t, "invalid request body", validationMessage(assert.AnError))
}
