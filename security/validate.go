package security

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"quizai/apperr"
)

const (
	MinPasswordLength = 8
	MinNameLength     = 3
)

const (
	msgInvalidEmail    = "Invalid email format."
	msgInvalidPassword = "Password must be at least 8 characters, include uppercase, lowercase, and a symbol."
	msgInvalidName     = "Full name must be at least 3 characters."
)

// ValidateRegistration checks signup input and returns a validation error
// listing every failing field, or nil.
func ValidateRegistration(email, password, name string) error {
	var fields []apperr.FieldError
	if !ValidEmail(email) {
		fields = append(fields, apperr.FieldError{Field: "email", Message: msgInvalidEmail})
	}
	if !ValidPassword(password) {
		fields = append(fields, apperr.FieldError{Field: "password", Message: msgInvalidPassword})
	}
	if utf8.RuneCountInString(strings.TrimSpace(name)) < MinNameLength {
		fields = append(fields, apperr.FieldError{Field: "name", Message: msgInvalidName})
	}
	if len(fields) > 0 {
		return apperr.Validation("Validation errors occurred.", fields...)
	}
	return nil
}

// ValidatePassword is the password-only check used by the reset flow.
func ValidatePassword(password string) error {
	if !ValidPassword(password) {
		return apperr.Validation("Validation errors occurred.",
			apperr.FieldError{Field: "password", Message: msgInvalidPassword})
	}
	return nil
}

// ValidEmail accepts a bare address only; display-name forms are rejected.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return strings.EqualFold(addr.Address, email)
}

func ValidPassword(password string) bool {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return false
	}
	var hasUpper, hasLower, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasSymbol
}
