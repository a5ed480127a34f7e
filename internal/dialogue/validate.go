package dialogue

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	minFirstNameLen = 2
	minAge          = 1
	maxAge          = 120
)

var validate = validator.New()

// InputError reports an answer rejected for Field.
type InputError struct {
	Field Field
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// ValidateFirstName trims s and requires at least two characters.
func ValidateFirstName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < minFirstNameLen {
		return "", &InputError{Field: FieldFirstName, Err: fmt.Errorf("must be at least %d characters", minFirstNameLen)}
	}
	return s, nil
}

// ValidateLastName trims s and requires it to be non-empty.
func ValidateLastName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &InputError{Field: FieldLastName, Err: fmt.Errorf("must not be empty")}
	}
	return s, nil
}

// ValidateEmail trims s and checks it is a well-formed address.
func ValidateEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := validate.Var(s, "required,email"); err != nil {
		return "", &InputError{Field: FieldEmail, Err: err}
	}
	return s, nil
}

// ValidateAge parses s as a whole number between 1 and 120.
func ValidateAge(s string) (int, error) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &InputError{Field: FieldAge, Err: err}
	}
	if err := validate.Var(age, fmt.Sprintf("min=%d,max=%d", minAge, maxAge)); err != nil {
		return 0, &InputError{Field: FieldAge, Err: err}
	}
	return age, nil
}
