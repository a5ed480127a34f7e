package dialogue

import (
	"fmt"
	"strings"

	"github.com/edgard/termbot/internal/database"
)

var skipWords = map[string]bool{
	"skip":       true,
	"/skip":      true,
	"пропустить": true,
}

// SkipLabel is the reply-keyboard button that skips a registration question.
const SkipLabel = "Skip"

// IsSkip reports whether input asks to skip the current question.
func IsSkip(input string) bool {
	return skipWords[strings.ToLower(strings.TrimSpace(input))]
}

// IsCancel reports whether input is one of words, case-insensitively.
func IsCancel(input string, words []string) bool {
	input = strings.TrimSpace(input)
	for _, w := range words {
		if strings.EqualFold(input, w) {
			return true
		}
	}
	return false
}

// StartRegistration returns a session at the first registration question.
func StartRegistration() *Session {
	return &Session{State: StateRegFirstName}
}

// Advance applies input to the current registration question. On success
// the session moves to the next question; after the last one its state is
// StateIdle and done is true, and sess.Draft holds the answers to persist.
// An *InputError leaves the session unchanged.
func Advance(sess *Session, input string) (done bool, err error) {
	skip := IsSkip(input)

	switch sess.State {
	case StateRegFirstName:
		if !skip {
			v, err := ValidateFirstName(input)
			if err != nil {
				return false, err
			}
			sess.Draft.FirstName = &v
		}
		sess.State = StateRegLastName

	case StateRegLastName:
		if !skip {
			if v, err := ValidateLastName(input); err == nil {
				sess.Draft.LastName = &v
			}
		}
		sess.State = StateRegEmail

	case StateRegEmail:
		if !skip {
			v, err := ValidateEmail(input)
			if err != nil {
				return false, err
			}
			sess.Draft.Email = &v
		}
		sess.State = StateRegAge

	case StateRegAge:
		if !skip {
			v, err := ValidateAge(input)
			if err != nil {
				return false, err
			}
			sess.Draft.Age = &v
		}
		sess.State = StateIdle
		return true, nil

	default:
		return false, fmt.Errorf("session state %q is not a registration step", sess.State)
	}
	return false, nil
}

// EditPatch validates a new value for f and returns the one-field patch.
func EditPatch(f Field, input string) (database.ProfilePatch, error) {
	var patch database.ProfilePatch
	switch f {
	case FieldFirstName:
		v, err := ValidateFirstName(input)
		if err != nil {
			return patch, err
		}
		patch.FirstName = &v
	case FieldLastName:
		v, err := ValidateLastName(input)
		if err != nil {
			return patch, err
		}
		patch.LastName = &v
	case FieldEmail:
		v, err := ValidateEmail(input)
		if err != nil {
			return patch, err
		}
		patch.Email = &v
	case FieldAge:
		v, err := ValidateAge(input)
		if err != nil {
			return patch, err
		}
		patch.Age = &v
	default:
		return patch, fmt.Errorf("unknown profile field %q", f)
	}
	return patch, nil
}
