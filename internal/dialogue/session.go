// Package dialogue tracks per-user conversation state and implements the
// registration and profile-edit steps.
package dialogue

import (
	"context"
	"strings"

	"github.com/edgard/termbot/internal/database"
)

// State names the prompt a user is answering.
type State string

const (
	StateIdle         State = ""
	StateRegFirstName State = "registration:first_name"
	StateRegLastName  State = "registration:last_name"
	StateRegEmail     State = "registration:email"
	StateRegAge       State = "registration:age"
	StateSearchTerm   State = "search:term"
)

const stateEditPrefix = "edit:"

// Field is an editable profile field.
type Field string

const (
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldEmail     Field = "email"
	FieldAge       Field = "age"
)

// Fields lists the editable fields in display order.
var Fields = []Field{FieldFirstName, FieldLastName, FieldEmail, FieldAge}

// ParseField accepts a field name as used in callback data.
func ParseField(s string) (Field, bool) {
	for _, f := range Fields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Label is the human name of the field.
func (f Field) Label() string {
	switch f {
	case FieldFirstName:
		return "First name"
	case FieldLastName:
		return "Last name"
	case FieldEmail:
		return "Email"
	case FieldAge:
		return "Age"
	default:
		return string(f)
	}
}

// EditState is the state awaiting a new value for f.
func EditState(f Field) State {
	return State(stateEditPrefix + string(f))
}

// IsRegistration reports whether s is a registration step.
func (s State) IsRegistration() bool {
	return strings.HasPrefix(string(s), "registration:")
}

// EditField returns the field being edited, if s is an edit state.
func (s State) EditField() (Field, bool) {
	name, ok := strings.CutPrefix(string(s), stateEditPrefix)
	if !ok {
		return "", false
	}
	return ParseField(name)
}

// Session is the stored dialogue state of one user. Draft accumulates
// registration answers until the final step.
type Session struct {
	State State                 `json:"state"`
	Draft database.ProfilePatch `json:"draft"`
}

// StateStore persists sessions keyed by platform user id.
type StateStore interface {
	// Get returns the session or nil if none is stored.
	Get(ctx context.Context, userID int64) (*Session, error)
	Set(ctx context.Context, userID int64, sess *Session) error
	Clear(ctx context.Context, userID int64) error
}
