package database

import "strings"

// ProfilePatch lists the profile fields to overwrite. A nil field is left
// untouched.
type ProfilePatch struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Age       *int    `json:"age,omitempty"`
}

// IsEmpty reports whether no field is set.
func (p ProfilePatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && p.Age == nil
}

// assignments returns the SET fragments and their bound values in a fixed
// column order. Column names never come from input.
func (p ProfilePatch) assignments() ([]string, []any) {
	var cols []string
	var args []any
	if p.FirstName != nil {
		cols = append(cols, "first_name = ?")
		args = append(args, *p.FirstName)
	}
	if p.LastName != nil {
		cols = append(cols, "last_name = ?")
		args = append(args, *p.LastName)
	}
	if p.Email != nil {
		cols = append(cols, "email = ?")
		args = append(args, *p.Email)
	}
	if p.Age != nil {
		cols = append(cols, "age = ?")
		args = append(args, *p.Age)
	}
	return cols, args
}

// updateQuery builds the UPDATE for the patch. The caller appends
// last_activity and external_id to args.
func (p ProfilePatch) updateQuery() (string, []any) {
	cols, args := p.assignments()
	cols = append(cols, "is_registered = TRUE", "last_activity = ?")
	return "UPDATE users SET " + strings.Join(cols, ", ") + " WHERE external_id = ?", args
}
