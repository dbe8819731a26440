package model

import "strings"

// Role is the unit of authorization granularity.  A user document stores it
// under the "role" field; an absent or unrecognised value means Student.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// ParseRole maps a stored role value onto one of the three roles.  Anything
// other than "admin" or "instructor" (including nil) resolves to Student.
func ParseRole(v any) Role {
	s, _ := v.(string)
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleInstructor:
		return RoleInstructor
	default:
		return RoleStudent
	}
}

// ValidRole reports whether s names one of the three roles exactly.  It is
// used to validate role updates; lookups go through ParseRole instead.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// User documents live in the `users` collection.  Apart from the fields
// below every property is opaque profile data supplied at registration.
//
// Fields:
//  _id   – ObjectID generated on insert.
//  email – unique key; registration is idempotent on it.
//  role  – optional; see ParseRole.
const (
	FieldID    = "_id"
	FieldEmail = "email"
	FieldRole  = "role"
)

// NormalizeEmail trims the surrounding whitespace of an email value.  Case is
// preserved because lookups are exact matches.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(email)
}
