// Package repository defines error types that are reused across the
// collection repositories.  These sentinel values allow handlers to tell
// client mistakes (a malformed id) apart from store failures.
package repository

import "errors"

// ErrNotFound is returned by single-document lookups that match nothing.
// Deletes and updates never return it; they report a zero count instead.
var ErrNotFound = errors.New("document not found")

// ErrInvalidID is returned when an id path parameter is not a 24 character
// hex ObjectID.  Handlers should translate this into an HTTP 400 response.
var ErrInvalidID = errors.New("invalid id")
