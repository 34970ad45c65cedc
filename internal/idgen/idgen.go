// Package idgen mints the stable UUIDs that identify releases and tracks.
package idgen

import "github.com/google/uuid"

// New mints a fresh random UUID for a release or track.
func New() uuid.UUID {
	return uuid.New()
}

// Parse validates and parses a UUID string as found in a tag or filename.
func Parse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// IsValid reports whether s parses as a UUID.
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
