// Package uuid generates time-ordered identifiers for synchronized
// records.
package uuid

import googleuuid "github.com/google/uuid"

// New returns a new UUIDv7 string. The leading timestamp bits make ids
// sort by creation time, which keeps the store's (created_at, id)
// ordering stable and gives the durable store insert-friendly primary
// keys.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		// crypto/rand failure; fall back to a random v4.
		return googleuuid.NewString()
	}
	return id.String()
}

// IsValid reports whether s parses as a UUID of any version.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
