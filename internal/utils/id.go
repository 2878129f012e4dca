package utils

import "github.com/google/uuid"

// IsUUID reports whether a path parameter is a well-formed id, so malformed
// ids turn into 404s before touching the store.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
