package util

import "github.com/google/uuid"

// NewID returns a random UUID string.
func NewID() string {
	return uuid.NewString()
}

// NewPrefixedID returns prefix-<uuid>, e.g. goal-3f2a....
func NewPrefixedID(prefix string) string {
	if prefix == "" {
		return NewID()
	}
	return prefix + "-" + NewID()
}
