package utils

import (
	"github.com/google/uuid"
)

// GenerateUUID generates a new UUID v4.
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateConversionID generates an identifier for one dispatcher call,
// carried in log fields for correlation. Never persisted.
func GenerateConversionID() string {
	return GenerateUUID()
}

// IsValidUUID checks if a string is a valid UUID.
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
