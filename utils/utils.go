// Package utils provides small shared helpers used across the guide backend.
package utils

// ToPtr returns a pointer to v, for filling optional model and filter fields.
func ToPtr[T any](v T) *T {
	return &v
}

// IsTrue reads a nullable flag, treating nil as false.
func IsTrue(b *bool) bool {
	return b != nil && *b
}
