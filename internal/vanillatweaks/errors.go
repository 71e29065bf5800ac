package vanillatweaks

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog operations.
var (
	// ErrImageNotFound is returned when the upstream has no icon for a pack.
	ErrImageNotFound = errors.New("image not found")

	// ErrInvalidPackType is returned for an unknown pack type.
	ErrInvalidPackType = errors.New("invalid pack type")

	// ErrInvalidVersion is returned for a malformed Minecraft version.
	ErrInvalidVersion = errors.New("invalid minecraft version")
)

// APIError is a non-200 response from the catalog service.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vanilla tweaks API error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("vanilla tweaks API error (status %d): %s", e.StatusCode, e.Message)
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
	}
}
