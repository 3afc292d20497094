package domain

import (
	"errors"
	"fmt"
)

var (
	ErrPropertyNotFound   = errors.New("property not found")
	ErrInsufficientData   = errors.New("insufficient data")
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMissingRequiredFilter is matched by every *MissingFilterError
	ErrMissingRequiredFilter = errors.New("missing required filter")
)

// MissingFilterError - a filter the endpoint contract requires was not supplied
type MissingFilterError struct {
	Field string
}

func (e *MissingFilterError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *MissingFilterError) Is(target error) bool {
	return target == ErrMissingRequiredFilter
}
