package surf

import "fmt"

// InsufficientDataError is returned when a forecast has no observation to
// anchor its first projected hour.
type InsufficientDataError struct {
	Message string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s", e.Message)
}

func NewInsufficientDataError(message string) *InsufficientDataError {
	return &InsufficientDataError{Message: message}
}
