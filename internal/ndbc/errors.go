package ndbc

import "fmt"

// FormatError reports feed text that cannot be turned into a dataset:
// empty input, no recognisable header, or no rows matching the header.
type FormatError struct {
	Message string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("NDBC format error: %s", e.Message)
}

func NewFormatError(message string) *FormatError {
	return &FormatError{Message: message}
}

// FetchError represents a failure retrieving the raw feed
type FetchError struct {
	StationID  string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("NDBC fetch error: station %s: %v", e.StationID, e.Err)
	}
	return fmt.Sprintf("NDBC fetch error: station %s: HTTP %d", e.StationID, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
