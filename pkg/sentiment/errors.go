package sentiment

import "fmt"

// HTTPError is returned when the API answers outside the 2xx range.
type HTTPError struct {
	Status     int
	StatusText string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.Status, e.StatusText)
}

// DecodeError is returned when a 2xx response body does not match the
// expected shape.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "decode response: " + e.Reason
	}
	return fmt.Sprintf("decode response: %s: %s", e.Field, e.Reason)
}
