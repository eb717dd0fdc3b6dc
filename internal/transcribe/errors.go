package transcribe

import (
	"errors"
	"fmt"
)

// ServerError is a non-2xx answer from the backend. The message
// format is stable because the overlay shows it directly.
type ServerError struct {
	StatusCode int
	Detail     string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("Server responded with %d: %s", e.StatusCode, e.Detail)
}

func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
