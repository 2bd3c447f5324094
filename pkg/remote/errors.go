package remote

import (
	"errors"
	"fmt"
)

var (
	ErrDisabled  = errors.New("remote classification is not enabled")
	ErrTimeout   = errors.New("API request timeout")
	ErrTransport = errors.New("API request failed")
	ErrStatus    = errors.New("API returned an error status")
	ErrDecode    = errors.New("API returned an unreadable response")
)

// StatusError is returned for any non-2xx response. It matches ErrStatus
// with errors.Is.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed: %s", e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Kind names the failure class of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	default:
		return "transport"
	}
}
