package match

import (
	"context"
	"errors"
	"net"
	"net/http"
)

var (
	// ErrUnavailable means the provider is asleep, overloaded or timed out.
	// Callers may retry later.
	ErrUnavailable = errors.New("matcher unavailable")

	// ErrLogic means the provider answered but the answer was unusable.
	ErrLogic = errors.New("matcher logic error")
)

// LogicError carries the provider's explanation of an unusable answer.
type LogicError struct {
	Details string
}

func (e *LogicError) Error() string {
	return "matcher logic error: " + e.Details
}

func (e *LogicError) Unwrap() error {
	return ErrLogic
}

// classifyStatus maps an upstream HTTP status to ErrUnavailable where it
// signals a sleeping or overloaded service.
func classifyStatus(status int) error {
	switch status {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout, http.StatusTooManyRequests:
		return ErrUnavailable
	}
	return nil
}

// isTimeout reports whether err is a deadline or network timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
