package generation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Error classes returned by Service.Generate. They carry no provider
// payload so they are safe to log and to map onto responses.
var (
	ErrRateLimited = errors.New("generation provider rate limited")
	ErrUnavailable = errors.New("generation provider unavailable")
	ErrTransient   = errors.New("generation provider temporarily unreachable")
	ErrFailed      = errors.New("generation failed")
)

// ProviderError is a non-2xx answer from the provider. The body is
// intentionally dropped.
type ProviderError struct {
	Status int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d", e.Status)
}

// Classify maps any provider error onto one of the error classes.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, class := range []error{ErrRateLimited, ErrUnavailable, ErrTransient, ErrFailed} {
		if errors.Is(err, class) {
			return class
		}
	}

	var perr *ProviderError
	if errors.As(err, &perr) {
		switch perr.Status {
		case http.StatusTooManyRequests:
			return ErrRateLimited
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrUnavailable
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return ErrTransient
		default:
			return ErrFailed
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransient
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return ErrTransient
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit"):
		return ErrRateLimited
	case strings.Contains(msg, "api key"), strings.Contains(msg, "credential"), strings.Contains(msg, "permission denied"):
		return ErrUnavailable
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "timeout"), strings.Contains(msg, "no such host"):
		return ErrTransient
	}
	return ErrFailed
}
