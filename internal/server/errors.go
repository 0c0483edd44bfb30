package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/studio-eighty7/internal/generation"
	"github.com/jaki95/studio-eighty7/internal/sanitize"
)

const (
	signalLost = "The signal is lost. Check your frequency."
	signalWeak = "The signal is weak. Try again in a moment."
)

var (
	notFoundBody = ErrorResponse{
		Error:   "Not found",
		Message: "The requested endpoint does not exist",
	}
	internalErrorBody = ErrorResponse{
		Error:   "Internal server error",
		Message: signalLost,
	}
	invalidBodyResponse = ErrorResponse{
		Error:   "Validation error",
		Message: "Request body must be valid JSON",
	}
	payloadTooLargeBody = ErrorResponse{
		Error:   "Payload too large",
		Message: "Request body must be 10kb or less",
	}
	contactFailedBody = ErrorResponse{
		Error:   "Internal server error",
		Message: "Unable to send message. Please try again later.",
	}

	generateLimitedBody = gin.H{
		"error":   "Too many requests",
		"message": "Rate limit exceeded. Please try again later.",
	}
	contactLimitedBody = gin.H{
		"error":   "Too many messages",
		"message": "You can only send 3 messages per hour. Please try again later.",
	}
)

// generationFailure maps a generation error to its status and body.
// Provider details never reach the client.
func generationFailure(err error) (int, ErrorResponse) {
	var verr *sanitize.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{Error: "Validation error", Message: verr.Message}
	case errors.Is(err, generation.ErrRateLimited):
		return http.StatusTooManyRequests, ErrorResponse{
			Error:   "Rate limit exceeded",
			Message: "Too many requests. Please try again later.",
		}
	case errors.Is(err, generation.ErrUnavailable):
		return http.StatusInternalServerError, ErrorResponse{Error: "Service unavailable", Message: signalLost}
	case errors.Is(err, generation.ErrTransient):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Service unavailable", Message: signalWeak}
	default:
		return http.StatusInternalServerError, internalErrorBody
	}
}

// contactFailure maps a contact error to its status and body.
func contactFailure(err error) (int, ErrorResponse) {
	var verr *sanitize.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, ErrorResponse{
			Error:   "Validation error",
			Field:   verr.Field,
			Message: verr.Message,
		}
	}
	return http.StatusInternalServerError, contactFailedBody
}
