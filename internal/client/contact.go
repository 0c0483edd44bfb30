package client

import (
	"context"
	"errors"
	"strings"

	"github.com/jaki95/studio-eighty7/internal/sanitize"
)

const (
	MessageContactFailed  = "Unable to send message. Please try again."
	MessageContactNetwork = "Network error. Please check your connection and try again."
)

// ContactSender is the network half of the contact form.
type ContactSender interface {
	SubmitContact(ctx context.Context, name, email, message string) (string, error)
}

// SubmitError carries the copy shown under the contact form.
type SubmitError struct {
	Message string
	Err     error
}

func (e *SubmitError) Error() string { return e.Message }

func (e *SubmitError) Unwrap() error { return e.Err }

// ContactForm validates locally before anything is sent.
type ContactForm struct {
	sender ContactSender
}

func NewContactForm(sender ContactSender) *ContactForm {
	return &ContactForm{sender: sender}
}

// Submit returns the acknowledgement text. Invalid fields, whether caught
// locally or reported by the server, come back as *sanitize.ValidationError.
func (f *ContactForm) Submit(ctx context.Context, name, email, message string) (string, error) {
	fields, err := sanitize.Contact(name, email, message)
	if err != nil {
		return "", err
	}

	// The server escapes the message itself.
	ack, err := f.sender.SubmitContact(ctx, fields.Name, fields.Email, strings.TrimSpace(message))
	if err == nil {
		return ack, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return "", &SubmitError{Message: MessageContactNetwork, Err: err}
	}
	if apiErr.Field != "" {
		return "", &sanitize.ValidationError{Field: apiErr.Field, Message: apiErr.Message}
	}

	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Code
	}
	if msg == "" {
		msg = MessageContactFailed
	}
	return "", &SubmitError{Message: msg, Err: err}
}
