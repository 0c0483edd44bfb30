// Package contact accepts contact-form submissions from the site.
package contact

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jaki95/studio-eighty7/internal/sanitize"
	"github.com/jaki95/studio-eighty7/internal/storage"
)

// MaxBodyBytes is the largest request body accepted for a submission.
const MaxBodyBytes = 10 * 1024

// SuccessMessage is the acknowledgement returned for accepted submissions.
const SuccessMessage = "Message received successfully"

// Submission is a validated contact message.
type Submission struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Message    string    `json:"message"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// Deliverer hands a submission on to whoever reads it.
type Deliverer interface {
	Deliver(ctx context.Context, s Submission) error
}

// LogDeliverer only records that a submission arrived. The message body
// is not logged.
type LogDeliverer struct {
	Logger *slog.Logger
}

func (d LogDeliverer) Deliver(ctx context.Context, s Submission) error {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "contact form submission",
		"id", s.ID,
		"email", s.Email,
		"name", s.Name,
		"messageLength", len(s.Message),
	)
	return nil
}

// ArchiveDeliverer writes each submission as a JSON document.
type ArchiveDeliverer struct {
	Archive storage.Archive
}

func (d ArchiveDeliverer) Deliver(ctx context.Context, s Submission) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}
	name := fmt.Sprintf("contact/%s/%s.json", s.ReceivedAt.UTC().Format("2006-01-02"), s.ID)
	if err := d.Archive.Put(ctx, name, data); err != nil {
		return fmt.Errorf("failed to archive submission: %w", err)
	}
	return nil
}

// MultiDeliverer runs every deliverer and returns the first error.
type MultiDeliverer []Deliverer

func (m MultiDeliverer) Deliver(ctx context.Context, s Submission) error {
	var first error
	for _, d := range m {
		if err := d.Deliver(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Result is returned for an accepted submission.
type Result struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type Service struct {
	deliverer Deliverer
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(deliverer Deliverer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{deliverer: deliverer, logger: logger, now: time.Now}
}

// Submit validates the raw fields and hands the submission to the
// deliverer. Validation failures are returned as *sanitize.ValidationError.
// Delivery is best-effort: a failure is logged and the submission is still
// acknowledged.
func (s *Service) Submit(ctx context.Context, name, email, message string) (Result, error) {
	fields, err := sanitize.Contact(name, email, message)
	if err != nil {
		return Result{}, err
	}

	sub := Submission{
		ID:         uuid.New().String(),
		Name:       fields.Name,
		Email:      fields.Email,
		Message:    fields.Message,
		ReceivedAt: s.now().UTC(),
	}

	if err := s.deliverer.Deliver(ctx, sub); err != nil {
		s.logger.ErrorContext(ctx, "contact delivery failed", "id", sub.ID, "error", err)
	}

	return Result{ID: sub.ID, Message: SuccessMessage}, nil
}
