package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/jaki95/studio-eighty7/internal/ratelimit"
	"github.com/jaki95/studio-eighty7/internal/sanitize"
)

// User-facing copy for failed generations.
const (
	MessageRateLimited = "Too many requests. Please wait a moment."
	MessageNetwork     = "Connection issue. Check your network."
	MessageTimeout     = "Request timed out. Try again."
	MessageGeneric     = "Something went wrong. Please try again."
)

// ErrBusy is returned while a previous consultation is still running.
var ErrBusy = errors.New("a request is already in progress")

// Status of the oracle widget.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// CooldownError means the local cooldown has not expired yet.
type CooldownError struct {
	Remaining int
}

func (e *CooldownError) Error() string {
	return "Please wait before making another request"
}

// TextGenerator is the network half of a consultation.
type TextGenerator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// Oracle runs the site's generation widget flow: validate, respect the
// local cooldown, sanitize, then ask the backend.
type Oracle struct {
	mu       sync.Mutex
	gen      TextGenerator
	cooldown *ratelimit.Cooldown
	now      func() time.Time

	status Status
	result string
}

func NewOracle(gen TextGenerator, cooldown *ratelimit.Cooldown) *Oracle {
	if cooldown == nil {
		cooldown = ratelimit.NewCooldown(&ratelimit.MemoryStorage{}, ratelimit.CooldownPolicy)
	}
	return &Oracle{gen: gen, cooldown: cooldown, now: time.Now}
}

// State returns the current status and the text shown for it.
func (o *Oracle) State() (Status, string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status, o.result
}

// CooldownRemaining is the whole seconds left before another request.
func (o *Oracle) CooldownRemaining() int {
	return o.cooldown.Check(o.now())
}

// Consult validates topic and, if allowed, requests a creative line.
// Local rejections (*sanitize.ValidationError, *CooldownError, ErrBusy)
// leave the state untouched. A backend failure moves the oracle to
// StatusError with user-facing copy as the result.
func (o *Oracle) Consult(ctx context.Context, topic string) (string, error) {
	clean, err := sanitize.Topic(topic)
	var verr *sanitize.ValidationError
	if err != nil && !(errors.As(err, &verr) && verr.Rule == sanitize.RuleEmptyAfterSanitize) {
		return "", err
	}

	now := o.now()
	if remaining := o.cooldown.Check(now); remaining > 0 {
		return "", &CooldownError{Remaining: remaining}
	}
	if err != nil {
		return "", err
	}

	o.mu.Lock()
	if o.status == StatusLoading {
		o.mu.Unlock()
		return "", ErrBusy
	}
	o.status = StatusLoading
	o.result = ""
	o.mu.Unlock()

	o.cooldown.Mark(now)

	text, genErr := o.gen.Generate(ctx, clean)

	o.mu.Lock()
	defer o.mu.Unlock()
	if genErr != nil {
		o.status = StatusError
		o.result = UserMessage(genErr)
		return "", genErr
	}
	o.status = StatusSuccess
	o.result = text
	return text, nil
}

// UserMessage picks the copy shown for a failed generation.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == 429 {
		return MessageRateLimited
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return MessageTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return MessageTimeout
		}
		return MessageNetwork
	}
	return MessageGeneric
}
