package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/jaki95/studio-eighty7/internal/content"
	"github.com/jaki95/studio-eighty7/internal/generation"
	"github.com/jaki95/studio-eighty7/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Success(t *testing.T) {
	env := newTestServer(t)

	rr := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{
		"success": true,
		"data":    "Neon rain on a midnight wire.",
	}, decodeBody(t, rr))
	require.Equal(t, 1, env.provider.calls())
	assert.Contains(t, env.provider.prompts[0], `"Late Night"`)
}

func TestGenerate_SanitizesTopicBeforeProvider(t *testing.T) {
	env := newTestServer(t)

	rr := env.do(http.MethodPost, "/api/generate", `{"topic":"<script>alert(1)</script>Midnight drive"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, env.provider.calls())
	assert.NotContains(t, env.provider.prompts[0], "<script>")
	assert.Contains(t, env.provider.prompts[0], "Midnight drive")
}

func TestGenerate_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty topic", body: `{"topic":""}`, message: "Please enter a vibe or topic"},
		{name: "whitespace topic", body: `{"topic":"   "}`, message: "Please enter a vibe or topic"},
		{name: "missing topic", body: `{}`, message: "Please enter a vibe or topic"},
		{name: "too long", body: `{"topic":"` + strings.Repeat("a", 201) + `"}`, message: "Topic must be 200 characters or less"},
		{name: "only markup", body: `{"topic":"<b></b>"}`, message: "Please provide a valid topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestServer(t)

			rr := env.do(http.MethodPost, "/api/generate", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, map[string]any{
				"error":   "Validation error",
				"message": tt.message,
			}, decodeBody(t, rr))
			assert.Zero(t, env.provider.calls(), "provider must not be called")
		})
	}
}

func TestGenerate_InvalidJSON(t *testing.T) {
	env := newTestServer(t)

	for _, body := range []string{`{"topic":`, `{"topic":42}`, `not json`} {
		rr := env.do(http.MethodPost, "/api/generate", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, "Validation error", decodeBody(t, rr)["error"])
	}
	assert.Zero(t, env.provider.calls())
}

func TestGenerate_ProviderFailures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		errText string
		message string
	}{
		{
			name:    "provider rate limit",
			err:     &generation.ProviderError{Status: http.StatusTooManyRequests},
			status:  http.StatusTooManyRequests,
			errText: "Rate limit exceeded",
			message: "Too many requests. Please try again later.",
		},
		{
			name:    "bad credentials",
			err:     &generation.ProviderError{Status: http.StatusUnauthorized},
			status:  http.StatusInternalServerError,
			errText: "Service unavailable",
			message: "The signal is lost. Check your frequency.",
		},
		{
			name:    "forbidden",
			err:     &generation.ProviderError{Status: http.StatusForbidden},
			status:  http.StatusInternalServerError,
			errText: "Service unavailable",
			message: "The signal is lost. Check your frequency.",
		},
		{
			name:    "upstream overloaded",
			err:     &generation.ProviderError{Status: http.StatusServiceUnavailable},
			status:  http.StatusServiceUnavailable,
			errText: "Service unavailable",
			message: "The signal is weak. Try again in a moment.",
		},
		{
			name:    "deadline",
			err:     context.DeadlineExceeded,
			status:  http.StatusServiceUnavailable,
			errText: "Service unavailable",
			message: "The signal is weak. Try again in a moment.",
		},
		{
			name:    "unclassified",
			err:     errors.New("something odd"),
			status:  http.StatusInternalServerError,
			errText: "Internal server error",
			message: "The signal is lost. Check your frequency.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestServer(t)
			env.provider.err = tt.err

			rr := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`)

			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, map[string]any{
				"error":   tt.errText,
				"message": tt.message,
			}, decodeBody(t, rr))
		})
	}
}

func TestGenerate_EmptyProviderTextUsesFallbackLine(t *testing.T) {
	env := newTestServer(t)
	env.provider.text = "  "

	rr := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, generation.FallbackLine, decodeBody(t, rr)["data"])
}

func TestGenerate_RateLimit(t *testing.T) {
	env := newTestServer(t)

	for i := 0; i < ratelimit.GeneratePolicy.MaxRequests; i++ {
		rr := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`)
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i+1)
	}

	rr := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
	assert.Equal(t, map[string]any{
		"error":   "Too many requests",
		"message": "Rate limit exceeded. Please try again later.",
	}, decodeBody(t, rr))
	assert.Equal(t, ratelimit.GeneratePolicy.MaxRequests, env.provider.calls())

	other := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`, fromIP("10.0.0.9"))
	assert.Equal(t, http.StatusOK, other.Code, "other clients keep their own window")
}

func TestGenerate_RateLimitIgnoresUntrustedForwardedFor(t *testing.T) {
	env := newTestServer(t)

	for i := 0; i < ratelimit.GeneratePolicy.MaxRequests; i++ {
		env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`)
	}

	rr := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`, func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "203.0.113.50")
	})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, clientIP string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("store down")
}

func (failingLimiter) Policy() ratelimit.Policy { return ratelimit.GeneratePolicy }

func TestGenerate_LimiterFailureLetsRequestThrough(t *testing.T) {
	env := newTestServer(t, func(d *Deps) { d.GenerateLimiter = failingLimiter{} })

	rr := env.do(http.MethodPost, "/api/generate", `{"topic":"Late Night"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestContact_Success(t *testing.T) {
	env := newTestServer(t)

	rr := env.do(http.MethodPost, "/api/contact",
		`{"name":"Jane Doe","email":"  Jane@Example.com ","message":"I'd love to book a session next month."}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{
		"success": true,
		"message": "Message received successfully",
	}, decodeBody(t, rr))

	require.Len(t, env.deliverer.subs, 1)
	sub := env.deliverer.subs[0]
	assert.Equal(t, "Jane Doe", sub.Name)
	assert.Equal(t, "jane@example.com", sub.Email)
	assert.Equal(t, "I&#39;d love to book a session next month.", sub.Message)
}

func TestContact_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{
			name:    "short name",
			body:    `{"name":"A","email":"a@b.co","message":"Hello there, friend."}`,
			field:   "name",
			message: "Name must be at least 2 characters",
		},
		{
			name:    "bad email",
			body:    `{"name":"Jane","email":"not-an-email","message":"Hello there, friend."}`,
			field:   "email",
			message: "Please provide a valid email address",
		},
		{
			name:    "short message",
			body:    `{"name":"Jane","email":"jane@example.com","message":"hi"}`,
			field:   "message",
			message: "Message must be at least 10 characters",
		},
		{
			name:    "name checked first",
			body:    `{"name":"","email":"","message":""}`,
			field:   "name",
			message: "Name must be at least 2 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestServer(t)

			rr := env.do(http.MethodPost, "/api/contact", tt.body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, map[string]any{
				"error":   "Validation error",
				"field":   tt.field,
				"message": tt.message,
			}, decodeBody(t, rr))
			assert.Empty(t, env.deliverer.subs)
		})
	}
}

func TestContact_BodyTooLarge(t *testing.T) {
	env := newTestServer(t)
	body := `{"name":"Jane","email":"jane@example.com","message":"` + strings.Repeat("x", 11*1024) + `"}`

	rr := env.do(http.MethodPost, "/api/contact", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "Payload too large", decodeBody(t, rr)["error"])

	chunked := env.do(http.MethodPost, "/api/contact", body, func(r *http.Request) {
		r.ContentLength = -1
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, chunked.Code)
	assert.Empty(t, env.deliverer.subs)
}

func TestContact_RateLimit(t *testing.T) {
	env := newTestServer(t)
	body := `{"name":"Jane Doe","email":"jane@example.com","message":"Booking request for next week."}`

	for i := 0; i < ratelimit.ContactPolicy.MaxRequests; i++ {
		rr := env.do(http.MethodPost, "/api/contact", body)
		require.Equal(t, http.StatusOK, rr.Code, "message %d", i+1)
	}

	rr := env.do(http.MethodPost, "/api/contact", body)

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "3600", rr.Header().Get("Retry-After"))
	assert.Equal(t, map[string]any{
		"error":   "Too many messages",
		"message": "You can only send 3 messages per hour. Please try again later.",
	}, decodeBody(t, rr))
	assert.Len(t, env.deliverer.subs, 3)
}

func TestContent(t *testing.T) {
	env := newTestServer(t)

	rr := env.do(http.MethodGet, "/api/content/albums", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, string(content.OriginFallback), body["source"])
	albums, ok := body["data"].([]any)
	require.True(t, ok)
	assert.Len(t, albums, 4)

	unknown := env.do(http.MethodGet, "/api/content/videos", "")
	assert.Equal(t, http.StatusNotFound, unknown.Code)
}
