package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jaki95/studio-eighty7/internal/ratelimit"
	"github.com/jaki95/studio-eighty7/internal/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, topic string) (string, error) {
	args := m.Called(ctx, topic)
	return args.String(0), args.Error(1)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestOracle(gen TextGenerator) (*Oracle, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	o := NewOracle(gen, nil)
	o.now = clock.Now
	return o, clock
}

func TestOracle_LateNightScenario(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, "Late Night").Return("Neon rain on a midnight wire.", nil).Once()
	o, clock := newTestOracle(gen)

	status, _ := o.State()
	assert.Equal(t, StatusIdle, status)

	text, err := o.Consult(context.Background(), "Late Night")

	require.NoError(t, err)
	assert.Equal(t, "Neon rain on a midnight wire.", text)
	status, result := o.State()
	assert.Equal(t, StatusSuccess, status)
	assert.Equal(t, text, result)
	gen.AssertExpectations(t)

	assert.Equal(t, 5, o.CooldownRemaining())
	clock.Advance(time.Second)
	assert.Equal(t, 4, o.CooldownRemaining())
	clock.Advance(3100 * time.Millisecond)
	assert.Equal(t, 1, o.CooldownRemaining())
	clock.Advance(900 * time.Millisecond)
	assert.Equal(t, 0, o.CooldownRemaining())
}

func TestOracle_CooldownBlocksSecondRequest(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, "Late Night").Return("one", nil).Twice()
	o, clock := newTestOracle(gen)

	_, err := o.Consult(context.Background(), "Late Night")
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = o.Consult(context.Background(), "Late Night")

	var cdErr *CooldownError
	require.True(t, errors.As(err, &cdErr))
	assert.Equal(t, 3, cdErr.Remaining)
	assert.Equal(t, "Please wait before making another request", err.Error())
	gen.AssertNumberOfCalls(t, "Generate", 1)

	clock.Advance(3 * time.Second)
	_, err = o.Consult(context.Background(), "Late Night")
	assert.NoError(t, err)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestOracle_ValidationOrder(t *testing.T) {
	tests := []struct {
		name       string
		topic      string
		inCooldown bool
		wantMsg    string
		cooldown   bool
	}{
		{name: "empty", topic: "  ", wantMsg: "Please enter a vibe or topic"},
		{name: "too long", topic: strings.Repeat("x", 201), wantMsg: "Topic must be 200 characters or less"},
		{name: "empty wins over cooldown", topic: "", inCooldown: true, wantMsg: "Please enter a vibe or topic"},
		{name: "cooldown wins over sanitize", topic: "<b></b>", inCooldown: true, cooldown: true},
		{name: "sanitized away", topic: "<b></b>", wantMsg: "Please provide a valid topic"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &mockGenerator{}
			o, _ := newTestOracle(gen)
			if tt.inCooldown {
				o.cooldown.Mark(o.now())
			}

			_, err := o.Consult(context.Background(), tt.topic)
			require.Error(t, err)

			if tt.cooldown {
				var cdErr *CooldownError
				assert.True(t, errors.As(err, &cdErr))
			} else {
				assert.ErrorIs(t, err, sanitize.ErrValidation)
				assert.Equal(t, tt.wantMsg, err.Error())
			}
			status, _ := o.State()
			assert.Equal(t, StatusIdle, status)
			gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		})
	}
}

func TestOracle_SanitizesBeforeSending(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, "Midnight drive").Return("ok", nil).Once()
	o, _ := newTestOracle(gen)

	_, err := o.Consult(context.Background(), "<script>alert(1)</script>Midnight drive")

	require.NoError(t, err)
	gen.AssertExpectations(t)
}

func TestOracle_BackendFailure(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, "Late Night").Return("", &APIError{Status: 429}).Once()
	o, _ := newTestOracle(gen)

	_, err := o.Consult(context.Background(), "Late Night")

	require.Error(t, err)
	status, result := o.State()
	assert.Equal(t, StatusError, status)
	assert.Equal(t, MessageRateLimited, result)
	assert.Equal(t, 5, o.CooldownRemaining(), "cooldown is marked before the call")
}

type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingGenerator) Generate(ctx context.Context, topic string) (string, error) {
	close(b.started)
	<-b.release
	return "done", nil
}

func TestOracle_BusyWhileLoading(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	o, clock := newTestOracle(gen)

	done := make(chan error, 1)
	go func() {
		_, err := o.Consult(context.Background(), "Late Night")
		done <- err
	}()
	<-gen.started

	status, _ := o.State()
	assert.Equal(t, StatusLoading, status)

	clock.Advance(10 * time.Second)
	_, err := o.Consult(context.Background(), "Late Night")
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.release)
	require.NoError(t, <-done)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "rate limited", err: &APIError{Status: 429}, want: MessageRateLimited},
		{name: "deadline", err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded), want: MessageTimeout},
		{name: "net timeout", err: timeoutErr{}, want: MessageTimeout},
		{name: "connection refused", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: MessageNetwork},
		{name: "server error", err: &APIError{Status: 500, Message: "The signal is lost. Check your frequency."}, want: MessageGeneric},
		{name: "invalid response", err: ErrInvalidResponse, want: MessageGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UserMessage(tt.err))
		})
	}
}

func TestOracle_UsesSharedCooldownStorage(t *testing.T) {
	storage := ratelimit.NewFileStorage(t.TempDir() + "/cooldown.json")
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return("ok", nil)

	first := NewOracle(gen, ratelimit.NewCooldown(storage, ratelimit.CooldownPolicy))
	_, err := first.Consult(context.Background(), "Late Night")
	require.NoError(t, err)

	second := NewOracle(gen, ratelimit.NewCooldown(storage, ratelimit.CooldownPolicy))
	_, err = second.Consult(context.Background(), "Late Night")

	var cdErr *CooldownError
	assert.True(t, errors.As(err, &cdErr), "cooldown survives a new oracle")
}
