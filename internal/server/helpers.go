package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaki95/studio-eighty7/internal/ratelimit"
)

const (
	// JavaScript-style ISO timestamp, always UTC
	isoMillis = "2006-01-02T15:04:05.000Z"

	// DefaultSweepInterval is used when no interval is configured
	DefaultSweepInterval = time.Minute
)

// Sweeper drops expired rate-limit windows.
type Sweeper interface {
	Sweep(now time.Time) int
}

// StartSweeper starts a background worker that drops expired rate-limit
// windows until ctx is done.
func StartSweeper(ctx context.Context, sweeper Sweeper, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if removed := sweeper.Sweep(now); removed > 0 {
					slog.Debug("Swept expired rate limit windows", "removed", removed)
				}
			}
		}
	}()
	slog.Info("Rate limit sweeper started", "interval", interval)
}

// bindJSON decodes the request body into dst. An empty body leaves dst
// untouched so field validation reports what is missing.
func bindJSON(c *gin.Context, dst any) (int, *ErrorResponse) {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return 0, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, &payloadTooLargeBody
	}
	return http.StatusBadRequest, &invalidBodyResponse
}

func describePolicy(p ratelimit.Policy, unit string) string {
	return fmt.Sprintf("%d %s per %s per IP", p.MaxRequests, unit, p.Window)
}
