// Package content serves the site's albums, tracks, services and about page
// from the live content API, falling back to a bundled dataset whenever the
// API is missing, failing or returns something unreadable.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jaki95/studio-eighty7/internal/domain"
)

// Origin says where a result came from.
type Origin string

const (
	OriginLive     Origin = "live"
	OriginFallback Origin = "fallback"
)

// Result carries items that look the same whichever origin produced them.
type Result[T any] struct {
	Items  T      `json:"data"`
	Origin Origin `json:"source"`
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// Fetcher never fails: every source error is absorbed into the fallback.
type Fetcher struct {
	source Source
	logger *slog.Logger

	ttl   time.Duration
	mu    sync.Mutex
	cache map[domain.Resource]cacheEntry
	now   func() time.Time
}

func NewFetcher(source Source, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		source: source,
		logger: logger,
		cache:  make(map[domain.Resource]cacheEntry),
		now:    time.Now,
	}
}

// WithCacheTTL keeps each live result for ttl. Fallback results are never
// cached so the live API is retried on the next call.
func (f *Fetcher) WithCacheTTL(ttl time.Duration) *Fetcher {
	f.ttl = ttl
	return f
}

func (f *Fetcher) Tracks(ctx context.Context) Result[[]domain.Track] {
	return fetch(ctx, f, domain.ResourceTracks, f.source.Tracks, FallbackTracks)
}

func (f *Fetcher) Albums(ctx context.Context) Result[[]domain.Album] {
	return fetch(ctx, f, domain.ResourceAlbums, f.source.Albums, FallbackAlbums)
}

func (f *Fetcher) Services(ctx context.Context) Result[[]domain.Service] {
	return fetch(ctx, f, domain.ResourceServices, f.source.Services, FallbackServices)
}

func (f *Fetcher) About(ctx context.Context) Result[domain.About] {
	return fetch(ctx, f, domain.ResourceAbout, f.source.About, FallbackAbout)
}

// Fetch returns the result for r as an untyped payload.
func (f *Fetcher) Fetch(ctx context.Context, r domain.Resource) (any, Origin, error) {
	switch r {
	case domain.ResourceTracks:
		res := f.Tracks(ctx)
		return res.Items, res.Origin, nil
	case domain.ResourceAlbums:
		res := f.Albums(ctx)
		return res.Items, res.Origin, nil
	case domain.ResourceServices:
		res := f.Services(ctx)
		return res.Items, res.Origin, nil
	case domain.ResourceAbout:
		res := f.About(ctx)
		return res.Items, res.Origin, nil
	}
	return nil, "", fmt.Errorf("unknown content resource %q", r)
}

func fetch[T any](ctx context.Context, f *Fetcher, r domain.Resource, live func(context.Context) (T, error), fallback func() T) Result[T] {
	if v, ok := f.cached(r); ok {
		if items, ok := v.(T); ok {
			return Result[T]{Items: items, Origin: OriginLive}
		}
	}

	items, err := live(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			f.logger.Debug("content not found, using fallback", "resource", r)
		} else {
			f.logger.Warn("failed to fetch content, using fallback", "resource", r, "error", err)
		}
		return Result[T]{Items: fallback(), Origin: OriginFallback}
	}

	f.store(r, items)
	return Result[T]{Items: items, Origin: OriginLive}
}

func (f *Fetcher) cached(r domain.Resource) (any, bool) {
	if f.ttl <= 0 {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.cache[r]
	if !ok || !f.now().Before(e.expires) {
		return nil, false
	}
	return e.value, true
}

func (f *Fetcher) store(r domain.Resource, v any) {
	if f.ttl <= 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache[r] = cacheEntry{value: v, expires: f.now().Add(f.ttl)}
}
