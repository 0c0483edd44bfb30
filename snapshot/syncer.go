// Package snapshot pulls every content resource through the fetcher and
// stores the result as one JSON document.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/k0kubun/go-ansi"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/jaki95/studio-eighty7/internal/content"
	"github.com/jaki95/studio-eighty7/internal/domain"
	"github.com/jaki95/studio-eighty7/internal/storage"
)

// LatestName always holds the most recent snapshot.
const LatestName = "latest.json"

var AllResources = []domain.Resource{
	domain.ResourceTracks,
	domain.ResourceAlbums,
	domain.ResourceServices,
	domain.ResourceAbout,
}

type Options struct {
	Resources          []domain.Resource
	Prefix             string
	MaxConcurrentTasks int
}

type Entry struct {
	Resource domain.Resource `json:"resource"`
	Source   content.Origin  `json:"source"`
	Data     any             `json:"data"`
}

type Snapshot struct {
	TakenAt time.Time `json:"takenAt"`
	Entries []Entry   `json:"entries"`
}

// Report lists where the snapshot went, which resources were live and which
// differ from the previous latest snapshot.
type Report struct {
	Name     string
	Live     []domain.Resource
	Fallback []domain.Resource
	Changed  []domain.Resource
	// Stored counts the snapshots under the prefix, this one included.
	Stored int
}

// storedEntry is an Entry read back from the archive.
type storedEntry struct {
	Resource domain.Resource `json:"resource"`
	Source   content.Origin  `json:"source"`
	Data     json.RawMessage `json:"data"`
}

type syncer struct {
	fetcher Fetcher
	archive storage.Archive
	now     func() time.Time
}

func newSyncer(fetcher Fetcher, archive storage.Archive) *syncer {
	return &syncer{fetcher: fetcher, archive: archive, now: time.Now}
}

// NewBar renders progress on stdout the way the CLI tools do.
func NewBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(ansi.NewAnsiStdout()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionFullWidth(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan][1/1][reset] Fetching content..."),
	)
}

func (s *syncer) Sync(ctx context.Context, opts *Options, bar Progress) (*Report, error) {
	resources := opts.Resources
	if len(resources) == 0 {
		resources = AllResources
	}

	maxWorkers := opts.MaxConcurrentTasks
	if maxWorkers < 1 || maxWorkers > 10 {
		slog.Warn("invalid max workers, defaulting to 1", "maxWorkers", opts.MaxConcurrentTasks)
		maxWorkers = 1
	}

	entries := make([]Entry, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, r := range resources {
		g.Go(func() error {
			defer func() {
				if bar != nil {
					_ = bar.Add(1)
				}
			}()

			data, origin, err := s.fetcher.Fetch(gctx, r)
			if err != nil {
				return fmt.Errorf("resource %s: %w", r, err)
			}
			entries[i] = Entry{Resource: r, Source: origin, Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	previous := s.previous(ctx, opts.Prefix)

	snap := Snapshot{TakenAt: s.now().UTC(), Entries: entries}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	name := opts.Prefix + "snapshot-" + snap.TakenAt.Format("20060102T150405Z") + ".json"
	if err := s.archive.Put(ctx, name, body); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}
	if err := s.archive.Put(ctx, opts.Prefix+LatestName, body); err != nil {
		return nil, fmt.Errorf("failed to store latest snapshot: %w", err)
	}

	report := &Report{Name: name}
	for _, e := range entries {
		if e.Source == content.OriginLive {
			report.Live = append(report.Live, e.Resource)
		} else {
			report.Fallback = append(report.Fallback, e.Resource)
		}
		if changed(e, previous) {
			report.Changed = append(report.Changed, e.Resource)
		}
	}

	stored, err := s.archive.List(ctx, opts.Prefix+"snapshot-")
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	report.Stored = len(stored)
	return report, nil
}

// previous returns the entries of the latest snapshot keyed by resource. A
// missing or unreadable snapshot yields an empty map.
func (s *syncer) previous(ctx context.Context, prefix string) map[domain.Resource]storedEntry {
	out := map[domain.Resource]storedEntry{}

	raw, err := s.archive.Get(ctx, prefix+LatestName)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			slog.Warn("failed to read previous snapshot", "error", err)
		}
		return out
	}

	var snap struct {
		Entries []storedEntry `json:"entries"`
	}
	if err := json.Unmarshal(raw, &snap); err != nil {
		slog.Warn("failed to decode previous snapshot", "error", err)
		return out
	}
	for _, e := range snap.Entries {
		out[e.Resource] = e
	}
	return out
}

func changed(e Entry, previous map[domain.Resource]storedEntry) bool {
	old, ok := previous[e.Resource]
	if !ok || old.Source != e.Source {
		return true
	}

	cur, err := json.Marshal(e.Data)
	if err != nil {
		return true
	}
	var prev bytes.Buffer
	if err := json.Compact(&prev, old.Data); err != nil {
		return true
	}
	return !bytes.Equal(cur, prev.Bytes())
}
