package snapshot

import (
	"context"

	"github.com/jaki95/studio-eighty7/internal/content"
	"github.com/jaki95/studio-eighty7/internal/domain"
	"github.com/jaki95/studio-eighty7/internal/storage"
)

// Fetcher returns one content resource and where it came from.
type Fetcher interface {
	Fetch(ctx context.Context, r domain.Resource) (any, content.Origin, error)
}

// Progress is advanced once per fetched resource.
type Progress interface {
	Add(n int) error
}

type Syncer interface {
	Sync(ctx context.Context, opts *Options, bar Progress) (*Report, error)
}

func NewSyncer(fetcher Fetcher, archive storage.Archive) Syncer {
	return newSyncer(fetcher, archive)
}
