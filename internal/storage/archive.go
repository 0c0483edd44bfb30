// Package storage persists small JSON documents (contact submissions,
// content snapshots) either on local disk or in a Google Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists under the name.
var ErrNotFound = errors.New("object not found")

// Archive stores named blobs. Names use forward slashes regardless of
// the backing store.
type Archive interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// Config selects and configures an Archive.
type Config struct {
	// Type of archive: "local" or "gcs"
	Type string

	// Local archive options
	Dir string

	// GCS archive options
	Bucket          string
	ObjectPrefix    string
	CredentialsFile string
}

// New builds the archive described by cfg.
func New(ctx context.Context, cfg Config) (Archive, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalArchive(cfg.Dir)
	case "gcs":
		return NewGCSArchive(ctx, cfg.Bucket, cfg.ObjectPrefix, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.Type)
	}
}

// cleanName rejects names that could escape the archive root.
func cleanName(name string) (string, error) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return name, nil
}
