package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const gcsWriteTimeout = 30 * time.Second

// GCSArchive stores objects in a Google Cloud Storage bucket.
type GCSArchive struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
}

// NewGCSArchive creates a client from credentialsFile, or from application
// default credentials when it is empty.
func NewGCSArchive(ctx context.Context, bucketName, objectPrefix, credentialsFile string) (*GCSArchive, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("a bucket name is required for the gcs archive")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSArchive{
		client:       client,
		bucket:       bucketName,
		objectPrefix: strings.Trim(objectPrefix, "/"),
	}, nil
}

func (a *GCSArchive) objectName(name string) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return joinPrefix(a.objectPrefix, name), nil
}

func joinPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func (a *GCSArchive) Put(ctx context.Context, name string, data []byte) error {
	objectName, err := a.objectName(name)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, gcsWriteTimeout)
	defer cancel()

	wc := a.client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "application/json"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (a *GCSArchive) Get(ctx context.Context, name string) ([]byte, error) {
	objectName, err := a.objectName(name)
	if err != nil {
		return nil, err
	}

	r, err := a.client.Bucket(a.bucket).Object(objectName).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object: %w", err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// List returns object names (without the archive prefix) beginning with prefix.
func (a *GCSArchive) List(ctx context.Context, prefix string) ([]string, error) {
	it := a.client.Bucket(a.bucket).Objects(ctx, &storage.Query{
		Prefix: joinPrefix(a.objectPrefix, prefix),
	})

	var results []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing objects: %w", err)
		}
		// Skip directories (objects ending with /)
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		name := attrs.Name
		if a.objectPrefix != "" {
			name = strings.TrimPrefix(name, a.objectPrefix+"/")
		}
		results = append(results, name)
	}
	return results, nil
}

func (a *GCSArchive) Close() error {
	return a.client.Close()
}
