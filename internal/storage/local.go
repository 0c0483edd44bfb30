package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalArchive stores objects as files below a root directory.
type LocalArchive struct {
	root string
}

func NewLocalArchive(root string) (*LocalArchive, error) {
	if root == "" {
		root = "data"
	}
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &LocalArchive{root: root}, nil
}

func (a *LocalArchive) Put(ctx context.Context, name string, data []byte) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	p := filepath.Join(a.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(p), err)
	}

	// write then rename so readers never see a partial document
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}

func (a *LocalArchive) Get(ctx context.Context, name string) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(a.root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return data, err
}

// List returns object names beginning with prefix, sorted.
func (a *LocalArchive) List(ctx context.Context, prefix string) ([]string, error) {
	var results []string
	err := filepath.WalkDir(a.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(a.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			results = append(results, name)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	sort.Strings(results)
	return results, nil
}

func (a *LocalArchive) Close() error { return nil }
