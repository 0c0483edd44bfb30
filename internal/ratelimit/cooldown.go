package ratelimit

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// CooldownStorage persists the time of the last accepted request.
type CooldownStorage interface {
	Load() (time.Time, bool, error)
	Save(t time.Time) error
	Clear() error
}

// Cooldown is an advisory guard a client applies before calling the API.
// It is not a security control: storage failures are treated as "not
// limited" and never surface to the caller.
type Cooldown struct {
	storage  CooldownStorage
	interval time.Duration
}

func NewCooldown(storage CooldownStorage, p Policy) *Cooldown {
	return &Cooldown{storage: storage, interval: p.Window}
}

// Check returns the whole seconds left before another request is allowed,
// or 0 when the client may proceed.
func (c *Cooldown) Check(now time.Time) int {
	last, ok, err := c.storage.Load()
	if err != nil {
		slog.Debug("cooldown storage unavailable", "error", err)
		return 0
	}
	if !ok {
		return 0
	}

	remaining := c.interval - now.Sub(last)
	if remaining <= 0 {
		return 0
	}
	if remaining > c.interval {
		remaining = c.interval
	}
	return int(math.Ceil(remaining.Seconds()))
}

// Mark records now as the last request time.
func (c *Cooldown) Mark(now time.Time) {
	if err := c.storage.Save(now); err != nil {
		slog.Debug("failed to persist cooldown", "error", err)
	}
}

// Clear forgets the last request time.
func (c *Cooldown) Clear() {
	if err := c.storage.Clear(); err != nil {
		slog.Debug("failed to clear cooldown", "error", err)
	}
}

// MemoryStorage keeps the timestamp for the life of the process.
type MemoryStorage struct {
	mu   sync.Mutex
	last time.Time
	set  bool
}

func (m *MemoryStorage) Load() (time.Time, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.set, nil
}

func (m *MemoryStorage) Save(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last, m.set = t, true
	return nil
}

func (m *MemoryStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last, m.set = time.Time{}, false
	return nil
}

// FileStorage keeps the timestamp in a small JSON file so the cooldown
// survives restarts of the client.
type FileStorage struct {
	path string
}

type cooldownFile struct {
	LastRequestAt time.Time `json:"lastRequestAt"`
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) Load() (time.Time, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read cooldown file: %w", err)
	}

	var cf cooldownFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return time.Time{}, false, fmt.Errorf("failed to decode cooldown file: %w", err)
	}
	return cf.LastRequestAt, !cf.LastRequestAt.IsZero(), nil
}

func (f *FileStorage) Save(t time.Time) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create cooldown directory: %w", err)
	}
	data, err := json.Marshal(cooldownFile{LastRequestAt: t})
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
