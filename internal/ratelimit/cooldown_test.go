package ratelimit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStorage struct{}

func (brokenStorage) Load() (time.Time, bool, error) { return time.Time{}, false, errors.New("quota exceeded") }
func (brokenStorage) Save(time.Time) error           { return errors.New("quota exceeded") }
func (brokenStorage) Clear() error                   { return errors.New("quota exceeded") }

func TestCooldownCountsDown(t *testing.T) {
	c := NewCooldown(&MemoryStorage{}, CooldownPolicy)

	assert.Equal(t, 0, c.Check(t0))

	c.Mark(t0)
	assert.Equal(t, 5, c.Check(t0))
	assert.Equal(t, 4, c.Check(t0.Add(time.Second)))
	assert.Equal(t, 1, c.Check(t0.Add(4500*time.Millisecond)))
	assert.Equal(t, 0, c.Check(t0.Add(5*time.Second)))

	c.Mark(t0.Add(10 * time.Second))
	c.Clear()
	assert.Equal(t, 0, c.Check(t0.Add(10*time.Second)))
}

func TestCooldownClampsFutureTimestamp(t *testing.T) {
	c := NewCooldown(&MemoryStorage{}, CooldownPolicy)
	c.Mark(t0.Add(time.Hour))
	assert.Equal(t, 5, c.Check(t0))
}

func TestCooldownStorageFailureIsNotLimited(t *testing.T) {
	c := NewCooldown(brokenStorage{}, CooldownPolicy)
	c.Mark(t0)
	assert.Equal(t, 0, c.Check(t0))
	c.Clear()
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "cooldown.json")
	fs := NewFileStorage(path)

	_, ok, err := fs.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, fs.Save(t0))
	got, ok, err := fs.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.Equal(t0))

	// survives a new instance over the same file
	c := NewCooldown(NewFileStorage(path), CooldownPolicy)
	assert.Equal(t, 3, c.Check(t0.Add(2*time.Second)))

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear())
	_, ok, err = fs.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStorageCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cooldown.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, _, err := NewFileStorage(path).Load()
	assert.Error(t, err)

	c := NewCooldown(NewFileStorage(path), CooldownPolicy)
	assert.Equal(t, 0, c.Check(t0))
}
