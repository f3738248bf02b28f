package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func tempCache[T any](t *testing.T, maxAge time.Duration) *FileCache[T] {
	t.Helper()
	return &FileCache[T]{cacheDir: t.TempDir(), maxAge: maxAge}
}

func TestFileCache_SetAndGet(t *testing.T) {
	fc := tempCache[payload](t, 0)

	key := fc.GenerateKey("ndvi", "sentinel2", 100)
	assert.NoError(t, fc.Set(key, payload{Name: "field-7", Value: 0.61}))

	got, ok := fc.Get(key)
	assert.True(t, ok)
	assert.Equal(t, "field-7", got.Name)
	assert.InDelta(t, 0.61, got.Value, 1e-9)
}

func TestFileCache_MissOnUnknownKey(t *testing.T) {
	fc := tempCache[payload](t, 0)

	_, ok := fc.Get("nope")
	assert.False(t, ok)
}

func TestFileCache_ExpiredEntryIsMiss(t *testing.T) {
	fc := tempCache[payload](t, time.Nanosecond)

	key := fc.GenerateKey("stale")
	assert.NoError(t, fc.Set(key, payload{Name: "old"}))
	time.Sleep(time.Millisecond)

	_, ok := fc.Get(key)
	assert.False(t, ok)
}

func TestGenerateKey_Deterministic(t *testing.T) {
	fc := tempCache[payload](t, 0)

	a := fc.GenerateKey("ndvi", 10, "2024-01-01")
	b := fc.GenerateKey("ndvi", 10, "2024-01-01")
	c := fc.GenerateKey("evi", 10, "2024-01-01")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 40)
}
