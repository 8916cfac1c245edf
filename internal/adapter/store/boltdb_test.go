package store

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/config"
	"ragchat/internal/adapter/memstore"
	"ragchat/internal/domain"
)

var testModel = domain.ModelInfo{Name: "hash-test", Dimension: 4}

func testEntries(n int) []domain.Entry {
	entries := make([]domain.Entry, n)
	for i := range entries {
		entries[i] = domain.Entry{
			Chunk: domain.Chunk{
				ID:      fmt.Sprintf("c%d", i),
				DocID:   "doc",
				Source:  "https://example.com",
				Ordinal: i,
				Offset:  i * 450,
				Text:    fmt.Sprintf("chunk number %d", i),
			},
			Vector: []float32{float32(i%3) + 0.1, float32(i % 2), 0.333333, float32(-i) / 7},
		}
	}
	return entries
}

func TestBoltIndexStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectorstore", "index.db")
	s := NewBoltIndexStore(path, "hash1")

	assert.False(t, s.Exists())
	entries := testEntries(12)
	require.NoError(t, s.Save(testModel, entries))
	assert.True(t, s.Exists())

	model, loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, testModel, model)
	assert.Equal(t, entries, loaded)

	info, err := s.Info()
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, info.Version)
	assert.Equal(t, 12, info.Count)
	assert.Equal(t, "hash1", info.ConfigHash)
}

func TestBoltIndexStore_LoadPreservesSearchResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s := NewBoltIndexStore(path, "")
	entries := testEntries(20)

	before, err := memstore.NewMemoryIndex(testModel, entries)
	require.NoError(t, err)
	require.NoError(t, s.Save(testModel, entries))

	model, loaded, err := s.Load()
	require.NoError(t, err)
	after, err := memstore.NewMemoryIndex(model, loaded)
	require.NoError(t, err)

	for _, q := range [][]float32{{1, 0, 0, 0}, {0.2, 1, 0.3, -1}, {0, 0, 1, 0}} {
		want, err := before.Search(q, 3)
		require.NoError(t, err)
		got, err := after.Search(q, 3)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestBoltIndexStore_LoadMissing(t *testing.T) {
	s := NewBoltIndexStore(filepath.Join(t.TempDir(), "none.db"), "")
	_, _, err := s.Load()
	assert.True(t, errors.Is(err, domain.ErrIndexNotFound))
}

func TestBoltIndexStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("not a bolt file "), 2048), 0600))

	s := NewBoltIndexStore(path, "")
	_, _, err := s.Load()
	assert.True(t, errors.Is(err, domain.ErrIndexCorrupt), "got %v", err)
}

func TestBoltIndexStore_FailedSaveKeepsPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s := NewBoltIndexStore(path, "")
	entries := testEntries(3)
	require.NoError(t, s.Save(testModel, entries))

	bad := testEntries(5)
	bad[4].Vector = []float32{1}
	err := s.Save(testModel, bad)
	require.Error(t, err)

	_, loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)

	_, statErr := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed")
}

func TestBoltIndexStore_SaveReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s := NewBoltIndexStore(path, "")
	require.NoError(t, s.Save(testModel, testEntries(8)))
	require.NoError(t, s.Save(testModel, testEntries(2)))

	_, loaded, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestCheckCompatibility(t *testing.T) {
	_, err := CheckCompatibility(testModel, "a", domain.ModelInfo{Name: "other", Dimension: 4}, "a")
	assert.True(t, errors.Is(err, domain.ErrModelMismatch))

	_, err = CheckCompatibility(testModel, "a", domain.ModelInfo{Name: "hash-test", Dimension: 8}, "a")
	assert.True(t, errors.Is(err, domain.ErrModelMismatch))

	res, err := CheckCompatibility(testModel, "a", testModel, "b")
	require.NoError(t, err)
	assert.True(t, res.Stale)

	res, err = CheckCompatibility(testModel, "a", testModel, "a")
	require.NoError(t, err)
	assert.False(t, res.Stale)
}

func TestComputeConfigHash(t *testing.T) {
	cfg := config.DefaultConfig()
	h1 := ComputeConfigHash(cfg)
	assert.Equal(t, h1, ComputeConfigHash(config.DefaultConfig()))

	cfg.Index.ChunkSize = 400
	assert.NotEqual(t, h1, ComputeConfigHash(cfg))
}
