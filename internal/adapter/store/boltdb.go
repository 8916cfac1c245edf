package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
	"ragchat/internal/domain"
)

var (
	bucketMeta    = []byte("meta")
	bucketEntries = []byte("entries")
)

// BoltIndexStore persists a whole vector index as a single bbolt file.
// Save never touches the live file until the replacement is complete.
type BoltIndexStore struct {
	path       string
	configHash string
	now        func() time.Time
}

func NewBoltIndexStore(path, configHash string) *BoltIndexStore {
	return &BoltIndexStore{
		path:       path,
		configHash: configHash,
		now:        time.Now,
	}
}

func (s *BoltIndexStore) Path() string {
	return s.path
}

type storedEntry struct {
	ID      string    `json:"id"`
	DocID   string    `json:"doc_id"`
	Source  string    `json:"source"`
	Ordinal int       `json:"ordinal"`
	Offset  int       `json:"offset"`
	Text    string    `json:"text"`
	Vector  []float32 `json:"v"`
}

func (s *BoltIndexStore) Exists() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Save writes model and entries to a temporary file next to the index and
// renames it into place. On any failure the previous index is left as it was.
func (s *BoltIndexStore) Save(model domain.ModelInfo, entries []domain.Entry) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale temp index: %w", err)
	}

	if err := s.writeFile(tmp, model, entries); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

func (s *BoltIndexStore) writeFile(path string, model domain.ModelInfo, entries []domain.Entry) error {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		eb, err := tx.CreateBucket(bucketEntries)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketEntries, err)
		}

		for i, e := range entries {
			if len(e.Vector) != model.Dimension {
				return fmt.Errorf("entry %d: vector dimension mismatch: expected %d, got %d", i, model.Dimension, len(e.Vector))
			}
			data, err := json.Marshal(storedEntry{
				ID:      e.Chunk.ID,
				DocID:   e.Chunk.DocID,
				Source:  e.Chunk.Source,
				Ordinal: e.Chunk.Ordinal,
				Offset:  e.Chunk.Offset,
				Text:    e.Chunk.Text,
				Vector:  e.Vector,
			})
			if err != nil {
				return err
			}
			if err := eb.Put(entryKey(i), data); err != nil {
				return err
			}
		}

		return putSchemaInfo(tx, &SchemaInfo{
			Version:    CurrentSchemaVersion,
			Model:      model.Name,
			Dimension:  model.Dimension,
			ConfigHash: s.configHash,
			Count:      len(entries),
			CreatedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		db.Close()
		return err
	}

	return db.Close()
}

// Load reads the whole index back in insertion order.
func (s *BoltIndexStore) Load() (domain.ModelInfo, []domain.Entry, error) {
	var model domain.ModelInfo
	var entries []domain.Entry

	err := s.view(func(tx *bbolt.Tx) error {
		info, err := getSchemaInfo(tx)
		if err != nil {
			return err
		}
		model = domain.ModelInfo{Name: info.Model, Dimension: info.Dimension}

		eb := tx.Bucket(bucketEntries)
		if eb == nil {
			return fmt.Errorf("%w: missing %s bucket", domain.ErrIndexCorrupt, bucketEntries)
		}

		entries = make([]domain.Entry, 0, info.Count)
		return eb.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("%w: entry %x: %v", domain.ErrIndexCorrupt, k, err)
			}
			if len(stored.Vector) != info.Dimension {
				return fmt.Errorf("%w: entry %s has dimension %d, want %d",
					domain.ErrIndexCorrupt, stored.ID, len(stored.Vector), info.Dimension)
			}
			entries = append(entries, domain.Entry{
				Chunk: domain.Chunk{
					ID:      stored.ID,
					DocID:   stored.DocID,
					Source:  stored.Source,
					Ordinal: stored.Ordinal,
					Offset:  stored.Offset,
					Text:    stored.Text,
				},
				Vector: stored.Vector,
			})
			return nil
		})
	})
	if err != nil {
		return domain.ModelInfo{}, nil, err
	}

	return model, entries, nil
}

// Info returns the index metadata without decoding entries.
func (s *BoltIndexStore) Info() (*SchemaInfo, error) {
	var info *SchemaInfo
	err := s.view(func(tx *bbolt.Tx) error {
		var err error
		info, err = getSchemaInfo(tx)
		return err
	})
	return info, err
}

func (s *BoltIndexStore) view(fn func(tx *bbolt.Tx) error) error {
	if !s.Exists() {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, s.path)
	}

	db, err := bbolt.Open(s.path, 0600, &bbolt.Options{ReadOnly: true, Timeout: time.Second})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrIndexCorrupt, err)
	}
	defer db.Close()

	return db.View(fn)
}

func entryKey(i int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(i))
	return key
}
