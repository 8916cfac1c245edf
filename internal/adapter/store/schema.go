package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
	"ragchat/config"
	"ragchat/internal/domain"
)

// CurrentSchemaVersion is the current index file format.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 1

var keySchemaInfo = []byte("schema_info")

// SchemaInfo is the metadata record written with every index.
type SchemaInfo struct {
	Version    int       `json:"schema_version"`
	Model      string    `json:"model"`
	Dimension  int       `json:"dimension"`
	ConfigHash string    `json:"config_hash"`
	Count      int       `json:"count"`
	CreatedAt  time.Time `json:"created_at"`
}

func getSchemaInfo(tx *bbolt.Tx) (*SchemaInfo, error) {
	b := tx.Bucket(bucketMeta)
	if b == nil {
		return nil, fmt.Errorf("%w: missing %s bucket", domain.ErrIndexCorrupt, bucketMeta)
	}

	data := b.Get(keySchemaInfo)
	if data == nil {
		return nil, fmt.Errorf("%w: missing schema info", domain.ErrIndexCorrupt)
	}

	var info SchemaInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("%w: schema info: %v", domain.ErrIndexCorrupt, err)
	}
	if info.Version != CurrentSchemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %d (want %d)",
			domain.ErrIndexCorrupt, info.Version, CurrentSchemaVersion)
	}
	if info.Dimension <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", domain.ErrIndexCorrupt, info.Dimension)
	}
	return &info, nil
}

func putSchemaInfo(tx *bbolt.Tx, info *SchemaInfo) error {
	b, err := tx.CreateBucketIfNotExists(bucketMeta)
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
	}
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return b.Put(keySchemaInfo, data)
}

// ComputeConfigHash computes a hash of index-relevant configuration.
// A different hash means the index on disk was built with other settings.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		Sources      []string `json:"sources"`
		ChunkSize    int      `json:"chunk_size"`
		ChunkOverlap int      `json:"chunk_overlap"`
		EmbProvider  string   `json:"emb_provider"`
		EmbModel     string   `json:"emb_model"`
		EmbDimension int      `json:"emb_dimension"`
	}{
		Sources:      cfg.Sources,
		ChunkSize:    cfg.Index.ChunkSize,
		ChunkOverlap: cfg.Index.ChunkOverlap,
		EmbProvider:  cfg.Embedding.Provider,
		EmbModel:     cfg.Embedding.Model,
		EmbDimension: cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// CompatibilityResult describes how a stored index relates to the running configuration.
type CompatibilityResult struct {
	Stale  bool
	Reason string
}

// CheckCompatibility fails with ErrModelMismatch when vectors in the index
// were produced by a different embedding model than want. A changed config
// hash only marks the index stale; it can still be served.
func CheckCompatibility(stored domain.ModelInfo, storedHash string, want domain.ModelInfo, wantHash string) (*CompatibilityResult, error) {
	if stored.Name != want.Name || stored.Dimension != want.Dimension {
		return nil, fmt.Errorf("%w: index built with %s/%d, embedder is %s/%d",
			domain.ErrModelMismatch, stored.Name, stored.Dimension, want.Name, want.Dimension)
	}

	result := &CompatibilityResult{}
	if storedHash != "" && wantHash != "" && storedHash != wantHash {
		result.Stale = true
		result.Reason = "index configuration changed since last ingest"
	}
	return result, nil
}
