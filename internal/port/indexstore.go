package port

import "ragchat/internal/domain"

// IndexStore persists a complete vector index as a unit.
type IndexStore interface {
	// Save replaces any existing index with entries. Either every entry is
	// written or the previous index is left untouched.
	Save(model domain.ModelInfo, entries []domain.Entry) error

	// Load reads the persisted index back in insertion order.
	Load() (domain.ModelInfo, []domain.Entry, error)

	// Exists reports whether an index is present.
	Exists() bool

	// Path returns where the index lives.
	Path() string
}
