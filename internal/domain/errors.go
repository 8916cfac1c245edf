package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch indicates a source document could not be retrieved.
	// Fatal to the ingestion run; nothing is persisted.
	ErrFetch = errors.New("fetch failed")

	// ErrEmbedding indicates the embedding service call failed.
	ErrEmbedding = errors.New("embedding service failed")

	// ErrGeneration indicates the language model call failed.
	ErrGeneration = errors.New("generation service failed")

	// ErrIndexNotFound indicates no persisted index exists at the configured path.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexCorrupt indicates the persisted index could not be decoded.
	// Recovery requires re-ingestion.
	ErrIndexCorrupt = errors.New("index corrupt")

	// ErrModelMismatch indicates the index was built by a different embedding model.
	ErrModelMismatch = errors.New("embedding model mismatch")

	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingField indicates a prompt template was rendered without a required field.
	ErrMissingField = errors.New("missing template field")
)

// StageError records which chain stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
