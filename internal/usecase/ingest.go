package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// ProgressFunc receives embedding progress as (chunks embedded, total chunks).
type ProgressFunc func(done, total int)

// IngestUseCase builds a vector index from the configured sources and
// persists it in one piece.
type IngestUseCase struct {
	fetcher     port.Fetcher
	chunker     port.Chunker
	embedder    port.Embedder
	store       port.IndexStore
	log         *zap.Logger
	concurrency int
	batchSize   int
}

type IngestOption func(*IngestUseCase)

func WithIngestLogger(log *zap.Logger) IngestOption {
	return func(u *IngestUseCase) { u.log = log }
}

// WithConcurrency bounds how many sources are fetched at once.
func WithConcurrency(n int) IngestOption {
	return func(u *IngestUseCase) {
		if n > 0 {
			u.concurrency = n
		}
	}
}

// WithBatchSize sets how many chunks are sent per embedding call.
func WithBatchSize(n int) IngestOption {
	return func(u *IngestUseCase) {
		if n > 0 {
			u.batchSize = n
		}
	}
}

func NewIngestUseCase(
	fetcher port.Fetcher,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.IndexStore,
	opts ...IngestOption,
) *IngestUseCase {
	u := &IngestUseCase{
		fetcher:     fetcher,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		log:         zap.NewNop(),
		concurrency: 4,
		batchSize:   100,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Ingest fetches, chunks and embeds every source, then replaces the stored
// index. Any failure aborts the run before the store is touched.
func (u *IngestUseCase) Ingest(ctx context.Context, sources []string, onProgress ProgressFunc) (*domain.IngestReport, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", domain.ErrInvalidInput)
	}

	start := time.Now()
	runID := uuid.NewString()
	log := u.log.With(zap.String("run_id", runID))
	log.Info("ingestion started", zap.Int("sources", len(sources)))

	docsBySource, err := u.fetchAll(ctx, sources)
	if err != nil {
		log.Error("fetch failed", zap.Error(err))
		return nil, err
	}

	report := &domain.IngestReport{
		RunID:     runID,
		PerSource: make(map[string]int, len(sources)),
		Path:      u.store.Path(),
	}

	var chunks []domain.Chunk
	for i, source := range sources {
		before := len(chunks)
		for _, doc := range docsBySource[i] {
			docChunks, err := u.chunker.Chunk(doc)
			if err != nil {
				return nil, fmt.Errorf("failed to chunk %s: %w", doc.Source, err)
			}
			chunks = append(chunks, docChunks...)
			report.Pages++
		}

		n := len(chunks) - before
		if n == 0 {
			err := fmt.Errorf("%w: %s: no text extracted", domain.ErrFetch, source)
			log.Error("empty source", zap.String("source", source))
			return nil, err
		}
		report.PerSource[source] = n
		log.Debug("chunked source", zap.String("source", source), zap.Int("chunks", n))
	}

	entries, err := u.embedAll(ctx, chunks, onProgress)
	if err != nil {
		log.Error("embedding failed", zap.Error(err))
		return nil, err
	}

	model := domain.ModelInfo{Name: u.embedder.ModelName(), Dimension: u.embedder.Dimension()}
	if err := u.store.Save(model, entries); err != nil {
		return nil, fmt.Errorf("failed to save index: %w", err)
	}

	report.Chunks = len(entries)
	report.Model = model
	report.Duration = time.Since(start)

	log.Info("ingestion finished",
		zap.Int("pages", report.Pages),
		zap.Int("chunks", report.Chunks),
		zap.String("model", model.Name),
		zap.String("path", report.Path),
		zap.Duration("elapsed", report.Duration),
	)

	return report, nil
}

// fetchAll fetches sources concurrently and returns documents in source order.
// The first failure cancels the remaining fetches.
func (u *IngestUseCase) fetchAll(ctx context.Context, sources []string) ([][]domain.Document, error) {
	results := make([][]domain.Document, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)

	for i, source := range sources {
		g.Go(func() error {
			docs, err := u.fetcher.Fetch(gctx, source)
			if err != nil {
				if !errors.Is(err, domain.ErrFetch) {
					err = fmt.Errorf("%w: %s: %w", domain.ErrFetch, source, err)
				}
				return err
			}
			results[i] = docs
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (u *IngestUseCase) embedAll(ctx context.Context, chunks []domain.Chunk, onProgress ProgressFunc) ([]domain.Entry, error) {
	entries := make([]domain.Entry, 0, len(chunks))
	total := len(chunks)
	if onProgress != nil {
		onProgress(0, total)
	}

	for i := 0; i < total; i += u.batchSize {
		end := i + u.batchSize
		if end > total {
			end = total
		}

		texts := make([]string, end-i)
		for j, c := range chunks[i:end] {
			texts[j] = c.Text
		}

		vectors, err := u.embedder.Embed(ctx, texts)
		if err != nil {
			if !errors.Is(err, domain.ErrEmbedding) {
				err = fmt.Errorf("%w: %w", domain.ErrEmbedding, err)
			}
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbedding, len(vectors), len(texts))
		}

		for j, c := range chunks[i:end] {
			entries = append(entries, domain.Entry{Chunk: c, Vector: vectors[j]})
		}

		if onProgress != nil {
			onProgress(end, total)
		}
	}

	return entries, nil
}
