// Package app wires configuration into the services used by the CLI and the
// HTTP server. A Context is built once per process and passed explicitly.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ragchat/config"
	"ragchat/internal/adapter/cache"
	"ragchat/internal/adapter/chunker"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/fetch"
	"ragchat/internal/adapter/fs"
	"ragchat/internal/adapter/llm"
	"ragchat/internal/adapter/memstore"
	"ragchat/internal/adapter/store"
	"ragchat/internal/domain"
	"ragchat/internal/port"
	"ragchat/internal/usecase"
)

// Context holds the loaded index and the service clients for one process.
// After Load it is read-only and safe for concurrent use.
type Context struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *store.BoltIndexStore
	embedder port.Embedder
	llm      port.LLM
	fetcher  port.Fetcher

	index *memstore.MemoryIndex
	cache *cache.QueryCache
	chain *usecase.ChainUseCase
}

type Option func(*Context)

// WithEmbedder replaces the embedder built from config.
func WithEmbedder(e port.Embedder) Option {
	return func(a *Context) { a.embedder = e }
}

// WithLLM replaces the chat model built from config.
func WithLLM(l port.LLM) Option {
	return func(a *Context) { a.llm = l }
}

// WithFetcher replaces the source fetcher built from config.
func WithFetcher(f port.Fetcher) Option {
	return func(a *Context) { a.fetcher = f }
}

// New prepares a Context. The index is not read until Load; the chat model
// is only created by Load, so ingestion runs without chat credentials.
func New(cfg *config.Config, log *zap.Logger, opts ...Option) (*Context, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Context{
		cfg:   cfg,
		log:   log,
		store: store.NewBoltIndexStore(cfg.Index.Path, store.ComputeConfigHash(cfg)),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.embedder == nil {
		emb, err := embedding.New(cfg.Embedding)
		if err != nil {
			return nil, err
		}
		a.embedder = emb
	}

	if a.fetcher == nil {
		a.fetcher = newFetcher(cfg.Fetch, log)
	}

	return a, nil
}

func newFetcher(cfg config.FetchConfig, log *zap.Logger) port.Fetcher {
	opts := []fetch.HTTPOption{
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithLogger(log.Named("fetch")),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, fetch.WithUserAgent(cfg.UserAgent))
	}
	web := fetch.NewHTTPFetcher(cfg.Timeout, opts...)
	return fetch.NewRouter().
		Handle("http://", web).
		Handle("https://", web).
		Handle(fs.Scheme, fs.NewFetcher(fs.NewWalker(nil)))
}

func (a *Context) Config() *config.Config {
	return a.cfg
}

func (a *Context) Logger() *zap.Logger {
	return a.log
}

func (a *Context) Store() *store.BoltIndexStore {
	return a.store
}

func (a *Context) Embedder() port.Embedder {
	return a.embedder
}

// Ingest rebuilds the index from the configured sources. It does not reload
// an index that is already being served.
func (a *Context) Ingest(ctx context.Context, onProgress usecase.ProgressFunc) (*domain.IngestReport, error) {
	ch, err := chunker.NewRecursiveChunker(a.cfg.Index.ChunkSize, a.cfg.Index.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	uc := usecase.NewIngestUseCase(a.fetcher, ch, a.embedder, a.store,
		usecase.WithIngestLogger(a.log.Named("ingest")),
		usecase.WithConcurrency(a.cfg.Fetch.Concurrency),
		usecase.WithBatchSize(a.cfg.Embedding.BatchSize),
	)
	return uc.Ingest(ctx, a.cfg.Sources, onProgress)
}

// EnsureIndex runs ingestion when no index exists yet. It reports whether it did.
func (a *Context) EnsureIndex(ctx context.Context, onProgress usecase.ProgressFunc) (bool, error) {
	if a.store.Exists() {
		return false, nil
	}

	a.log.Info("no index found, running ingestion", zap.String("path", a.store.Path()))
	if _, err := a.Ingest(ctx, onProgress); err != nil {
		return false, fmt.Errorf("bootstrap ingestion failed: %w", err)
	}
	return true, nil
}

// Load reads the persisted index and builds the chain over it.
func (a *Context) Load() error {
	info, err := a.store.Info()
	if err != nil {
		return err
	}

	model, entries, err := a.store.Load()
	if err != nil {
		return err
	}

	want := domain.ModelInfo{Name: a.embedder.ModelName(), Dimension: a.embedder.Dimension()}
	compat, err := store.CheckCompatibility(model, info.ConfigHash, want, store.ComputeConfigHash(a.cfg))
	if err != nil {
		return err
	}
	if compat.Stale {
		a.log.Warn("serving stale index, run ingest to rebuild", zap.String("reason", compat.Reason))
	}

	index, err := memstore.NewMemoryIndex(model, entries)
	if err != nil {
		return err
	}

	if a.llm == nil {
		chat, err := llm.New(a.cfg.Chat)
		if err != nil {
			return fmt.Errorf("failed to create chat model: %w", err)
		}
		a.llm = chat
	}

	retriever, err := usecase.NewRetrieveUseCase(a.embedder, index)
	if err != nil {
		return err
	}

	var r port.Retriever = retriever
	var qc *cache.QueryCache
	if a.cfg.Retrieve.CacheSize > 0 {
		qc = cache.NewQueryCache(a.cfg.Retrieve.CacheSize, a.cfg.Retrieve.CacheTTL)
		r = cache.NewCachedRetriever(retriever, qc)
	}

	org := a.cfg.Chat.Organization
	a.chain = usecase.NewChainUseCase(
		usecase.NewCondenseUseCase(a.llm, org, a.cfg.Chat.MaxTokens),
		r,
		usecase.NewSynthesizeUseCase(a.llm, org, a.cfg.Chat.Temperature, a.cfg.Chat.MaxTokens),
		a.cfg.Retrieve.TopK,
		a.log.Named("chain"),
	)
	a.index = index
	a.cache = qc

	a.log.Info("index loaded",
		zap.String("path", a.store.Path()),
		zap.Int("chunks", index.Len()),
		zap.String("embedding_model", model.Name),
		zap.String("chat_model", a.llm.ModelName()),
	)
	return nil
}

// ErrNotLoaded is returned when the chain is used before Load.
var ErrNotLoaded = errors.New("index not loaded")

// Chain returns the loaded chain.
func (a *Context) Chain() (*usecase.ChainUseCase, error) {
	if a.chain == nil {
		return nil, ErrNotLoaded
	}
	return a.chain, nil
}

// Index returns the loaded index, or nil before Load.
func (a *Context) Index() *memstore.MemoryIndex {
	return a.index
}

// CacheStats returns query cache statistics; ok is false when caching is off.
func (a *Context) CacheStats() (cache.Stats, bool) {
	if a.cache == nil {
		return cache.Stats{}, false
	}
	return a.cache.Stats(), true
}
