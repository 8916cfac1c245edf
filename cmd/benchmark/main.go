package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ragchat/config"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/memstore"
	"ragchat/internal/adapter/store"
	"ragchat/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding rag.yaml")
	envFile := flag.String("env", ".env", "dotenv file")
	topK := flag.Int("k", 3, "Number of results")
	flag.Parse()

	queries := flag.Args()
	if len(queries) == 0 {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . \"query\" [\"query\" ...]")
		fmt.Println("\nReports for each query:")
		fmt.Println("  1. Embedding latency")
		fmt.Println("  2. Top-k similarity and the sources retrieved")
		os.Exit(1)
	}

	if err := config.LoadEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()

	retriever, index, err := setupRetriever(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Retrieval not available: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Index:  %s\n", cfg.Index.Path)
	fmt.Printf("Chunks: %d\n", index.Len())
	fmt.Printf("Model:  %s (%d dimensions)\n", index.Model().Name, index.Model().Dimension)
	fmt.Println()

	var totalTop, totalAvg float64
	var totalLatency time.Duration
	for _, q := range queries {
		top, avg, latency := runQuery(retriever, q, *topK)
		totalTop += top
		totalAvg += avg
		totalLatency += latency
	}

	n := float64(len(queries))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("SUMMARY (%d queries):\n", len(queries))
	fmt.Printf("  Mean top-1 similarity:   %.3f\n", totalTop/n)
	fmt.Printf("  Mean top-k similarity:   %.3f\n", totalAvg/n)
	fmt.Printf("  Mean retrieval latency:  %s\n", totalLatency/time.Duration(len(queries)))
}

func runQuery(retriever *usecase.RetrieveUseCase, query string, k int) (top, avg float64, latency time.Duration) {
	fmt.Printf("Query: %q\n", query)
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	results, err := retriever.Search(context.Background(), query, k)
	latency = time.Since(start)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	if len(results) == 0 {
		fmt.Println("No results.")
		return 0, 0, latency
	}

	total := 0.0
	for i, r := range results {
		preview := strings.ReplaceAll(r.Chunk.Text, "\n", " ")
		if runes := []rune(preview); len(runes) > 150 {
			preview = string(runes[:150]) + "..."
		}
		total += r.Score
		fmt.Printf("%d. [%s %.3f] %s #%d\n", i+1, rating(r.Score), r.Score, r.Chunk.Source, r.Chunk.Ordinal)
		fmt.Printf("   %s\n\n", preview)
	}

	fmt.Printf("Latency: %s\n\n", latency)
	return results[0].Score, total / float64(len(results)), latency
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func setupRetriever(cfg *config.Config) (*usecase.RetrieveUseCase, *memstore.MemoryIndex, error) {
	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, nil, fmt.Errorf("embedder init failed: %w", err)
	}

	st := store.NewBoltIndexStore(cfg.Index.Path, store.ComputeConfigHash(cfg))
	model, entries, err := st.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("%w - run 'rag ingest' first", err)
	}

	index, err := memstore.NewMemoryIndex(model, entries)
	if err != nil {
		return nil, nil, err
	}

	retriever, err := usecase.NewRetrieveUseCase(embedder, index)
	if err != nil {
		return nil, nil, err
	}
	return retriever, index, nil
}
