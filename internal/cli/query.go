package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search the index without generating an answer",
	Long: `Embed the query and print the nearest chunks with their similarity scores.
Useful to check what context the chat chain would see.

Examples:
  rag query -q "who founded the company"
  rag query -q "services" --top-k 5 --json`,
	Args: cobra.NoArgs,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	chain, err := a.Chain()
	if err != nil {
		return err
	}

	chunks, err := chain.Retrieve(cmd.Context(), queryText, queryTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	results := usecase.ToChunkResults(chunks)

	if queryJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for _, r := range results {
		fmt.Printf("--- [%d] %s #%d (score: %.3f) ---\n", r.Rank, r.Source, r.Ordinal, r.Score)
		fmt.Println(truncate(r.Text, 500))
		fmt.Println()
	}
	return nil
}

// truncate shortens s to at most n runes for display.
func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
