package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ragchat/internal/domain"
)

var (
	askQuestion string
	askHistory  string
	askJSON     bool
	askSources  bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a single question",
	Long: `Run one turn of the chat chain. Pass the previous conversation with --history
to ask a follow-up question.

Examples:
  rag ask -q "What does Promtior do?"
  rag ask -q "When were they founded?" --history "Q: What is Promtior? A: An AI consulting company."
  rag ask -q "hello" --json`,
	Args: cobra.NoArgs,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.Flags().StringVar(&askHistory, "history", "", "chat history transcript")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "list the retrieved sources")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	chain, err := a.Chain()
	if err != nil {
		return err
	}

	ans, err := chain.Answer(cmd.Context(), domain.Turn{Question: askQuestion, ChatHistory: askHistory})
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(ans, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(ans.Text)
	if askSources {
		printSources(ans)
	}
	return nil
}

func printSources(ans *domain.Answer) {
	if ans.StandaloneQuestion != "" {
		fmt.Printf("\n(standalone question: %s)\n", ans.StandaloneQuestion)
	}
	for i, s := range ans.Sources {
		fmt.Printf("  [%d] %s (score: %.3f)\n", i+1, s.Source, s.Score)
	}
}
