package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ragchat/internal/domain"
)

var chatSources bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold a conversation in the terminal",
	Long: `Read questions from standard input and answer them one by one. Each answer
is appended to a "Q: ... A: ..." transcript that is sent with the next question,
so follow-ups like "what else do they do?" resolve against earlier turns.

Type /reset to forget the conversation and /exit (or Ctrl-D) to quit.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatSources, "sources", false, "list the retrieved sources after each answer")
}

type answerFunc func(ctx context.Context, turn domain.Turn) (*domain.Answer, error)

func runChat(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	chain, err := a.Chain()
	if err != nil {
		return err
	}

	fmt.Printf("Ask about %s. /reset clears the conversation, /exit quits.\n", GetConfig().Chat.Organization)
	return chatLoop(cmd.Context(), os.Stdin, os.Stdout, chain.Answer)
}

// chatLoop answers questions read line by line from in. A failed turn is
// reported and left out of the transcript.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, answer answerFunc) error {
	scanner := bufio.NewScanner(in)
	var history string

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch question {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/reset":
			history = ""
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		ans, err := answer(ctx, domain.Turn{Question: question, ChatHistory: history})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		fmt.Fprintln(out, ans.Text)
		if chatSources {
			for i, s := range ans.Sources {
				fmt.Fprintf(out, "  [%d] %s (score: %.3f)\n", i+1, s.Source, s.Score)
			}
		}
		history = appendTurn(history, question, ans.Text)
	}
}

// appendTurn adds one exchange to a transcript, one "Q: ... A: ..." line per turn.
func appendTurn(history, question, answer string) string {
	turn := fmt.Sprintf("Q: %s A: %s", question, strings.Join(strings.Fields(answer), " "))
	if history == "" {
		return turn
	}
	return history + "\n" + turn
}
