package cli

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

var ingestQuiet bool

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index from the configured sources",
	Long: `Fetch every configured source, split it into overlapping chunks, embed the
chunks and write the index. The previous index is replaced only when the whole
run succeeds.

Examples:
  rag ingest
  VECTORSTORE_PATH=/data/vectorstore rag ingest`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestQuiet, "quiet", false, "do not render the progress bar")
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	cfg := GetConfig()
	fmt.Printf("Ingesting %d sources into %s...\n", len(cfg.Sources), cfg.Index.Path)

	var onProgress usecase.ProgressFunc
	if !ingestQuiet {
		onProgress = newProgress("Embedding")
	}

	report, err := a.Ingest(cmd.Context(), onProgress)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printReport(report)
	return nil
}

func printReport(report *domain.IngestReport) {
	fmt.Printf("\nIngested %d chunks from %d pages into %s\n", report.Chunks, report.Pages, report.Path)

	sources := make([]string, 0, len(report.PerSource))
	for s := range report.PerSource {
		sources = append(sources, s)
	}
	sort.Strings(sources)
	for _, s := range sources {
		fmt.Printf("  %-60s %d chunks\n", s, report.PerSource[s])
	}
	fmt.Printf("  Model:    %s (%d dimensions)\n", report.Model.Name, report.Model.Dimension)
	fmt.Printf("  Duration: %s\n", formatDuration(report.Duration))
}

// newProgress renders embedding progress; the bar is created on the first
// callback, once the total is known.
func newProgress(label string) usecase.ProgressFunc {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)

	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription(fmt.Sprintf("[cyan]%s[reset]", label)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
