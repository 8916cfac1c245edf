package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ragchat/config"
	"ragchat/internal/app"
	"ragchat/internal/logger"
)

var (
	cfgFile  string
	envFile  string
	logLevel string
	rootDir  string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "rag",
	Short: "Conversational question answering over an organization's web pages",
	Long: `rag ingests a fixed list of source pages into a local vector index and answers
questions about them, resolving follow-up questions against the conversation so far.

Example usage:
  rag ingest                                   # Build the index from configured sources
  rag serve                                    # Serve POST /chat on :8000
  rag ask -q "What services does Promtior offer?"
  rag chat                                     # Interactive conversation
  rag query -q "founded"                       # Inspect retrieval only`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := config.LoadEnv(envFile); err != nil {
			return err
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg.ApplyEnv()
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log, err = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./rag.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "directory searched for rag.yaml (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetLogger() *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// newApp builds the application context from the loaded config.
func newApp() (*app.Context, error) {
	return app.New(GetConfig(), GetLogger())
}

// loadApp builds the application context and loads the index for answering.
func loadApp() (*app.Context, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}
	if err := a.Load(); err != nil {
		return nil, fmt.Errorf("failed to load index: %w (run 'rag ingest' first)", err)
	}
	return a, nil
}
