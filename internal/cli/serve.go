package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ragchat/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat chain over HTTP",
	Long: `Load the index and serve POST /chat, POST /chat/invoke and GET /healthz.
When no index exists yet, ingestion runs first.

Examples:
  rag serve
  rag serve --addr 127.0.0.1:9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()
	log := GetLogger()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	if _, err := a.EnsureIndex(ctx, nil); err != nil {
		return err
	}
	if err := a.Load(); err != nil {
		return fmt.Errorf("failed to load index: %w", err)
	}

	chain, err := a.Chain()
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, chain, server.Health{
		Chunks: a.Index().Len(),
		Model:  a.Index().Model().Name,
	}, log.Named("http"))

	log.Info("serving", zap.String("addr", cfg.Server.Addr))
	return srv.Run(ctx)
}
