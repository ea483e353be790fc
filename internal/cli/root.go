// Package cli holds the ragctl commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/StudyRAG/internal/app"
	"github.com/akolanti/StudyRAG/internal/config"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/backend"
	"github.com/akolanti/StudyRAG/pkg/logger_i"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.AppConfig
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Manage and query the StudyRAG document store",
	Long: `ragctl runs the StudyRAG engine without the HTTP server.

Configuration comes from .env, the environment and the YAML file named by
STUDYRAG_CONFIG, exactly as for the API server. Logs go to stderr.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			loaded.Log.Level = logLevel
		}
		logger_i.InitTo(loaded.Log, cmd.ErrOrStderr())
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

// withEngine builds the full engine, provider clients included.
func withEngine(cmd *cobra.Command, run func(ctx context.Context, engine *app.App) error) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	engine, err := app.Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close()
	return run(ctx, engine)
}

// withStore opens only the configured vector store.
func withStore(cmd *cobra.Command, run func(ctx context.Context, store vectorDB.Store) error) error {
	store, err := backend.Open(cmd.Context(), cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()
	return run(cmd.Context(), store)
}
