package cli

import (
	"fmt"

	"github.com/akolanti/StudyRAG/internal/migrate"
	"github.com/akolanti/StudyRAG/internal/rag/vectorDB/backend"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy every document between two backends",
	Long: `Copy every document with its chunks and images from one configured backend
to another. Target documents with the same filename are replaced.

Example:
  ragctl migrate --from mysql --to postgres`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

var (
	migrateFrom string
	migrateTo   string
)

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "source backend (sqlite, mysql, postgres)")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "target backend (sqlite, mysql, postgres)")
	_ = migrateCmd.MarkFlagRequired("from")
	_ = migrateCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	if migrateFrom == migrateTo {
		return fmt.Errorf("--from and --to are both %q", migrateFrom)
	}
	ctx := cmd.Context()

	from, err := backend.OpenBackend(ctx, migrateFrom, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer from.Close()
	to, err := backend.OpenBackend(ctx, migrateTo, cfg.Storage)
	if err != nil {
		return fmt.Errorf("opening target: %w", err)
	}
	defer to.Close()

	report, err := migrate.New(from, to).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "migrated %d documents, %d chunks, %d images from %s to %s\n",
		report.Documents, report.Chunks, report.Images, from.Backend(), to.Backend())
	if report.SkippedChunks > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "skipped %d chunks with unreadable embeddings\n", report.SkippedChunks)
	}
	return nil
}
