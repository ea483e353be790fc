package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/akolanti/StudyRAG/internal/rag/vectorDB"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show document, page and chunk counts",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, store vectorDB.Store) error {
		docs, err := store.ListDocuments(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(docs) == 0 {
			fmt.Fprintln(out, "No documents ingested.")
			return nil
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "FILENAME\tPAGES\tCHUNKS\tCHARS\tADDED")
		for _, d := range docs {
			added := "-"
			if !d.AddedAt.IsZero() {
				added = d.AddedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\n", d.Filename, d.PageCount, d.TotalChunks, d.TotalChars, added)
		}
		return tw.Flush()
	})
}

func runStats(cmd *cobra.Command, _ []string) error {
	return withStore(cmd, func(ctx context.Context, store vectorDB.Store) error {
		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backend:   %s\n", store.Backend())
		fmt.Fprintf(out, "documents: %d\n", stats.DocumentCount)
		fmt.Fprintf(out, "pages:     %d\n", stats.TotalPages)
		fmt.Fprintf(out, "chunks:    %d\n", stats.TotalChunks)
		return nil
	})
}
