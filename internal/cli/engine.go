package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/akolanti/StudyRAG/internal/app"
	"github.com/akolanti/StudyRAG/internal/domain/commonModels"
	"github.com/akolanti/StudyRAG/internal/mcpServer"
	"github.com/akolanti/StudyRAG/internal/watcher"
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest one or more documents",
	Long: `Ingest PDF, DOCX or TXT files. A document already in the store under the
same name is replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the ingested material",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Ingest documents as they appear in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the ask, stats and list_documents tools over MCP stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout.

Client configuration:
  {
    "mcpServers": {
      "studyrag": {"command": "/path/to/ragctl", "args": ["mcp"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

var (
	ingestName    string
	askSession    string
	watchExisting bool
)

func init() {
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "store the document under this name (single file only)")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "session to continue (default: default)")
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "ingest the files already in the directory first")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestName != "" && len(args) > 1 {
		return fmt.Errorf("--name needs exactly one file, got %d", len(args))
	}
	return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
		out := cmd.OutOrStdout()
		failed := 0
		for _, path := range args {
			name := ingestName
			if name == "" {
				name = filepath.Base(path)
			}
			result, err := engine.Service.Ingest(ctx, path, name)
			if err != nil {
				failed++
				fmt.Fprintf(out, "FAILED %s: %v\n", path, err)
				continue
			}
			printIngestResult(cmd, result)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(args))
		}
		return nil
	})
}

func printIngestResult(cmd *cobra.Command, result commonModels.IngestResult) {
	out := cmd.OutOrStdout()
	verb := "ingested"
	if result.Replaced {
		verb = "replaced"
	}
	fmt.Fprintf(out, "%s %s: %d pages, %d chunks, %d images\n",
		verb, result.Filename, result.PageCount, result.TotalChunks, result.Images.Saved)
	if result.Images.Warning != "" {
		fmt.Fprintf(out, "  warning: %s\n", result.Images.Warning)
	}
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
		result, err := engine.Service.Answer(ctx, question, askSession)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Answer)
		if len(result.Sources) > 0 {
			fmt.Fprintln(out, "\nSources:")
			for i, src := range result.Sources {
				fmt.Fprintf(out, "  %d. %s p.%d (%.3f)\n", i+1, src.Filename, src.Page, src.Similarity)
			}
		}
		return nil
	})
}

func runWatch(cmd *cobra.Command, args []string) error {
	return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
		w, err := watcher.New(watcher.Config{
			Dir:      args[0],
			Ingester: engine.Service,
			OnResult: func(path string, result commonModels.IngestResult, err error) {
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "FAILED %s: %v\n", path, err)
					return
				}
				printIngestResult(cmd, result)
			},
		})
		if err != nil {
			return err
		}
		if watchExisting {
			if err := w.IngestExisting(ctx); err != nil {
				return err
			}
		}
		return w.Watch(ctx)
	})
}

func runMCP(cmd *cobra.Command, _ []string) error {
	return withEngine(cmd, func(ctx context.Context, engine *app.App) error {
		server, err := mcpServer.NewServer(engine.Service)
		if err != nil {
			return err
		}
		return server.Run(ctx)
	})
}
