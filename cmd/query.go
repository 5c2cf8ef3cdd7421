package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adalundhe/scout/core/config"
	"github.com/adalundhe/scout/core/events"
	"github.com/adalundhe/scout/core/lsp"
	"github.com/adalundhe/scout/core/retrieval"
	"github.com/adalundhe/scout/core/storage"
)

// =============================================================================
// Query Command Flags
// =============================================================================

var (
	queryRoot      string
	queryFile      string
	queryMaxItems  int
	queryWorkspace bool
	queryJSON      bool
)

// =============================================================================
// Query Command
// =============================================================================

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Retrieve ranked context for a query",
	Long: `Run the context retrieval pipeline for a query and print the ranked
items, summary, and suggestions.

Examples:
  scout query "parseConfig"
  scout query "error handling" --file src/config.ts
  scout query "Loader" --workspace --max-items 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringVarP(&queryRoot, "root", "r", ".", "Workspace root")
	queryCmd.Flags().StringVarP(&queryFile, "file", "f", "", "Current file for file-scoped sources")
	queryCmd.Flags().IntVarP(&queryMaxItems, "max-items", "n", 0, "Result cap (default from config)")
	queryCmd.Flags().BoolVarP(&queryWorkspace, "workspace", "w", true, "Enable workspace-wide search")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output as JSON")
}

// newEngine assembles the retrieval engine over a workspace stack.
func newEngine(cfg *config.Config, stack *workspaceStack, bus *events.Bus, logger *slog.Logger) (*retrieval.Engine, error) {
	client, err := lsp.NewStaticClient()
	if err != nil {
		return nil, err
	}

	return retrieval.NewEngine(retrieval.EngineConfig{
		QueryHistoryCap: cfg.Retrieval.QueryHistoryCap,
		ItemHistoryCap:  cfg.Retrieval.ItemHistoryCap,
	}, client, stack.index, stack.loader, bus, logger), nil
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, dirs, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	stack, err := openWorkspace(dirs, queryRoot)
	if err != nil {
		return err
	}
	defer stack.Close()

	bus := newEventBus(logger)
	defer bus.Close()

	engine, err := newEngine(cfg, stack, bus, logger)
	if err != nil {
		return err
	}

	maxItems := queryMaxItems
	if maxItems <= 0 {
		maxItems = cfg.Retrieval.MaxItems
	}

	analysis := engine.GetContext(cmd.Context(), &retrieval.ContextRequest{
		Query:          strings.Join(args, " "),
		CurrentFile:    queryFile,
		MaxItems:       maxItems,
		WorkspaceScope: queryWorkspace,
	})

	w := cmd.OutOrStdout()
	if queryFile != "" && !queryJSON {
		if server := lsp.NewSelector().SelectServer(stack.root, queryFile); server != nil {
			fmt.Fprintf(w, "%slanguage server:%s %s\n\n", colorGray, colorReset, server.Name)
		}
	}

	return printAnalysis(w, analysis)
}

// printAnalysis renders a context analysis.
func printAnalysis(w io.Writer, analysis *retrieval.ContextAnalysis) error {
	if queryJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(analysis)
	}

	fmt.Fprintf(w, "%s%s%s\n\n", colorBold, analysis.Summary, colorReset)

	for i, item := range analysis.Items {
		fmt.Fprintf(w, "%s%2d.%s %s%s%s (%s%s%s, score %.2f",
			colorGray, i+1, colorReset,
			colorCyan, item.SourcePath, colorReset,
			colorBlue, item.Kind, colorReset,
			item.RelevanceScore,
		)
		if item.Position != nil {
			fmt.Fprintf(w, ", line %d", item.Position.Line+1)
		}
		fmt.Fprint(w, ")\n")

		if item.Metadata.SymbolName != "" {
			fmt.Fprintf(w, "    %ssymbol:%s %s\n", colorGray, colorReset, item.Metadata.SymbolName)
		}
		snippet := storage.Truncate(item.Text, 200)
		for _, line := range strings.Split(strings.TrimRight(snippet, "\n"), "\n") {
			fmt.Fprintf(w, "    %s%s%s\n", colorGray, line, colorReset)
		}
	}

	if len(analysis.Suggestions) > 0 {
		fmt.Fprintf(w, "\n%sSuggestions:%s\n", colorBold, colorReset)
		for _, suggestion := range analysis.Suggestions {
			fmt.Fprintf(w, "  - %s\n", suggestion)
		}
	}

	if len(analysis.RelatedQueries) > 0 {
		fmt.Fprintf(w, "\n%sRelated queries:%s %s\n", colorBold, colorReset,
			strings.Join(analysis.RelatedQueries, ", "))
	}

	fmt.Fprintf(w, "\n%sTotal relevance:%s %.2f\n", colorGray, colorReset, analysis.TotalRelevance)
	return nil
}

// =============================================================================
// Status Command
// =============================================================================

var statusRoot string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status for a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		indexRoot = statusRoot
		return runIndexStatus(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringVarP(&statusRoot, "root", "r", ".", "Workspace root")
}
