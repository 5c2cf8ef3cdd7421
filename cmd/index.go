package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/adalundhe/scout/core/detect"
	"github.com/adalundhe/scout/core/search"
	"github.com/adalundhe/scout/core/storage"
)

// rootMarkers are the files that identify a workspace root when the user does
// not name one explicitly.
var rootMarkers = []string{"go.mod", "package.json", "Cargo.toml", "pyproject.toml", "pom.xml"}

// =============================================================================
// Index Command Flags
// =============================================================================

var (
	indexRoot    string
	indexForce   bool
	indexWatch   bool
	indexJSON    bool
	indexInclude []string
	indexExclude []string
)

// =============================================================================
// Index Command
// =============================================================================

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build or update the workspace index",
	Long: `Build or incrementally update the search index for a workspace.

Unchanged files (tracked by checksum) are skipped unless --force is given.
With --watch, scout keeps running and reindexes files as they change.

Examples:
  scout index                    # Index the current directory
  scout index --root ~/project   # Index another workspace
  scout index --force            # Reindex everything
  scout index --watch            # Index, then follow file changes`,
	RunE: runIndex,
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Long:  `Show the index location, document count, and size for a workspace.`,
	RunE:  runIndexStatus,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexStatusCmd)

	indexCmd.PersistentFlags().StringVarP(&indexRoot, "root", "r", ".", "Workspace root")
	indexCmd.PersistentFlags().BoolVar(&indexJSON, "json", false, "Output as JSON")
	indexCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "Reindex unchanged files")
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "Keep watching for file changes")
	indexCmd.Flags().StringSliceVarP(&indexInclude, "include", "I", nil, "Include patterns (e.g. '**.go')")
	indexCmd.Flags().StringSliceVarP(&indexExclude, "exclude", "E", nil, "Exclude patterns (e.g. '**_test.go')")
}

// workspaceStack is the per-workspace indexing machinery.
type workspaceStack struct {
	root     string
	index    *search.Index
	manifest *search.Manifest
	loader   *storage.Loader
}

// openWorkspace resolves the workspace root and opens its index, manifest,
// and content loader. A "." root expands to the nearest marker-bearing
// ancestor directory.
func openWorkspace(dirs *storage.Dirs, root string) (*workspaceStack, error) {
	if root == "." {
		root = detect.WorkspaceRoot(".", rootMarkers...)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", absRoot)
	}

	if err := dirs.EnsureAll(); err != nil {
		return nil, fmt.Errorf("create data directories: %w", err)
	}

	index, err := search.OpenIndex(dirs.IndexDir(absRoot))
	if err != nil {
		return nil, err
	}

	manifest, err := search.OpenManifest(dirs.ManifestPath(absRoot))
	if err != nil {
		index.Close()
		return nil, err
	}

	loader, err := storage.NewDefaultLoader()
	if err != nil {
		index.Close()
		manifest.Close()
		return nil, err
	}

	return &workspaceStack{
		root:     absRoot,
		index:    index,
		manifest: manifest,
		loader:   loader,
	}, nil
}

func (s *workspaceStack) Close() {
	s.loader.Close()
	s.manifest.Close()
	s.index.Close()
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, dirs, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	stack, err := openWorkspace(dirs, indexRoot)
	if err != nil {
		return err
	}
	defer stack.Close()

	scanner, err := search.NewScanner(search.ScannerConfig{
		Include:      append(cfg.Index.Include, indexInclude...),
		Exclude:      append(cfg.Index.Exclude, indexExclude...),
		MaxFileBytes: cfg.Index.MaxFileBytes,
	})
	if err != nil {
		return err
	}

	bus := newEventBus(logger)
	defer bus.Close()

	builder, err := search.NewBuilder(search.BuilderConfig{
		Root:    stack.root,
		Scanner: scanner,
		Force:   indexForce,
		Bus:     bus,
	}, stack.index, stack.manifest, stack.loader, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := printIndexResult(cmd.OutOrStdout(), result); err != nil {
		return err
	}

	if indexWatch || cfg.Index.Watch {
		return runWatch(ctx, cmd.OutOrStdout(), stack.root, builder, logger)
	}
	return nil
}

// printIndexResult renders an indexing summary.
func printIndexResult(w io.Writer, result *search.IndexingResult) error {
	if indexJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(w, "%s%sIndexing Complete%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%sIndexed:%s  %s%d%s\n", colorGray, colorReset, colorGreen, result.Indexed, colorReset)
	fmt.Fprintf(w, "%sSkipped:%s  %d\n", colorGray, colorReset, result.Skipped)
	if result.Failed > 0 {
		fmt.Fprintf(w, "%sFailed:%s   %s%d%s\n", colorGray, colorReset, colorRed, result.Failed, colorReset)
		for path, message := range result.Failures {
			fmt.Fprintf(w, "  - %s: %s\n", path, message)
		}
	}
	fmt.Fprintf(w, "%sDuration:%s %v\n", colorGray, colorReset, result.Duration.Round(time.Millisecond))
	return nil
}

// runWatch follows file changes and keeps the index current until the
// context is cancelled.
func runWatch(ctx context.Context, w io.Writer, root string, builder *search.Builder, logger *slog.Logger) error {
	watcher, err := search.NewWatcher(root, logger)
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer watcher.Close()

	fmt.Fprintf(w, "\n%s%sWatching%s %s - press Ctrl+C to stop\n", colorBold, colorCyan, colorReset, root)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nWatch stopped.")
			return nil
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			timestamp := time.Now().Format("15:04:05")
			switch event.Kind {
			case search.ChangeModified:
				if err := builder.Reindex(ctx, event.Path); err != nil {
					logger.Warn("reindex failed", "path", event.Path, "error", err)
					fmt.Fprintf(w, "%s %s%s%s: %v\n", timestamp, colorRed, event.Path, colorReset, err)
					continue
				}
				fmt.Fprintf(w, "%s %s%s%s\n", timestamp, colorGreen, event.Path, colorReset)
			case search.ChangeRemoved:
				if err := builder.Remove(ctx, event.Path); err != nil {
					logger.Warn("remove failed", "path", event.Path, "error", err)
					continue
				}
				fmt.Fprintf(w, "%s %s%s%s (removed)\n", timestamp, colorYellow, event.Path, colorReset)
			}
		}
	}
}

// =============================================================================
// Index Status
// =============================================================================

// indexStatusOutput is the JSON shape for index status.
type indexStatusOutput struct {
	Root          string `json:"root"`
	IndexPath     string `json:"index_path"`
	Exists        bool   `json:"exists"`
	DocumentCount uint64 `json:"document_count"`
	TrackedFiles  int    `json:"tracked_files"`
	SizeBytes     int64  `json:"size_bytes,omitempty"`
}

func runIndexStatus(cmd *cobra.Command, args []string) error {
	_, dirs, err := loadConfig()
	if err != nil {
		return err
	}

	root := indexRoot
	if root == "." {
		root = detect.WorkspaceRoot(".", rootMarkers...)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	status := &indexStatusOutput{
		Root:      absRoot,
		IndexPath: dirs.IndexDir(absRoot),
	}

	if _, err := os.Stat(status.IndexPath); err == nil {
		status.Exists = true
		status.SizeBytes, _ = dirSize(status.IndexPath)

		stack, err := openWorkspace(dirs, indexRoot)
		if err != nil {
			return err
		}
		defer stack.Close()

		if count, err := stack.index.DocumentCount(); err == nil {
			status.DocumentCount = count
		}
		if tracked, err := stack.manifest.Size(); err == nil {
			status.TrackedFiles = tracked
		}
	}

	w := cmd.OutOrStdout()
	if indexJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(status)
	}

	fmt.Fprintf(w, "%s%sIndex Status%s\n", colorBold, colorCyan, colorReset)
	fmt.Fprintf(w, "%sRoot:%s      %s\n", colorGray, colorReset, status.Root)
	fmt.Fprintf(w, "%sIndex:%s     %s\n", colorGray, colorReset, status.IndexPath)
	if !status.Exists {
		fmt.Fprintf(w, "\n%sNo index found. Run 'scout index' to create one.%s\n", colorYellow, colorReset)
		return nil
	}
	fmt.Fprintf(w, "%sDocuments:%s %d\n", colorGray, colorReset, status.DocumentCount)
	fmt.Fprintf(w, "%sTracked:%s   %d\n", colorGray, colorReset, status.TrackedFiles)
	if status.SizeBytes > 0 {
		fmt.Fprintf(w, "%sSize:%s      %s\n", colorGray, colorReset, formatBytes(status.SizeBytes))
	}
	return nil
}

// dirSize totals the size of all files under path.
func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if info, err := d.Info(); err == nil {
				size += info.Size()
			}
		}
		return nil
	})
	return size, err
}
