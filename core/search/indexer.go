package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adalundhe/scout/core/events"
	"github.com/adalundhe/scout/core/lsp"
	"github.com/adalundhe/scout/core/storage"
)

// BuilderConfig configures an index Builder.
type BuilderConfig struct {
	// Root is the workspace root to index.
	Root string

	// Scanner filters the files considered for indexing. Nil applies a
	// default scanner.
	Scanner *Scanner

	// Force reindexes every file regardless of recorded checksums.
	Force bool

	// Bus, when set, receives index lifecycle and context change events.
	Bus *events.Bus
}

// Builder performs full and incremental indexing runs over a workspace. Git
// tracked files are preferred as the file set; untracked workspaces fall
// back to a filesystem scan.
type Builder struct {
	root     string
	index    *Index
	manifest *Manifest
	scanner  *Scanner
	loader   *storage.Loader
	force    bool
	bus      *events.Bus
	logger   *slog.Logger
}

// NewBuilder creates a Builder over the given index and manifest.
func NewBuilder(config BuilderConfig, index *Index, manifest *Manifest, loader *storage.Loader, logger *slog.Logger) (*Builder, error) {
	if config.Root == "" {
		return nil, errors.New("builder requires a workspace root")
	}
	if logger == nil {
		logger = slog.Default()
	}

	scanner := config.Scanner
	if scanner == nil {
		var err error
		scanner, err = NewScanner(ScannerConfig{})
		if err != nil {
			return nil, err
		}
	}

	return &Builder{
		root:     config.Root,
		index:    index,
		manifest: manifest,
		scanner:  scanner,
		loader:   loader,
		force:    config.Force,
		bus:      config.Bus,
		logger:   logger,
	}, nil
}

// emit publishes to the bus when one is attached.
func (b *Builder) emit(event *events.Event) {
	if b.bus == nil {
		return
	}
	b.bus.Publish(event)
}

// Build runs one indexing pass and returns its summary.
func (b *Builder) Build(ctx context.Context) (*IndexingResult, error) {
	start := time.Now()
	result := &IndexingResult{}

	b.emit(events.NewEvent(events.EventTypeIndexStarted))

	files, err := b.collectFiles()
	if err != nil {
		return nil, err
	}

	const batchSize = 64
	batch := make([]*Document, 0, batchSize)

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, checksum, err := b.prepare(file)
		if err != nil {
			result.AddFailure(file.Path, err)
			b.logger.Warn("failed to index file", "path", file.Path, "error", err)
			continue
		}
		if doc == nil {
			result.Skipped++
			continue
		}

		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := b.flush(ctx, batch, result); err != nil {
				return nil, err
			}
			batch = batch[:0]
		}

		if err := b.manifest.Record(file.Path, checksum); err != nil {
			b.logger.Warn("failed to record checksum", "path", file.Path, "error", err)
		}
	}

	if err := b.flush(ctx, batch, result); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)

	completed := events.NewEvent(events.EventTypeIndexCompleted)
	completed.Data = result
	b.emit(completed)

	b.logger.Info("indexing complete",
		"indexed", result.Indexed,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result, nil
}

// Reindex updates the index for a single changed file.
func (b *Builder) Reindex(ctx context.Context, rel string) error {
	file, ok := b.scanner.Stat(b.root, rel)
	if !ok {
		return nil
	}

	doc, checksum, err := b.prepare(file)
	if err != nil {
		return err
	}
	if doc == nil {
		return nil
	}

	if err := b.index.IndexDocument(ctx, doc); err != nil {
		return err
	}
	if err := b.manifest.Record(file.Path, checksum); err != nil {
		return err
	}

	changed := events.NewEvent(events.EventTypeContextChanged)
	changed.FilePath = rel
	b.emit(changed)
	return nil
}

// Remove drops a file from the index and the manifest.
func (b *Builder) Remove(ctx context.Context, rel string) error {
	if err := b.index.Delete(ctx, rel); err != nil {
		return err
	}
	if err := b.manifest.Delete(rel); err != nil {
		return err
	}

	changed := events.NewEvent(events.EventTypeContextChanged)
	changed.FilePath = rel
	b.emit(changed)
	return nil
}

// collectFiles enumerates the files to consider, preferring git's view of
// the tree.
func (b *Builder) collectFiles() ([]FileInfo, error) {
	tracked, err := TrackedFiles(b.root)
	if err == nil {
		files := make([]FileInfo, 0, len(tracked))
		for _, rel := range tracked {
			if file, ok := b.scanner.Stat(b.root, rel); ok {
				files = append(files, file)
			}
		}
		return files, nil
	}
	if !errors.Is(err, ErrNotRepository) {
		b.logger.Warn("git enumeration failed, falling back to scan", "error", err)
	}

	return b.scanner.Scan(b.root)
}

// prepare loads a file and builds its document. A nil document with nil
// error means the file is unchanged and can be skipped.
func (b *Builder) prepare(file FileInfo) (*Document, string, error) {
	content, err := b.loader.Load(file.AbsPath)
	if err != nil {
		return nil, "", err
	}

	checksum := contentChecksum(content)
	if !b.force {
		if recorded, ok, err := b.manifest.Checksum(file.Path); err == nil && ok && recorded == checksum {
			return nil, checksum, nil
		}
	}

	symbols := lsp.ExtractSymbols(content, file.Language)
	names := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		names = append(names, symbol.Name)
	}

	return NewDocument(file.Path, file.Language, content, names), checksum, nil
}

func (b *Builder) flush(ctx context.Context, batch []*Document, result *IndexingResult) error {
	if len(batch) == 0 {
		return nil
	}
	if err := b.index.IndexBatch(ctx, batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	result.Indexed += len(batch)
	return nil
}

func contentChecksum(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
