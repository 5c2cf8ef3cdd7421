package search

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/adalundhe/scout/core/detect"
)

// DefaultMaxScanBytes is the largest file the scanner will report.
const DefaultMaxScanBytes = 1 << 20 // 1 MiB

// defaultExcludedDirs are directory names skipped during a scan regardless of
// configured patterns.
var defaultExcludedDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	"target":       true,
	"__pycache__":  true,
	".venv":        true,
	".idea":        true,
	".vscode":      true,
}

// FileInfo describes one scannable workspace file.
type FileInfo struct {
	// Path is the file path relative to the scan root.
	Path string

	// AbsPath is the absolute file path.
	AbsPath string

	// Language is the detected language identifier.
	Language string

	// Size is the file size in bytes.
	Size int64
}

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	// Include restricts the scan to paths matching any of these glob
	// patterns. Empty means all files.
	Include []string

	// Exclude skips paths matching any of these glob patterns, in addition
	// to the built-in excluded directories.
	Exclude []string

	// MaxFileBytes skips files larger than this. Zero applies the default.
	MaxFileBytes int64
}

// Scanner walks a workspace and reports indexable files.
type Scanner struct {
	include      []glob.Glob
	exclude      []glob.Glob
	maxFileBytes int64
}

// NewScanner creates a Scanner, compiling the configured glob patterns.
// Patterns use '/' as the separator on every platform.
func NewScanner(config ScannerConfig) (*Scanner, error) {
	if config.MaxFileBytes <= 0 {
		config.MaxFileBytes = DefaultMaxScanBytes
	}

	include, err := compilePatterns(config.Include)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	exclude, err := compilePatterns(config.Exclude)
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}

	return &Scanner{
		include:      include,
		exclude:      exclude,
		maxFileBytes: config.MaxFileBytes,
	}, nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// Scan walks root and returns the files that pass the scanner's filters.
// Paths in the result are relative to root and slash-separated.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %s: %w", root, err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if path != absRoot && (defaultExcludedDirs[entry.Name()] || strings.HasPrefix(entry.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if !s.matches(rel) {
			return nil
		}

		info, err := entry.Info()
		if err != nil || info.Size() > s.maxFileBytes {
			return nil
		}

		files = append(files, FileInfo{
			Path:     rel,
			AbsPath:  path,
			Language: detect.Language(path),
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	return files, nil
}

// matches applies include then exclude patterns to a slash-separated
// relative path.
func (s *Scanner) matches(rel string) bool {
	if len(s.include) > 0 {
		matched := false
		for _, g := range s.include {
			if g.Match(rel) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, g := range s.exclude {
		if g.Match(rel) {
			return false
		}
	}
	return true
}

// Stat reports a single file the way Scan would, or false when the file
// does not pass the scanner's filters.
func (s *Scanner) Stat(root, rel string) (FileInfo, bool) {
	rel = filepath.ToSlash(rel)
	if !s.matches(rel) {
		return FileInfo{}, false
	}

	abs := filepath.Join(root, filepath.FromSlash(rel))
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() || info.Size() > s.maxFileBytes {
		return FileInfo{}, false
	}

	return FileInfo{
		Path:     rel,
		AbsPath:  abs,
		Language: detect.Language(rel),
		Size:     info.Size(),
	}, true
}
