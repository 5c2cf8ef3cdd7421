package storage

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/dgraph-io/ristretto"
)

// Loader limits.
const (
	// DefaultMaxFileBytes is the largest file the loader will read.
	DefaultMaxFileBytes = 1 << 20 // 1 MiB

	// DefaultCacheBytes is the loader cache budget.
	DefaultCacheBytes = 64 << 20 // 64 MiB
)

// ErrFileTooLarge indicates a file exceeded the loader's size limit.
var ErrFileTooLarge = errors.New("file exceeds loader size limit")

// cachedContent is one cache entry: a file version and its text.
type cachedContent struct {
	modTime int64
	content string
}

// Loader reads workspace file contents with a ristretto cache in front.
// Entries are invalidated by mtime on access.
type Loader struct {
	cache        *ristretto.Cache
	maxFileBytes int64
}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// MaxFileBytes is the largest file the loader will read.
	MaxFileBytes int64

	// CacheBytes is the cache cost budget.
	CacheBytes int64
}

// NewLoader creates a Loader with the given configuration.
func NewLoader(config LoaderConfig) (*Loader, error) {
	if config.MaxFileBytes <= 0 {
		config.MaxFileBytes = DefaultMaxFileBytes
	}
	if config.CacheBytes <= 0 {
		config.CacheBytes = DefaultCacheBytes
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     config.CacheBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("loader cache: %w", err)
	}

	return &Loader{cache: cache, maxFileBytes: config.MaxFileBytes}, nil
}

// NewDefaultLoader creates a Loader with default limits.
func NewDefaultLoader() (*Loader, error) {
	return NewLoader(LoaderConfig{})
}

// Load returns the full contents of the file at path, from cache when the
// file has not changed since it was cached.
func (l *Loader) Load(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > l.maxFileBytes {
		return "", fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
	}

	modTime := info.ModTime().UnixNano()
	if value, ok := l.cache.Get(path); ok {
		if entry, ok := value.(cachedContent); ok && entry.modTime == modTime {
			return entry.content, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	content := string(data)
	l.cache.Set(path, cachedContent{modTime: modTime, content: content}, int64(len(content)))
	return content, nil
}

// Window returns the lines within radius of line (zero-based), joined with
// newlines. Out-of-range lines are clamped.
func (l *Loader) Window(path string, line, radius int) (string, error) {
	content, err := l.Load(path)
	if err != nil {
		return "", err
	}
	return LineWindow(content, line, radius), nil
}

// Close releases the loader cache.
func (l *Loader) Close() {
	l.cache.Close()
}

// Truncate caps s at max bytes without splitting a multi-byte rune: the cut
// backs off to the nearest rune boundary.
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// LineWindow extracts the lines within radius of line (zero-based) from
// content, clamping at document boundaries.
func LineWindow(content string, line, radius int) string {
	lines := strings.Split(content, "\n")

	start := line - radius
	if start < 0 {
		start = 0
	}
	end := line + radius + 1
	if end > len(lines) {
		end = len(lines)
	}
	if start >= len(lines) {
		return ""
	}

	return strings.Join(lines[start:end], "\n")
}
