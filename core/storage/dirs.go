// Package storage provides directory resolution and cached file content
// loading for the context engine.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
)

const appDirName = "scout"

// Dirs provides platform-appropriate directories with XDG support.
type Dirs struct {
	Config string // User configuration
	Data   string // Persistent data (indexes, manifests)
	Cache  string // Regenerable cache
}

var (
	globalDirs     *Dirs
	globalDirsOnce sync.Once
	globalDirsErr  error
)

// ResolveDirs returns platform-appropriate directories. Results are cached
// after the first call.
func ResolveDirs() (*Dirs, error) {
	globalDirsOnce.Do(func() {
		globalDirs, globalDirsErr = resolveDirsImpl()
	})
	return globalDirs, globalDirsErr
}

func resolveDirsImpl() (*Dirs, error) {
	config, err := resolveDir("XDG_CONFIG_HOME", os.UserConfigDir)
	if err != nil {
		return nil, err
	}
	cache, err := resolveDir("XDG_CACHE_HOME", os.UserCacheDir)
	if err != nil {
		return nil, err
	}
	data, err := resolveDir("XDG_DATA_HOME", defaultDataDir)
	if err != nil {
		return nil, err
	}

	return &Dirs{Config: config, Data: data, Cache: cache}, nil
}

func resolveDir(envVar string, fallback func() (string, error)) (string, error) {
	if dir := os.Getenv(envVar); dir != "" {
		return filepath.Join(dir, appDirName), nil
	}
	dir, err := fallback()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName), nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// ConfigFile returns the path of the main config file.
func (d *Dirs) ConfigFile() string {
	return filepath.Join(d.Config, "config.yaml")
}

// IndexDir returns the per-project index directory.
func (d *Dirs) IndexDir(projectRoot string) string {
	return filepath.Join(d.Data, "indexes", ProjectHash(projectRoot))
}

// ManifestPath returns the per-project manifest database path.
func (d *Dirs) ManifestPath(projectRoot string) string {
	return filepath.Join(d.Data, "manifests", ProjectHash(projectRoot)+".db")
}

// EnsureAll creates the standard directories.
func (d *Dirs) EnsureAll() error {
	for _, dir := range []string{
		d.Config,
		d.Data,
		filepath.Join(d.Data, "indexes"),
		filepath.Join(d.Data, "manifests"),
		d.Cache,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// ProjectHash generates a consistent short hash for a project path, used for
// per-project index isolation.
func ProjectHash(projectRoot string) string {
	absPath, err := filepath.Abs(projectRoot)
	if err != nil {
		absPath = projectRoot
	}
	hash := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(hash[:8])
}
