// Package config loads the application configuration: defaults, the user's
// YAML config file, then environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adalundhe/scout/core/providers"
	"github.com/adalundhe/scout/core/storage"
)

// Config is the full application configuration.
type Config struct {
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Index     IndexConfig     `yaml:"index"`
	LLM       LLMConfig       `yaml:"llm"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// RetrievalConfig tunes the context pipeline.
type RetrievalConfig struct {
	// MaxItems is the default result cap per request.
	MaxItems int `yaml:"max_items"`

	// QueryHistoryCap bounds retained queries.
	QueryHistoryCap int `yaml:"query_history_cap"`

	// ItemHistoryCap bounds retained items.
	ItemHistoryCap int `yaml:"item_history_cap"`
}

// IndexConfig tunes workspace indexing.
type IndexConfig struct {
	// Include restricts indexing to matching glob patterns.
	Include []string `yaml:"include"`

	// Exclude skips matching glob patterns.
	Exclude []string `yaml:"exclude"`

	// MaxFileBytes skips files larger than this.
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	// Watch enables incremental reindexing on file changes.
	Watch bool `yaml:"watch"`
}

// LLMConfig selects and configures the completion provider.
type LLMConfig struct {
	// DefaultProvider is "anthropic" or "openai".
	DefaultProvider string `yaml:"default_provider"`

	// Timeout bounds completion requests.
	Timeout time.Duration `yaml:"timeout"`

	// Anthropic holds Anthropic credentials and defaults.
	Anthropic providers.AnthropicConfig `yaml:"anthropic"`

	// OpenAI holds OpenAI credentials and defaults.
	OpenAI providers.OpenAIConfig `yaml:"openai"`
}

// LoggingConfig tunes the structured logger.
type LoggingConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Retrieval: RetrievalConfig{
			MaxItems:        20,
			QueryHistoryCap: 100,
			ItemHistoryCap:  500,
		},
		Index: IndexConfig{
			MaxFileBytes: 1 << 20,
			Watch:        false,
		},
		LLM: LLMConfig{
			DefaultProvider: "anthropic",
			Timeout:         2 * time.Minute,
			Anthropic:       providers.DefaultAnthropicConfig(),
			OpenAI:          providers.DefaultOpenAIConfig(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.LLM.DefaultProvider {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("llm.default_provider must be anthropic or openai, got %q", c.LLM.DefaultProvider)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}

	if c.Retrieval.MaxItems <= 0 {
		return fmt.Errorf("retrieval.max_items must be positive")
	}
	return nil
}

// Manager holds the live configuration behind an atomic pointer and notifies
// watchers on reload.
type Manager struct {
	config    atomic.Pointer[Config]
	dirs      *storage.Dirs
	watchers  []func(*Config)
	watcherMu sync.RWMutex
}

// NewManager creates a Manager seeded with defaults.
func NewManager(dirs *storage.Dirs) *Manager {
	m := &Manager{dirs: dirs}
	m.config.Store(DefaultConfig())
	return m
}

// Get returns the current configuration. The returned value must be treated
// as read-only.
func (m *Manager) Get() *Config {
	return m.config.Load()
}

// Load rebuilds the configuration: defaults, then the user config file, then
// environment overrides. A missing config file is not an error.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	if m.dirs != nil {
		if err := loadYAMLFile(m.dirs.ConfigFile(), cfg); err != nil {
			return fmt.Errorf("user config: %w", err)
		}
	}

	applyEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	m.config.Store(cfg)
	m.notifyWatchers(cfg)
	return nil
}

// LoadFile loads an explicit config path over the defaults, skipping the
// standard lookup.
func (m *Manager) LoadFile(path string) error {
	cfg := DefaultConfig()

	if err := loadYAMLFile(path, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	applyEnvironment(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	m.config.Store(cfg)
	m.notifyWatchers(cfg)
	return nil
}

// OnChange registers a callback invoked after each successful load.
func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvironment layers SCOUT_* environment overrides onto cfg. API keys
// also fall back to the provider SDKs' conventional variables.
func applyEnvironment(cfg *Config) {
	if v := os.Getenv("SCOUT_LLM_PROVIDER"); v != "" {
		cfg.LLM.DefaultProvider = strings.ToLower(v)
	}
	if v := os.Getenv("SCOUT_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.LLM.Timeout = d
		}
	}
	if v := os.Getenv("SCOUT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("SCOUT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("SCOUT_MAX_ITEMS"); v != "" {
		if n, err := parseInt(v); err == nil && n > 0 {
			cfg.Retrieval.MaxItems = n
		}
	}

	if cfg.LLM.Anthropic.APIKey == "" {
		cfg.LLM.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.LLM.OpenAI.APIKey == "" {
		cfg.LLM.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}
