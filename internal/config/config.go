package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains on-disk locations used by the pipeline.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	CacheDir  string `toml:"cache_dir"`
	StatePath string `toml:"state_path"`
	LibraryDB string `toml:"library_db"`
	LogDir    string `toml:"log_dir"`
	LockPath  string `toml:"lock_path"`
}

// Provider contains configuration for the ratings provider API.
type Provider struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	RequestDelayMillis int    `toml:"request_delay_ms"`
	CacheTTLHours      int    `toml:"cache_ttl_hours"`
}

// SourceFields holds the primary/fallback source names for every output channel.
// It is shared by the global mapping and the per-collection overrides.
type SourceFields struct {
	MovieCommunitySource   string `toml:"movie_community_source"`
	MovieCommunityFallback string `toml:"movie_community_fallback"`
	MovieCriticSource      string `toml:"movie_critic_source"`
	MovieCriticFallback    string `toml:"movie_critic_fallback"`
	ShowCommunitySource    string `toml:"show_community_source"`
	ShowCommunityFallback  string `toml:"show_community_fallback"`
}

// Override replaces some or all source fields for items in a library collection.
type Override struct {
	Enabled        bool   `toml:"enabled"`
	CollectionID   string `toml:"collection_id"`
	CollectionName string `toml:"collection_name"`
	SourceFields
}

// Ratings contains the rating resolution settings.
type Ratings struct {
	OnlyUpdateEmpty bool `toml:"only_update_empty"`
	SourceFields
	Overrides []Override `toml:"overrides"`
}

// API contains configuration for the read-only lookup server.
type API struct {
	Bind               string   `toml:"bind"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	RateLimitPerMinute int      `toml:"rate_limit_per_minute"`
}

// Notifications contains ntfy settings. An empty topic disables notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	NotifyOnRateLimit     bool   `toml:"notify_on_rate_limit"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ratingsync.
//
// Configuration sections by subsystem:
//   - Paths: data, cache, state, library database, and log locations
//   - Provider: API key, endpoint, timeout, pacing delay, and cache TTL
//   - Ratings: source mapping and per-collection overrides
//   - API: lookup server bind address, CORS origins, and per-IP limit
//   - Notifications: ntfy topic for batch summaries
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Provider      Provider      `toml:"provider"`
	Ratings       Ratings       `toml:"ratings"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ratingsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.CacheDir,
		c.Paths.LogDir,
		filepath.Dir(c.Paths.StatePath),
		filepath.Dir(c.Paths.LibraryDB),
		filepath.Dir(c.Paths.LockPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CacheTTL returns the age after which a cached provider response is stale.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Provider.CacheTTLHours) * time.Hour
}

// RequestDelay returns the fixed pause applied before each provider call.
func (c *Config) RequestDelay() time.Duration {
	if c.Provider.RequestDelayMillis <= 0 {
		return 0
	}
	return time.Duration(c.Provider.RequestDelayMillis) * time.Millisecond
}

// RequestTimeout bounds a single provider call.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

