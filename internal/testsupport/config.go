package testsupport

import (
	"path/filepath"
	"testing"

	"ratingsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose paths all live in a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Provider.APIKey = "test"
	cfgVal.Paths = config.Paths{
		DataDir:   base,
		CacheDir:  filepath.Join(base, "cache"),
		StatePath: filepath.Join(base, "ratelimit.json"),
		LibraryDB: filepath.Join(base, "library.db"),
		LogDir:    filepath.Join(base, "logs"),
		LockPath:  filepath.Join(base, "ratingsync.lock"),
	}
	cfgVal.API.Bind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAPIKey sets the provider API key on the test config.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Provider.APIKey = key
	}
}

// WithBaseURL points the provider at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Provider.BaseURL = url
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.Paths.DataDir
}
