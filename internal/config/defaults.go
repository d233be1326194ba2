package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigPath          = "~/.config/ratingsync/config.toml"
	defaultDataDir             = "~/.local/share/ratingsync"
	defaultProviderBaseURL     = "https://api.mdblist.com"
	defaultProviderTimeout     = 15
	defaultCacheTTLHours       = 168
	defaultAPIBind             = "127.0.0.1:7488"
	defaultAPIRateLimit        = 120
	defaultNtfyTimeout         = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultMovieCommunity      = "imdb"
	defaultMovieCommunityAlt   = "tmdb"
	defaultMovieCritic         = "metacritic"
	defaultMovieCriticAlt      = "tomatoes"
	defaultShowCommunity       = "imdb"
	defaultShowCommunityAlt    = "tmdb"
	cacheDirName               = "cache"
	stateFileName              = "ratelimit.json"
	libraryDBName              = "library.db"
	lockFileName               = "ratingsync.lock"
	logDirName                 = "logs"
	providerAPIKeyEnv          = "MDBLIST_API_KEY"
	providerAPIKeyEnvAlternate = "RATINGSYNC_API_KEY"
)

// SampleAPIKey is the placeholder written by CreateSample.
const SampleAPIKey = "your_mdblist_api_key_here"

// Default returns a Config populated with repository defaults. Paths derived
// from the data directory are left empty and filled in during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDirPath(),
		},
		Provider: Provider{
			BaseURL:        defaultProviderBaseURL,
			TimeoutSeconds: defaultProviderTimeout,
			CacheTTLHours:  defaultCacheTTLHours,
		},
		Ratings: Ratings{
			SourceFields: SourceFields{
				MovieCommunitySource:   defaultMovieCommunity,
				MovieCommunityFallback: defaultMovieCommunityAlt,
				MovieCriticSource:      defaultMovieCritic,
				MovieCriticFallback:    defaultMovieCriticAlt,
				ShowCommunitySource:    defaultShowCommunity,
				ShowCommunityFallback:  defaultShowCommunityAlt,
			},
		},
		API: API{
			Bind:               defaultAPIBind,
			RateLimitPerMinute: defaultAPIRateLimit,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeout,
			NotifyOnRateLimit:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultDataDirPath() string {
	if base, ok := os.LookupEnv("XDG_DATA_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "ratingsync")
	}
	return defaultDataDir
}
