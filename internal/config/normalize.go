package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProvider()
	c.normalizeRatings()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDirPath()
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	derived := []struct {
		field *string
		name  string
		def   string
	}{
		{&c.Paths.CacheDir, "paths.cache_dir", cacheDirName},
		{&c.Paths.StatePath, "paths.state_path", stateFileName},
		{&c.Paths.LibraryDB, "paths.library_db", libraryDBName},
		{&c.Paths.LogDir, "paths.log_dir", logDirName},
		{&c.Paths.LockPath, "paths.lock_path", lockFileName},
	}
	for _, d := range derived {
		if strings.TrimSpace(*d.field) == "" {
			*d.field = filepath.Join(c.Paths.DataDir, d.def)
		}
		if *d.field, err = expandPath(*d.field); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}
	return nil
}

func (c *Config) normalizeProvider() {
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	if c.Provider.APIKey == "" {
		if value, ok := os.LookupEnv(providerAPIKeyEnv); ok {
			c.Provider.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv(providerAPIKeyEnvAlternate); ok {
			c.Provider.APIKey = strings.TrimSpace(value)
		}
	}
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = defaultProviderBaseURL
	}
	if c.Provider.TimeoutSeconds <= 0 {
		c.Provider.TimeoutSeconds = defaultProviderTimeout
	}
	if c.Provider.RequestDelayMillis < 0 {
		c.Provider.RequestDelayMillis = 0
	}
}

func (c *Config) normalizeRatings() {
	c.Ratings.SourceFields = c.Ratings.SourceFields.normalized()
	for i := range c.Ratings.Overrides {
		o := &c.Ratings.Overrides[i]
		o.CollectionID = strings.TrimSpace(o.CollectionID)
		o.CollectionName = strings.TrimSpace(o.CollectionName)
		o.SourceFields = o.SourceFields.normalized()
	}
}

func (f SourceFields) normalized() SourceFields {
	clean := func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	return SourceFields{
		MovieCommunitySource:   clean(f.MovieCommunitySource),
		MovieCommunityFallback: clean(f.MovieCommunityFallback),
		MovieCriticSource:      clean(f.MovieCriticSource),
		MovieCriticFallback:    clean(f.MovieCriticFallback),
		ShowCommunitySource:    clean(f.ShowCommunitySource),
		ShowCommunityFallback:  clean(f.ShowCommunityFallback),
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	origins := c.API.CORSAllowedOrigins[:0]
	for _, origin := range c.API.CORSAllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			origins = append(origins, origin)
		}
	}
	c.API.CORSAllowedOrigins = origins
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
