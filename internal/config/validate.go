package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable. A missing provider API key is
// not an error: items are skipped until a key is configured.
func (c *Config) Validate() error {
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateRatings(); err != nil {
		return err
	}
	if topic := c.Notifications.NtfyTopic; topic != "" {
		parsed, err := url.Parse(topic)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("notifications.ntfy_topic must be a full URL, got %q", topic)
		}
	}
	if c.API.RateLimitPerMinute < 0 {
		return errors.New("api.rate_limit_per_minute must not be negative")
	}
	return nil
}

func (c *Config) validateProvider() error {
	parsed, err := url.Parse(c.Provider.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("provider.base_url must be an absolute URL, got %q", c.Provider.BaseURL)
	}
	if c.Provider.TimeoutSeconds <= 0 {
		return errors.New("provider.timeout_seconds must be positive")
	}
	if c.Provider.CacheTTLHours < 0 {
		return errors.New("provider.cache_ttl_hours must not be negative")
	}
	return nil
}

func (c *Config) validateRatings() error {
	if c.Ratings.MovieCommunitySource == "" {
		return errors.New("ratings.movie_community_source must be set")
	}
	if c.Ratings.MovieCriticSource == "" {
		return errors.New("ratings.movie_critic_source must be set")
	}
	if c.Ratings.ShowCommunitySource == "" {
		return errors.New("ratings.show_community_source must be set")
	}
	for i, o := range c.Ratings.Overrides {
		if !o.Enabled {
			continue
		}
		if strings.TrimSpace(o.CollectionID) == "" && strings.TrimSpace(o.CollectionName) == "" {
			return fmt.Errorf("ratings.overrides[%d]: collection_id or collection_name is required", i)
		}
	}
	return nil
}
