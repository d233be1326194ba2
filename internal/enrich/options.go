package enrich

import (
	"time"

	"ratingsync/internal/config"
	"ratingsync/internal/ratings"
)

// Options carries the configuration an Updater needs.
type Options struct {
	APIKey          string
	TTL             time.Duration
	RequestDelay    time.Duration
	OnlyUpdateEmpty bool
	Mapping         ratings.Mapping
	Overrides       []ratings.Override
}

// OptionsFromConfig extracts Updater options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{}
	}
	return Options{
		APIKey:          cfg.Provider.APIKey,
		TTL:             cfg.CacheTTL(),
		RequestDelay:    cfg.RequestDelay(),
		OnlyUpdateEmpty: cfg.Ratings.OnlyUpdateEmpty,
		Mapping:         ratings.MappingFromConfig(cfg.Ratings),
		Overrides:       ratings.OverridesFromConfig(cfg.Ratings),
	}
}

// MappingFor returns the effective source mapping for an item in the given
// collections.
func (o Options) MappingFor(collections []ratings.Collection) ratings.Mapping {
	return ratings.Effective(o.Mapping, o.Overrides, collections)
}
