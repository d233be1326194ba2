package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ratingsync/internal/config"
	"ratingsync/internal/enrich"
	"ratingsync/internal/library"
	"ratingsync/internal/logging"
	"ratingsync/internal/mdblist"
	"ratingsync/internal/ratelimit"
	"ratingsync/internal/ratingcache"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	storeOnce sync.Once
	store     *library.Store
	storeErr  error

	pipelineOnce sync.Once
	cache        *ratingcache.Cache
	tracker      *ratelimit.Tracker
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) libraryStore() (*library.Store, error) {
	c.storeOnce.Do(func() {
		if c.config == nil {
			c.storeErr = fmt.Errorf("configuration not loaded")
			return
		}
		c.store, c.storeErr = library.Open(c.config)
	})
	return c.store, c.storeErr
}

func (c *commandContext) responseCache() *ratingcache.Cache {
	c.initPipeline()
	return c.cache
}

func (c *commandContext) rateTracker() *ratelimit.Tracker {
	c.initPipeline()
	return c.tracker
}

func (c *commandContext) initPipeline() {
	c.pipelineOnce.Do(func() {
		logger := c.log()
		c.cache = ratingcache.New(c.config.Paths.CacheDir, logger)
		c.tracker = ratelimit.NewTracker(c.config.Paths.StatePath, logger)
	})
}

// updater wires the cache, tracker, provider client and library store into
// an enrich.Updater.
func (c *commandContext) updater() (*enrich.Updater, *library.Store, error) {
	store, err := c.libraryStore()
	if err != nil {
		return nil, nil, err
	}
	client, err := mdblist.New(c.config.Provider.BaseURL,
		mdblist.WithTimeout(c.config.RequestTimeout()),
		mdblist.WithLogger(c.log()),
	)
	if err != nil {
		return nil, nil, err
	}
	u := enrich.NewUpdater(enrich.OptionsFromConfig(c.config), enrich.Dependencies{
		Cache:    c.responseCache(),
		Tracker:  c.rateTracker(),
		Provider: client,
		Store:    store,
	}, c.log())
	return u, store, nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
