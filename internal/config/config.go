// Package config loads service settings from a YAML file, environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/nDmitry/stackfeed/internal/entity"
)

// Config holds all settings of the service. Fields carry no default tags,
// defaults come from Default so a config file can override them.
type Config struct {
	ConfigFile string `long:"config" env:"STACKFEED_CONFIG" yaml:"-" description:"Path to a YAML config file"`

	Port     string `long:"port" env:"STACKFEED_PORT" yaml:"port" description:"HTTP server port"`
	LogLevel string `long:"log-level" env:"STACKFEED_LOG_LEVEL" yaml:"log_level" description:"Log level (debug, info, warn, error)"`

	// Outbound policy
	UserAgent      string   `long:"user-agent" env:"STACKFEED_USER_AGENT" yaml:"user_agent" description:"User agent of upstream requests"`
	URLTemplate    string   `long:"url-template" env:"STACKFEED_URL_TEMPLATE" yaml:"url_template" description:"Publication URL template containing {handle}"`
	MinInterval    Duration `long:"min-interval" env:"STACKFEED_MIN_INTERVAL" yaml:"min_interval" description:"Minimum gap between upstream requests, in seconds or with a unit (1s, 250ms)"`
	RequestTimeout Duration `long:"request-timeout" env:"STACKFEED_REQUEST_TIMEOUT" yaml:"request_timeout" description:"Timeout of a single upstream request, in seconds or with a unit (15s)"`
	RetryAttempts  int      `long:"retry-attempts" env:"STACKFEED_RETRY_ATTEMPTS" yaml:"retry_attempts" description:"Attempts per upstream request, 1 disables retries"`

	// Caching
	CacheTTL         Duration `long:"cache-ttl" env:"STACKFEED_CACHE_TTL" yaml:"cache_ttl" description:"Lifetime of cached upstream responses, in seconds or with a unit (900, 15m)"`
	CacheMaxEntries  int      `long:"cache-max-entries" env:"STACKFEED_CACHE_MAX_ENTRIES" yaml:"cache_max_entries" description:"Maximum number of cached upstream responses"`
	FeedCacheEntries int      `long:"feed-cache-entries" env:"STACKFEED_FEED_CACHE_ENTRIES" yaml:"feed_cache_entries" description:"Maximum number of cached rendered feeds"`

	// Crawling
	Workers      int    `long:"workers" env:"STACKFEED_WORKERS" yaml:"workers" description:"Concurrent crawl parts per crawl"`
	KeywordCount int    `long:"keyword-count" env:"STACKFEED_KEYWORD_COUNT" yaml:"keyword_count" description:"Keywords extracted per text"`
	WarmHandle   string `long:"warm" env:"STACKFEED_WARM" yaml:"warm" description:"Publication handle to crawl on start-up"`
}

// Default returns the settings used when nothing overrides them
func Default() *Config {
	return &Config{
		Port:             "8080",
		LogLevel:         "info",
		UserAgent:        "stackfeed/1.0 (+https://github.com/nDmitry/stackfeed)",
		URLTemplate:      "https://{handle}.substack.com",
		MinInterval:      Duration(time.Second),
		RequestTimeout:   Duration(15 * time.Second),
		RetryAttempts:    3,
		CacheTTL:         Duration(15 * time.Minute),
		CacheMaxEntries:  1024,
		FeedCacheEntries: 128,
		Workers:          4,
		KeywordCount:     10,
	}
}

// Load builds the config from args, the environment and the file named by
// --config or STACKFEED_CONFIG. It returns the go-flags error untouched, so
// flags.WroteHelp can tell a help request apart.
func Load(args []string) (*Config, error) {
	var pre struct {
		ConfigFile string `long:"config" env:"STACKFEED_CONFIG"`
	}

	if _, err := flags.NewParser(&pre, flags.IgnoreUnknown).ParseArgs(args); err != nil {
		return nil, fmt.Errorf("could not parse arguments: %w", err)
	}

	cfg := Default()

	if pre.ConfigFile != "" {
		if err := Read(pre.ConfigFile, cfg); err != nil {
			return nil, err
		}
	}

	if _, err := flags.NewParser(cfg, flags.Default).ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns a ConfigurationError for the first unusable setting
// nolint: cyclop
func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return &entity.ConfigurationError{Field: "port", Reason: "is required"}
	case strings.Count(c.URLTemplate, "{handle}") != 1:
		return &entity.ConfigurationError{Field: "url_template", Reason: "must contain {handle} exactly once"}
	case c.MinInterval < 0:
		return &entity.ConfigurationError{Field: "min_interval", Reason: "must be non-negative"}
	case c.RequestTimeout <= 0:
		return &entity.ConfigurationError{Field: "request_timeout", Reason: "must be positive"}
	case c.RetryAttempts < 1:
		return &entity.ConfigurationError{Field: "retry_attempts", Reason: "must be at least 1"}
	case c.CacheTTL <= 0:
		return &entity.ConfigurationError{Field: "cache_ttl", Reason: "must be positive"}
	case c.CacheMaxEntries < 1:
		return &entity.ConfigurationError{Field: "cache_max_entries", Reason: "must be at least 1"}
	case c.FeedCacheEntries < 1:
		return &entity.ConfigurationError{Field: "feed_cache_entries", Reason: "must be at least 1"}
	case c.Workers < 1:
		return &entity.ConfigurationError{Field: "workers", Reason: "must be at least 1"}
	case c.KeywordCount < 1:
		return &entity.ConfigurationError{Field: "keyword_count", Reason: "must be at least 1"}
	}

	if c.WarmHandle != "" {
		if err := entity.ValidateHandle(c.WarmHandle); err != nil {
			return err
		}
	}

	return nil
}
