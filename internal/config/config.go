// Pagecrow - Collaborative Filtering Book Recommendations
// Copyright 2026 The Pagecrow Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pagecrow/pagecrow

// Package config loads and validates application configuration.
//
// Configuration is layered via Koanf v2 (highest priority wins):
//
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (HTTP_PORT, DUCKDB_PATH, LOG_LEVEL, ...)
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Dataset  DatasetConfig  `koanf:"dataset"`
	Engine   EngineConfig   `koanf:"engine"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory, which is
	// useful for tests but loses the catalog across restarts.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit, e.g. "2GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads is the DuckDB thread count. 0 = runtime.NumCPU().
	Threads int `koanf:"threads"`
}

// DatasetConfig points at the source CSV files bulk-loaded at startup.
type DatasetConfig struct {
	// BooksCSV is the path to the book catalog CSV (Book-Crossing format).
	BooksCSV string `koanf:"books_csv"`

	// RatingsCSV is the path to the ratings CSV (Book-Crossing format).
	RatingsCSV string `koanf:"ratings_csv"`

	// ForceReload drops and reloads the tables even when they already
	// contain rows from a previous run.
	ForceReload bool `koanf:"force_reload"`
}

// EngineConfig tunes the recommendation engine thresholds.
type EngineConfig struct {
	// MinSupport is the minimum number of co-raters required for a
	// Pearson correlation to be defined. Must be >= 2.
	MinSupport int `koanf:"min_support"`

	// MinCoRaterRatings is the minimum number of ratings a candidate
	// title must have received from the target book's readers to be
	// considered at all.
	MinCoRaterRatings int `koanf:"min_co_rater_ratings"`

	// MaxTopN caps the top_n a single request may ask for.
	MaxTopN int `koanf:"max_top_n"`
}

// APIConfig holds HTTP API behavior settings.
type APIConfig struct {
	CORSOrigins        []string      `koanf:"cors_origins"`
	RateLimitReqs      int           `koanf:"rate_limit_reqs"`
	RateLimitWindow    time.Duration `koanf:"rate_limit_window"`
	AutocompleteLimit  int           `koanf:"autocomplete_limit"`
	AutocompleteMinLen int           `koanf:"autocomplete_min_len"`
	StaticDir          string        `koanf:"static_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server request_timeout must be positive, got %s", c.Server.RequestTimeout)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.MinSupport < 2 {
		return fmt.Errorf("engine min_support must be at least 2 (Pearson correlation is undefined below two paired samples), got %d", c.Engine.MinSupport)
	}
	if c.Engine.MinCoRaterRatings < 1 {
		return fmt.Errorf("engine min_co_rater_ratings must be at least 1, got %d", c.Engine.MinCoRaterRatings)
	}
	if c.Engine.MaxTopN < 1 {
		return fmt.Errorf("engine max_top_n must be at least 1, got %d", c.Engine.MaxTopN)
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.RateLimitReqs < 1 {
		return fmt.Errorf("api rate_limit_reqs must be at least 1, got %d", c.API.RateLimitReqs)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api rate_limit_window must be positive, got %s", c.API.RateLimitWindow)
	}
	if c.API.AutocompleteMinLen < 1 {
		return fmt.Errorf("api autocomplete_min_len must be at least 1, got %d", c.API.AutocompleteMinLen)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, fatal, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
