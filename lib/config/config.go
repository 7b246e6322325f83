// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when no --config flag is
// given.
const EnvironmentVariable = "ASSETFS_CONFIG"

// Config is the master configuration for an assetfs daemon.
type Config struct {
	// Source describes where file content comes from.
	Source SourceConfig `yaml:"source" json:"source"`

	// Cache configures eviction of fetched content.
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Save configures where modified files are persisted.
	Save SaveConfig `yaml:"save" json:"save"`

	// Mount configures the FUSE mount.
	Mount MountConfig `yaml:"mount" json:"mount"`

	// Log configures daemon logging.
	Log LogConfig `yaml:"log" json:"log"`
}

// SourceConfig describes the index and the loader that serves it.
type SourceConfig struct {
	// Index is the path of index.txt or index.txt.gz.
	Index string `yaml:"index" json:"index"`

	// URL is the HTTP base URL files are fetched from. Exactly one of
	// URL and Dir must be set.
	URL string `yaml:"url" json:"url"`

	// Dir is a local directory files are read from.
	Dir string `yaml:"dir" json:"dir"`

	// Encoding is how served files are compressed: none, gzip, zstd,
	// or lz4.
	// Default: none
	Encoding string `yaml:"encoding" json:"encoding"`

	// Digest is the algorithm of the index digests: none, sha256, or
	// blake3. "none" checks sizes only.
	// Default: sha256
	Digest string `yaml:"digest" json:"digest"`

	// Retries is how many times a transient HTTP failure is retried.
	// Default: 3
	Retries int `yaml:"retries" json:"retries"`

	// RetryBackoff is the first wait between retries; it doubles
	// after every attempt.
	// Default: 500ms
	RetryBackoff string `yaml:"retry_backoff" json:"retry_backoff"`

	// Timeout bounds a single HTTP request.
	// Default: 60s
	Timeout string `yaml:"timeout" json:"timeout"`

	// RateLimit caps HTTP requests per second. Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// Exclude lists path prefixes left out of the mount.
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// CacheConfig configures eviction.
type CacheConfig struct {
	// Quiescence is how long a closed file's content stays cached.
	// A negative duration disables eviction.
	// Default: 1s
	Quiescence string `yaml:"quiescence" json:"quiescence"`

	// Pinned lists paths that are never evicted.
	Pinned []string `yaml:"pinned" json:"pinned"`
}

// SaveConfig configures persistence of memory-backed files. At most
// one of Snapshot and Dir may be set; neither disables saving.
type SaveConfig struct {
	// Snapshot is the path of a CBOR snapshot file.
	Snapshot string `yaml:"snapshot" json:"snapshot"`

	// Dir is a directory saved files are written into.
	Dir string `yaml:"dir" json:"dir"`

	// Interval is how often the mount command flushes modified files
	// while running. "0" saves only on unmount.
	// Default: 30s
	Interval string `yaml:"interval" json:"interval"`
}

// MountConfig configures the FUSE mount.
type MountConfig struct {
	// Mountpoint is the directory the tree is mounted on.
	Mountpoint string `yaml:"mountpoint" json:"mountpoint"`

	// AllowOther lets other users access the mount.
	AllowOther bool `yaml:"allow_other" json:"allow_other"`

	// FsName is the filesystem name shown in the mount table.
	// Default: assetfs
	FsName string `yaml:"fs_name" json:"fs_name"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	// Default: info
	Level string `yaml:"level" json:"level"`

	// Format is json or text.
	// Default: json
	Format string `yaml:"format" json:"format"`
}

// Default returns the default configuration. File values are loaded
// on top of it.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Encoding:     "none",
			Digest:       "sha256",
			Retries:      3,
			RetryBackoff: "500ms",
			Timeout:      "60s",
		},
		Cache: CacheConfig{
			Quiescence: "1s",
		},
		Save: SaveConfig{
			Interval: "30s",
		},
		Mount: MountConfig{
			FsName: "assetfs",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from the file named by ASSETFS_CONFIG.
// There is no fallback: an unset variable is an error.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your assetfs config file, or use --config flag", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, expands
// path variables, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.expandVariables(filepath.Dir(path))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}

// expandVariables expands ${VAR} patterns in path fields. ${CONFIG_DIR}
// is the directory containing the config file.
func (c *Config) expandVariables(configDir string) {
	vars := map[string]string{
		"CONFIG_DIR": configDir,
		"HOME":       os.Getenv("HOME"),
	}

	c.Source.Index = expandVars(c.Source.Index, vars)
	c.Source.Dir = expandVars(c.Source.Dir, vars)
	c.Save.Snapshot = expandVars(c.Save.Snapshot, vars)
	c.Save.Dir = expandVars(c.Save.Dir, vars)
	c.Mount.Mountpoint = expandVars(c.Mount.Mountpoint, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns, consulting
// vars before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	encodings  = []string{"none", "gzip", "zstd", "lz4"}
	digests    = []string{"none", "sha256", "blake3"}
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"json", "text"}
)

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Source.Index == "" {
		errs = append(errs, errors.New("source.index is required"))
	}
	switch {
	case c.Source.URL == "" && c.Source.Dir == "":
		errs = append(errs, errors.New("one of source.url and source.dir is required"))
	case c.Source.URL != "" && c.Source.Dir != "":
		errs = append(errs, errors.New("source.url and source.dir are mutually exclusive"))
	}
	if !slices.Contains(encodings, c.Source.Encoding) {
		errs = append(errs, fmt.Errorf("source.encoding must be one of: %v", encodings))
	}
	if !slices.Contains(digests, c.Source.Digest) {
		errs = append(errs, fmt.Errorf("source.digest must be one of: %v", digests))
	}
	if c.Source.Retries < 0 {
		errs = append(errs, fmt.Errorf("source.retries must be non-negative, got %d", c.Source.Retries))
	}
	if c.Source.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("source.rate_limit must be non-negative, got %v", c.Source.RateLimit))
	}
	for _, field := range []struct{ name, value string }{
		{"source.retry_backoff", c.Source.RetryBackoff},
		{"source.timeout", c.Source.Timeout},
		{"cache.quiescence", c.Cache.Quiescence},
		{"save.interval", c.Save.Interval},
	} {
		if _, err := time.ParseDuration(field.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", field.name, err))
		}
	}
	if interval, err := time.ParseDuration(c.Save.Interval); err == nil && interval < 0 {
		errs = append(errs, fmt.Errorf("save.interval must be non-negative, got %s", c.Save.Interval))
	}

	if c.Save.Snapshot != "" && c.Save.Dir != "" {
		errs = append(errs, errors.New("save.snapshot and save.dir are mutually exclusive"))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}

	return errors.Join(errs...)
}

// Durations holds the parsed duration fields of a validated Config.
type Durations struct {
	RetryBackoff time.Duration
	Timeout      time.Duration
	Quiescence   time.Duration
	SaveInterval time.Duration
}

// Durations parses the duration fields. Call it only on a Config that
// passed Validate.
func (c *Config) Durations() (Durations, error) {
	var durations Durations
	var err error
	if durations.RetryBackoff, err = time.ParseDuration(c.Source.RetryBackoff); err != nil {
		return Durations{}, fmt.Errorf("source.retry_backoff: %w", err)
	}
	if durations.Timeout, err = time.ParseDuration(c.Source.Timeout); err != nil {
		return Durations{}, fmt.Errorf("source.timeout: %w", err)
	}
	if durations.Quiescence, err = time.ParseDuration(c.Cache.Quiescence); err != nil {
		return Durations{}, fmt.Errorf("cache.quiescence: %w", err)
	}
	if durations.SaveInterval, err = time.ParseDuration(c.Save.Interval); err != nil {
		return Durations{}, fmt.Errorf("save.interval: %w", err)
	}
	return durations, nil
}

// RequireMount checks the fields only the mount command needs.
func (c *Config) RequireMount() error {
	if c.Mount.Mountpoint == "" {
		return errors.New("mount.mountpoint is required")
	}
	info, err := os.Stat(c.Mount.Mountpoint)
	if err != nil {
		return fmt.Errorf("mount.mountpoint: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mount.mountpoint %s is not a directory", c.Mount.Mountpoint)
	}
	return nil
}
