package config

import (
	"multisync/pkg/hasher"
	"multisync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Sync        SyncConfig        `yaml:"sync"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SyncConfig holds default engine settings
type SyncConfig struct {
	Comparison     models.CompareMethod `yaml:"comparison"`
	Verify         bool                 `yaml:"verify"`
	HashAlgorithm  hasher.Algorithm     `yaml:"hash_algorithm"`
	StoreThreshold int                  `yaml:"store_threshold"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	BufferSize     int   `yaml:"buffer_size"`
	BandwidthLimit int64 `yaml:"bandwidth_limit"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format string `yaml:"format"` // "human" or "json"
	Quiet  bool   `yaml:"quiet"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			Comparison:     models.CompareSizeTime,
			Verify:         false,
			HashAlgorithm:  hasher.XXH64,
			StoreThreshold: models.DefaultStoreThreshold,
		},
		Performance: PerformanceConfig{
			BufferSize:     models.DefaultBufferSize,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Format: "human",
			Quiet:  false,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Format:  "json",
			Level:   "info",
			File:    "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !c.Sync.Comparison.Valid() {
		return &models.ValidationError{Field: "sync.comparison", Message: "unknown compare method: " + string(c.Sync.Comparison)}
	}
	if !c.Sync.HashAlgorithm.Valid() {
		return &models.ValidationError{Field: "sync.hash_algorithm", Message: "unknown hash algorithm: " + string(c.Sync.HashAlgorithm)}
	}
	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{Field: "performance.buffer_size", Message: "buffer size must be at least 1024 bytes"}
	}
	if c.Performance.BandwidthLimit < 0 {
		return &models.ValidationError{Field: "performance.bandwidth_limit", Message: "bandwidth limit cannot be negative"}
	}
	switch c.Output.Format {
	case "human", "json":
	default:
		return &models.ValidationError{Field: "output.format", Message: "unknown output format: " + c.Output.Format}
	}
	return nil
}

// Options converts the configured defaults into engine options
func (c *Config) Options() models.SyncOptions {
	return models.SyncOptions{
		CompareMethod:     c.Sync.Comparison,
		VerifyDestination: c.Sync.Verify,
		HashAlgorithm:     c.Sync.HashAlgorithm,
		StoreThreshold:    c.Sync.StoreThreshold,
		BufferSize:        c.Performance.BufferSize,
		BandwidthLimit:    c.Performance.BandwidthLimit,
	}
}
