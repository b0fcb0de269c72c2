// Package config loads the YAML configuration that drives backup runs.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// CatalogFileName is the catalog's file name inside the archive directory.
const CatalogFileName = "indice_backups.json"

// Config represents the top-level YAML configuration file.
type Config struct {
	Include     []string          `mapstructure:"include"            yaml:"include,omitempty"`
	Paths       PathsConfig       `mapstructure:"paths"              yaml:"paths"`
	Compression CompressionConfig `mapstructure:"compression"        yaml:"compression"`
	Exclusion   ExclusionConfig   `mapstructure:"exclusion_patterns" yaml:"exclusion_patterns"`
	Retention   RetentionConfig   `mapstructure:"retention"          yaml:"retention"`
	Hash        HashConfig        `mapstructure:"hash"               yaml:"hash"`
}

// PathsConfig locates the backup source and the archive directory.
type PathsConfig struct {
	DefaultSource string `mapstructure:"default_source" yaml:"default_source,omitempty"`
	ArchiveDir    string `mapstructure:"archive_dir"    yaml:"archive_dir"`
}

// CompressionConfig holds the default archive format and level.
type CompressionConfig struct {
	DefaultFormat string `mapstructure:"default_format" yaml:"default_format"`
	DefaultLevel  int    `mapstructure:"default_level"  yaml:"default_level"`
}

// ExclusionConfig carries the built-in and operator-added glob patterns.
type ExclusionConfig struct {
	Default []string `mapstructure:"default" yaml:"default,omitempty"`
	Custom  []string `mapstructure:"custom"  yaml:"custom,omitempty"`
}

// AllPatterns returns the default patterns followed by the custom ones.
func (e ExclusionConfig) AllPatterns() []string {
	all := make([]string, 0, len(e.Default)+len(e.Custom))
	all = append(all, e.Default...)
	all = append(all, e.Custom...)
	return all
}

// RetentionConfig specifies the default cleanup policy.
type RetentionConfig struct {
	DaysToKeep      int `mapstructure:"days_to_keep"      yaml:"days_to_keep"`
	MaxPerDirectory int `mapstructure:"max_per_directory" yaml:"max_per_directory"`
	MaxTotalSizeGB  int `mapstructure:"max_total_size_gb" yaml:"max_total_size_gb,omitempty"`
}

// HashConfig selects the content-hash algorithm.
type HashConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
}

// Default returns a working configuration with no file loaded.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Paths: PathsConfig{
			ArchiveDir: filepath.Join(home, ".cofre", "archives"),
		},
		Compression: CompressionConfig{
			DefaultFormat: "tar",
			DefaultLevel:  6,
		},
		Exclusion: ExclusionConfig{
			Default: []string{
				"node_modules", "__pycache__", ".git", "*.pyc",
				"*.log", "*.tmp", ".DS_Store", "target", "dist",
			},
		},
		Retention: RetentionConfig{
			DaysToKeep:      30,
			MaxPerDirectory: 5,
		},
		Hash: HashConfig{Algorithm: "md5"},
	}
}

// CatalogPath returns the catalog file path under the archive directory.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Paths.ArchiveDir, CatalogFileName)
}

// Load reads the configuration from the given YAML file using Viper,
// merges any included files, and decodes the result over the defaults.
func (c *Config) Load(path string) error {
	*c = Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read base config %s: %v", ErrLoadConfig, path, err)
	}

	// Merge include files (if any)
	for _, inc := range v.GetStringSlice("include") {
		data, err := os.ReadFile(inc)
		if err != nil {
			return fmt.Errorf("%w: read include %s: %v", ErrLoadConfig, inc, err)
		}
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return fmt.Errorf("%w: merge include %s: %v", ErrLoadConfig, inc, err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           c,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("%w: build decoder: %v", ErrLoadConfig, err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return fmt.Errorf("%w: unmarshal config: %v", ErrLoadConfig, err)
	}

	return c.Validate()
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Paths.ArchiveDir == "" {
		return fmt.Errorf("%w: paths.archive_dir is required", ErrValidateConfig)
	}
	switch c.Compression.DefaultFormat {
	case "tar", "zip":
	default:
		return fmt.Errorf("%w: compression.default_format must be tar or zip, got %q",
			ErrValidateConfig, c.Compression.DefaultFormat)
	}
	if c.Compression.DefaultLevel < 0 || c.Compression.DefaultLevel > 9 {
		return fmt.Errorf("%w: compression.default_level must be 0-9, got %d",
			ErrValidateConfig, c.Compression.DefaultLevel)
	}
	switch c.Hash.Algorithm {
	case "md5", "sha256":
	default:
		return fmt.Errorf("%w: hash.algorithm must be md5 or sha256, got %q",
			ErrValidateConfig, c.Hash.Algorithm)
	}
	return nil
}
