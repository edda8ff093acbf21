// Package config loads the process configuration once at startup:
// defaults, then an optional yaml file, then MEMCORD_* environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full configuration surface.
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Ollama     OllamaConfig     `mapstructure:"ollama"`
	Processing ProcessingConfig `mapstructure:"processing"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Log        LogConfig        `mapstructure:"log"`
}

// StorageConfig locates the SQLite database.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// OllamaConfig points at the optional text-enhancement collaborator.
type OllamaConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Model   string `mapstructure:"model"`
}

// ProcessingConfig holds the memory-processing flags.
type ProcessingConfig struct {
	AutoExtract         bool    `mapstructure:"auto_extract"`
	Deduplicate         bool    `mapstructure:"deduplicate"`
	DedupThreshold      float64 `mapstructure:"dedup_threshold"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	MaxResults          int     `mapstructure:"max_results"`
}

// HTTPConfig configures the proxy transport listener.
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// DefaultDir returns the data directory (~/.memcord).
func DefaultDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".memcord")
}

// Load reads configuration from defaults, ~/.memcord/config.yaml (if
// present) and MEMCORD_* environment variables, in that precedence order.
func Load() (*Config, error) {
	return LoadFrom(filepath.Join(DefaultDir(), "config.yaml"))
}

// LoadFrom loads configuration with an explicit file path. A missing file
// is not an error; a malformed one is.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("storage.path", filepath.Join(DefaultDir(), "memcord.db"))
	v.SetDefault("ollama.enabled", true)
	v.SetDefault("ollama.url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2:1b")
	v.SetDefault("processing.auto_extract", false)
	v.SetDefault("processing.deduplicate", true)
	v.SetDefault("processing.dedup_threshold", 0.9)
	v.SetDefault("processing.similarity_threshold", 0.3)
	v.SetDefault("processing.max_results", 20)
	v.SetDefault("http.port", 8020)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetEnvPrefix("MEMCORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
