package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/recera/htag/pkg/list"
	"github.com/recera/htag/pkg/scheduler"
)

// FileNames are the configuration files looked up by Load, in order. JSON is
// valid YAML, so htag.json is decoded by the same parser.
var FileNames = []string{"htag.yaml", "htag.yml", "htag.json"}

// Config represents the htag.yaml configuration
type Config struct {
	// Keyed list attribute names
	List *ListConfig `yaml:"list,omitempty"`

	// Parsed template cache
	Cache *CacheConfig `yaml:"cache,omitempty"`

	// Deferred callback scheduling
	Scheduler *SchedulerConfig `yaml:"scheduler,omitempty"`

	// Preview server configuration
	Dev *DevConfig `yaml:"dev,omitempty"`

	// Style rule files (YAML) rendered into the preview page
	Styles []string `yaml:"styles,omitempty"`
}

// ListConfig names the attributes written by the list reconciler
type ListConfig struct {
	KeyName      string `yaml:"keyName,omitempty"`
	IndexKeyName string `yaml:"indexKeyName,omitempty"`
}

// CacheConfig bounds the parsed template cache
type CacheConfig struct {
	Size     int  `yaml:"size,omitempty"`
	Disabled bool `yaml:"disabled,omitempty"`
}

// SchedulerConfig tunes the callback scheduler
type SchedulerConfig struct {
	FrameInterval time.Duration `yaml:"frameInterval,omitempty"`
}

// DevConfig contains preview server configuration
type DevConfig struct {
	// Server port
	Port int `yaml:"port,omitempty"`

	// Server host
	Host string `yaml:"host,omitempty"`

	// Directory holding fixture files
	FixturesDir string `yaml:"fixtures,omitempty"`

	// Quiet period after a file change before re-rendering
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// Addr returns host:port
func (d *DevConfig) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// Load loads configuration from the first file in FileNames found in
// projectPath. Without a file the defaults are returned.
func Load(projectPath string) (*Config, error) {
	for _, name := range FileNames {
		configPath := filepath.Join(projectPath, name)
		data, err := os.ReadFile(configPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
		return Parse(data)
	}
	return DefaultConfig(), nil
}

// Parse decodes configuration data and applies defaults for missing values
func Parse(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves configuration to htag.yaml
func Save(config *Config, projectPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(filepath.Join(projectPath, FileNames[0]), data, 0644)
}

// Validate rejects values the packages cannot use
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return fmt.Errorf("dev.port %d out of range", c.Dev.Port)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("cache.size must not be negative")
	}
	if c.List.KeyName == c.List.IndexKeyName {
		return fmt.Errorf("list.keyName and list.indexKeyName must differ")
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		List: &ListConfig{
			KeyName:      list.DefaultKeyName,
			IndexKeyName: list.DefaultIndexKeyName,
		},
		Cache: &CacheConfig{
			Size: 256,
		},
		Scheduler: &SchedulerConfig{
			FrameInterval: scheduler.DefaultFrameInterval,
		},
		Dev: &DevConfig{
			Port:        8080,
			Host:        "localhost",
			FixturesDir: "fixtures",
			Debounce:    100 * time.Millisecond,
		},
	}
}

// CacheSize returns the size to pass to htag.SetParseCacheSize
func (c *Config) CacheSize() int {
	if c.Cache.Disabled {
		return 0
	}
	return c.Cache.Size
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	// Apply list defaults
	if config.List == nil {
		config.List = defaults.List
	} else {
		if config.List.KeyName == "" {
			config.List.KeyName = defaults.List.KeyName
		}
		if config.List.IndexKeyName == "" {
			config.List.IndexKeyName = defaults.List.IndexKeyName
		}
	}

	if config.Cache == nil {
		config.Cache = defaults.Cache
	} else if config.Cache.Size == 0 {
		config.Cache.Size = defaults.Cache.Size
	}

	if config.Scheduler == nil {
		config.Scheduler = defaults.Scheduler
	} else if config.Scheduler.FrameInterval <= 0 {
		config.Scheduler.FrameInterval = defaults.Scheduler.FrameInterval
	}

	// Apply dev server defaults
	if config.Dev == nil {
		config.Dev = defaults.Dev
	} else {
		if config.Dev.Port == 0 {
			config.Dev.Port = defaults.Dev.Port
		}
		if config.Dev.Host == "" {
			config.Dev.Host = defaults.Dev.Host
		}
		if config.Dev.FixturesDir == "" {
			config.Dev.FixturesDir = defaults.Dev.FixturesDir
		}
		if config.Dev.Debounce <= 0 {
			config.Dev.Debounce = defaults.Dev.Debounce
		}
	}
}
