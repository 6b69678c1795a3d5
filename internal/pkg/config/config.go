package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Andrey-Khohlov/rollermap/internal/core/domain"
)

// Config holds all application configuration.
type Config struct {
	Paths          PathsConfig          `mapstructure:"paths"`
	Pipeline       PipelineConfig       `mapstructure:"pipeline"`
	Render         RenderConfig         `mapstructure:"render"`
	Roadworks      RoadworksConfig      `mapstructure:"roadworks"`
	Cache          CacheConfig          `mapstructure:"cache"`
	Valkey         ValkeyConfig         `mapstructure:"valkey"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Server         ServerConfig         `mapstructure:"server"`
	Log            LogConfig            `mapstructure:"log"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
}

type PathsConfig struct {
	TracksDir       string `mapstructure:"tracks_dir"`
	RestrictionsDir string `mapstructure:"restrictions_dir"`
	Output          string `mapstructure:"output"`
}

type PipelineConfig struct {
	DecimationStride int `mapstructure:"decimation_stride"`
}

type RenderConfig struct {
	Title  string `mapstructure:"title"`
	Zoom   int    `mapstructure:"zoom"`
	Tiles  string `mapstructure:"tiles"`
	Minify bool   `mapstructure:"minify"`
}

type RoadworksConfig struct {
	URL       string        `mapstructure:"url"`
	APIKey    string        `mapstructure:"api_key"`
	Filter    string        `mapstructure:"filter"`
	CachePath string        `mapstructure:"cache_path"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the dataset cache backend: "file" or "valkey".
type CacheConfig struct {
	Backend string `mapstructure:"backend"`
}

type ValkeyConfig struct {
	Addr      string        `mapstructure:"addr"`
	Prefix    string        `mapstructure:"prefix"`
	Retention time.Duration `mapstructure:"retention"`
}

// ClassificationConfig lists the road-work ids known to be newly paved and
// the ids known to be degraded, the latter with a cause/date label.
type ClassificationConfig struct {
	NewIDs   []int64           `mapstructure:"new_ids"`
	Degraded map[string]string `mapstructure:"degraded"`
}

type ServerConfig struct {
	Port         int `mapstructure:"port"`
	ReadTimeout  int `mapstructure:"read_timeout"`
	WriteTimeout int `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// Tables converts the configured id lists into classification tables.
func (c ClassificationConfig) Tables() (domain.ClassificationTables, error) {
	degraded := make(map[int64]string, len(c.Degraded))
	for k, label := range c.Degraded {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return domain.ClassificationTables{}, fmt.Errorf("classification.degraded: invalid id %q", k)
		}
		degraded[id] = label
	}
	return domain.NewClassificationTables(c.NewIDs, degraded), nil
}

// Load reads configuration from file and environment variables. configFile
// may be empty to search the default locations.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("paths.tracks_dir", "./tracks")
	v.SetDefault("paths.restrictions_dir", "")
	v.SetDefault("paths.output", "combined_map.html")
	v.SetDefault("pipeline.decimation_stride", 5)
	v.SetDefault("render.title", "Rollermap")
	v.SetDefault("render.zoom", 12)
	v.SetDefault("render.tiles", "CartoDB Positron")
	v.SetDefault("render.minify", true)
	v.SetDefault("roadworks.url", "")
	v.SetDefault("roadworks.api_key", "")
	v.SetDefault("roadworks.filter", "")
	v.SetDefault("roadworks.cache_path", "./cache")
	v.SetDefault("roadworks.cache_ttl", 24*time.Hour)
	v.SetDefault("roadworks.timeout", 60*time.Second)
	v.SetDefault("cache.backend", "file")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("valkey.prefix", "rollermap:")
	v.SetDefault("valkey.retention", 30*24*time.Hour)
	v.SetDefault("classification.new_ids", []int64{})
	v.SetDefault("classification.degraded", map[string]string{})
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.textfile", "")

	// Config file (optional unless given explicitly)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: ROLLERMAP_ROADWORKS_API_KEY → roadworks.api_key
	v.SetEnvPrefix("ROLLERMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Paths.RestrictionsDir == "" {
		cfg.Paths.RestrictionsDir = filepath.Join(cfg.Paths.TracksDir, "restrictions")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Paths.TracksDir == "" {
		errs = append(errs, "paths.tracks_dir is required")
	}
	if c.Paths.Output == "" {
		errs = append(errs, "paths.output is required")
	}
	if c.Pipeline.DecimationStride < 1 {
		errs = append(errs, fmt.Sprintf("pipeline.decimation_stride must be >= 1, got %d", c.Pipeline.DecimationStride))
	}
	if c.Render.Zoom < 0 || c.Render.Zoom > 20 {
		errs = append(errs, fmt.Sprintf("render.zoom must be 0-20, got %d", c.Render.Zoom))
	}
	if c.Roadworks.CacheTTL < 0 {
		errs = append(errs, "roadworks.cache_ttl must not be negative")
	}
	if c.Roadworks.Timeout <= 0 {
		errs = append(errs, "roadworks.timeout must be positive")
	}
	switch c.Cache.Backend {
	case "file":
		if c.Roadworks.CachePath == "" {
			errs = append(errs, "roadworks.cache_path is required for the file cache")
		}
	case "valkey":
		if c.Valkey.Addr == "" {
			errs = append(errs, "valkey.addr is required for the valkey cache")
		}
	case "none":
	default:
		errs = append(errs, fmt.Sprintf("cache.backend must be file, valkey or none, got %q", c.Cache.Backend))
	}
	if _, err := c.Classification.Tables(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
