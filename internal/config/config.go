package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

const (
	DefaultModel                  = "laion/larger_clap_music"
	DefaultTopK                   = 5
	DefaultLowConfidenceThreshold = 0.1
	DefaultTargetSampleRate       = 48000
)

type Config struct {
	Port                   int               `json:"port"`
	JWTSecret              string            `json:"jwt_secret"`
	CORSOrigins            []string          `json:"cors_origins"`
	RunRateLimitMs         int               `json:"run_rate_limit_ms"`
	LogConfig              logger.LogConfig  `json:"log_config"`
	SamplesStore           FileStoreConfig   `json:"samples_store"`
	CacheStore             CacheStoreConfig  `json:"cache_store"`
	Encoder                EncoderConfig     `json:"encoder"`
	Models                 map[string]string `json:"models"`
	Queries                []string          `json:"queries"`
	DefaultModel           string            `json:"default_model"`
	DefaultTopK            int               `json:"default_top_k"`
	LowConfidenceThreshold *float64          `json:"low_confidence_threshold"`
	TargetSampleRate       int               `json:"target_sample_rate"`
	QueryCache             QueryCacheConfig  `json:"query_cache"`
	Database               DatabaseConfig    `json:"database"`
	Schedule               ScheduleConfig    `json:"schedule"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CacheStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type EncoderConfig struct {
	Provider string      `json:"provider"`
	Data     interface{} `json:"data"`
}

type QueryCacheConfig struct {
	LRUSize       int `json:"lru_size"`
	LRUTTLSeconds int `json:"lru_ttl_seconds"`
	MaxAgeDays    int `json:"max_age_days"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

func (d DatabaseConfig) Enabled() bool {
	return d.DSN != "" || d.Host != ""
}

type ScheduleConfig struct {
	BundleRefresh       string   `json:"bundle_refresh"`
	BundleRefreshModels []string `json:"bundle_refresh_models"`
	QueryCacheCleanup   string   `json:"query_cache_cleanup"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	var cfg Config
	if err := decode(path, raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decode reads JSON, or YAML for .yaml/.yml files. YAML is normalised
// through JSON so both formats share the json tags.
func decode(path string, raw []byte, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return json.Unmarshal(raw, cfg)
	}
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func (c *Config) applyDefaults() error {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.SamplesStore.Type == "" {
		c.SamplesStore.Type = "local"
	}
	if c.SamplesStore.Data == nil && c.SamplesStore.Type == "local" {
		c.SamplesStore.Data = map[string]interface{}{"dir": "public/samples"}
	}
	if c.CacheStore.Type == "" {
		c.CacheStore.Type = "file"
	}
	if c.CacheStore.Data == nil && c.CacheStore.Type == "file" {
		c.CacheStore.Data = map[string]interface{}{
			"type": "local",
			"data": map[string]interface{}{"dir": ".embeddings-cache"},
		}
	}
	if c.Encoder.Provider == "" {
		return fmt.Errorf("encoder.provider is required")
	}
	if len(c.Models) == 0 {
		c.Models = map[string]string{
			"laion/clap-htsat-unfused":  "Xenova/clap-htsat-unfused",
			"laion/larger_clap_general": "Xenova/larger_clap_general",
			"laion/larger_clap_music":   "Xenova/larger_clap_music_and_speech",
		}
	}
	if len(c.Queries) == 0 {
		c.Queries = []string{"drums", "keys", "guitar"}
	}
	if c.DefaultModel == "" {
		c.DefaultModel = DefaultModel
	}
	if _, ok := c.Models[c.DefaultModel]; !ok {
		return fmt.Errorf("default_model %s is not listed in models", c.DefaultModel)
	}
	if c.DefaultTopK == 0 {
		c.DefaultTopK = DefaultTopK
	}
	if c.DefaultTopK < 0 {
		return fmt.Errorf("default_top_k must be positive")
	}
	// an explicit 0 turns the low-confidence gate off
	if c.LowConfidenceThreshold == nil {
		threshold := DefaultLowConfidenceThreshold
		c.LowConfidenceThreshold = &threshold
	}
	if *c.LowConfidenceThreshold < 0 {
		return fmt.Errorf("low_confidence_threshold must not be negative")
	}
	if c.TargetSampleRate == 0 {
		c.TargetSampleRate = DefaultTargetSampleRate
	}
	if c.QueryCache.LRUSize == 0 {
		c.QueryCache.LRUSize = 1024
	}
	if c.QueryCache.LRUTTLSeconds == 0 {
		c.QueryCache.LRUTTLSeconds = 3600
	}
	if c.QueryCache.MaxAgeDays == 0 {
		c.QueryCache.MaxAgeDays = 30
	}
	if c.Schedule.BundleRefresh != "" && len(c.Schedule.BundleRefreshModels) == 0 {
		c.Schedule.BundleRefreshModels = []string{c.DefaultModel}
	}
	for _, m := range c.Schedule.BundleRefreshModels {
		if _, ok := c.Models[m]; !ok {
			return fmt.Errorf("schedule.bundle_refresh_models: %s is not listed in models", m)
		}
	}
	if c.Schedule.QueryCacheCleanup == "" {
		c.Schedule.QueryCacheCleanup = "0 3 * * *"
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return fmt.Errorf("jwt_secret must be at least 16 characters")
	}
	return nil
}
