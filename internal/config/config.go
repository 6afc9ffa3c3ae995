// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Output    OutputConfig    `mapstructure:"output"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Download  DownloadConfig  `mapstructure:"download"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Storage   StorageConfig   `mapstructure:"storage"`
	DB        DBConfig        `mapstructure:"db"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// InputConfig locates the identifier list to process.
type InputConfig struct {
	IDFile  string `mapstructure:"id_file"`
	LinkDir string `mapstructure:"link_dir"`
}

// OutputConfig sets where downloaded structure files land.
type OutputConfig struct {
	Dir         string `mapstructure:"dir"`
	Extension   string `mapstructure:"extension"`
	SummaryFile string `mapstructure:"summary_file"`
}

// ResolverConfig governs identifier-to-URL resolution.
type ResolverConfig struct {
	Mode            string `mapstructure:"mode"`
	BaseURL         string `mapstructure:"base_url"`
	MaxParallel     int    `mapstructure:"max_parallel"`
	NavTimeoutSec   int    `mapstructure:"nav_timeout_seconds"`
	MinDelayMs      int    `mapstructure:"min_delay_ms"`
	MaxDelayMs      int    `mapstructure:"max_delay_ms"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
	SearchSelector  string `mapstructure:"search_selector"`
	SubmitSelector  string `mapstructure:"submit_selector"`
	LinkTextMarker  string `mapstructure:"link_text_marker"`
	NoResultsMarker string `mapstructure:"no_results_marker"`
}

// HTTPConfig configures download client retry behavior.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	MaxRetries     int    `mapstructure:"max_retries"`
	BackoffBaseMs  int    `mapstructure:"backoff_base_ms"`
	UserAgent      string `mapstructure:"user_agent"`
}

// DownloadConfig throttles request pacing.
type DownloadConfig struct {
	MinDelayMs int     `mapstructure:"min_delay_ms"`
	MaxDelayMs int     `mapstructure:"max_delay_ms"`
	MaxRPS     float64 `mapstructure:"max_rps"`
}

// PipelineConfig governs the worker pool.
type PipelineConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// StorageConfig selects the blob sink.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// DBConfig controls the optional outcome store.
type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

// PublisherConfig holds metadata for per-outcome event publishing.
type PublisherConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ServerConfig controls the operator HTTP endpoint.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MOLFETCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.id_file", "supernatural3_ids.txt")
	v.SetDefault("input.link_dir", "mol_links")
	v.SetDefault("output.dir", "mol_files")
	v.SetDefault("output.extension", ".mol")
	v.SetDefault("output.summary_file", "download_summary.txt")
	v.SetDefault("resolver.mode", "links")
	v.SetDefault("resolver.base_url", "https://bioinf-applied.charite.de/supernatural_3/subpages/compounds.php")
	v.SetDefault("resolver.max_parallel", 1)
	v.SetDefault("resolver.nav_timeout_seconds", 30)
	v.SetDefault("resolver.min_delay_ms", 1000)
	v.SetDefault("resolver.max_delay_ms", 3000)
	v.SetDefault("resolver.timeout_seconds", 15)
	v.SetDefault("resolver.search_selector", "#id")
	v.SetDefault("resolver.submit_selector", `#searchform input[type="submit"]`)
	v.SetDefault("resolver.link_text_marker", "mol-file")
	v.SetDefault("resolver.no_results_marker", "No compounds found")
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_base_ms", 1000)
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("download.min_delay_ms", 500)
	v.SetDefault("download.max_delay_ms", 2000)
	v.SetDefault("download.max_rps", 0)
	v.SetDefault("pipeline.concurrency", 5)
	v.SetDefault("storage.backend", "fs")
	v.SetDefault("storage.prefix", "mol")
	v.SetDefault("db.enabled", false)
	v.SetDefault("db.table", "fetch_outcomes")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 1)
	v.SetDefault("publisher.enabled", false)
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Input.IDFile == "" {
		return fmt.Errorf("input.id_file must be set")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must be set")
	}
	switch c.Resolver.Mode {
	case "links", "colly", "headless":
	default:
		return fmt.Errorf("resolver.mode must be one of links, colly, headless")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must be >= 0")
	}
	if c.Download.MinDelayMs < 0 || c.Download.MaxDelayMs < c.Download.MinDelayMs {
		return fmt.Errorf("download delay bounds must satisfy 0 <= min <= max")
	}
	switch c.Storage.Backend {
	case "fs":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend must be fs or gcs")
	}
	if c.DB.Enabled && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db is enabled")
	}
	if c.Publisher.Enabled && (c.Publisher.ProjectID == "" || c.Publisher.TopicName == "") {
		return fmt.Errorf("publisher.project_id and publisher.topic_name must be set when publisher is enabled")
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0 when server is enabled")
	}
	return nil
}

// HTTPTimeout converts the request timeout knob into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// BackoffBase converts the backoff base knob into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.HTTP.BackoffBaseMs) * time.Millisecond
}
