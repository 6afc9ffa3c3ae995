package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "supernatural3_ids.txt", cfg.Input.IDFile)
	require.Equal(t, "mol_files", cfg.Output.Dir)
	require.Equal(t, ".mol", cfg.Output.Extension)
	require.Equal(t, "download_summary.txt", cfg.Output.SummaryFile)
	require.Equal(t, 5, cfg.Pipeline.Concurrency)
	require.Equal(t, 3, cfg.HTTP.MaxRetries)
	require.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	require.Equal(t, time.Second, cfg.BackoffBase())
	require.Equal(t, 500, cfg.Download.MinDelayMs)
	require.Equal(t, 2000, cfg.Download.MaxDelayMs)
	require.Equal(t, "links", cfg.Resolver.Mode)
	require.Equal(t, "fs", cfg.Storage.Backend)
	require.False(t, cfg.DB.Enabled)
	require.False(t, cfg.Publisher.Enabled)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
pipeline:
  concurrency: 8
http:
  max_retries: 1
  timeout_seconds: 5
output:
  dir: /tmp/structures
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8, cfg.Pipeline.Concurrency)
	require.Equal(t, 1, cfg.HTTP.MaxRetries)
	require.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	require.Equal(t, "/tmp/structures", cfg.Output.Dir)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("MOLFETCH_PIPELINE_CONCURRENCY", "12")
	t.Setenv("MOLFETCH_STORAGE_BACKEND", "gcs")
	t.Setenv("MOLFETCH_STORAGE_GCS_BUCKET", "compound-artifacts")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Pipeline.Concurrency)
	require.Equal(t, "gcs", cfg.Storage.Backend)
	require.Equal(t, "compound-artifacts", cfg.Storage.GCSBucket)
}

func TestLoad_MissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Pipeline.Concurrency = 0 }},
		{"negative retries", func(c *Config) { c.HTTP.MaxRetries = -1 }},
		{"zero timeout", func(c *Config) { c.HTTP.TimeoutSeconds = 0 }},
		{"inverted delays", func(c *Config) { c.Download.MinDelayMs = 100; c.Download.MaxDelayMs = 10 }},
		{"unknown resolver mode", func(c *Config) { c.Resolver.Mode = "selenium" }},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "s3" }},
		{"gcs without bucket", func(c *Config) { c.Storage.Backend = "gcs"; c.Storage.GCSBucket = "" }},
		{"db enabled without dsn", func(c *Config) { c.DB.Enabled = true; c.DB.DSN = "" }},
		{"publisher enabled without topic", func(c *Config) { c.Publisher.Enabled = true; c.Publisher.ProjectID = "p" }},
		{"server enabled without port", func(c *Config) { c.Server.Enabled = true; c.Server.Port = 0 }},
		{"empty id file", func(c *Config) { c.Input.IDFile = "" }},
		{"empty output dir", func(c *Config) { c.Output.Dir = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
