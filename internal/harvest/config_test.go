package harvest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadConfigFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pinharvest.yaml")
	configYAML := `
harvest:
  categories: STUDY_ACADEMIA,NATURE_LANDSCAPES
  max_pins_per_topic: 25
  output_root: /tmp/pins
  download_images: false
  max_concurrent_topics: 2
  max_concurrent_downloads: 4
  max_retries: 3
  backoff_base: 2s
  topic_delay_min: 1s
  topic_delay_max: 2s
  stagnant_pull_limit: 4
  max_pulls: 30
  dedup_backend: memory
source:
  headless: false
  timeout: 20s
fetch:
  timeout: 10s
  host_qps: 2.5
safety:
  enabled: true
  threshold: 0.8
  endpoint: http://localhost:9000/score
upload:
  enabled: false
store:
  backend: none
notify:
  backend: none
api:
  enabled: false
log:
  level: debug
  development: true
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := LoadConfig(v)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Categories != "STUDY_ACADEMIA,NATURE_LANDSCAPES" {
		t.Fatalf("unexpected categories: %q", cfg.Categories)
	}
	if cfg.MaxPinsPerTopic != 25 || cfg.MaxPulls != 30 {
		t.Fatalf("harvest limits not applied: %+v", cfg)
	}
	if cfg.DownloadImages {
		t.Fatalf("expected download_images=false to apply")
	}
	if cfg.BackoffBase != 2*time.Second || cfg.TopicDelayMax != 2*time.Second {
		t.Fatalf("durations not applied: %+v", cfg)
	}
	if cfg.FetchHostQPS != 2.5 {
		t.Fatalf("expected fetch.host_qps 2.5, got %v", cfg.FetchHostQPS)
	}
	if !cfg.SafetyEnabled || cfg.SafetyEndpoint != "http://localhost:9000/score" {
		t.Fatalf("safety settings not applied: %+v", cfg)
	}
	if !cfg.LogDevelopment || cfg.LogLevel != "debug" {
		t.Fatalf("log settings not applied: %+v", cfg)
	}

	rp := cfg.RetryPolicy()
	if rp.MaxAttempts != 3 || rp.BackoffBase != 2*time.Second {
		t.Fatalf("unexpected retry policy: %+v", rp)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Categories:             "ALL",
		MaxPinsPerTopic:        100,
		OutputRoot:             "pinterest_downloads",
		MaxConcurrentTopics:    3,
		MaxConcurrentDownloads: 10,
		MaxRetries:             3,
		BackoffBase:            5 * time.Second,
		TopicDelayMin:          3 * time.Second,
		TopicDelayMax:          8 * time.Second,
		StagnantPullLimit:      5,
		MaxPulls:               50,
		DedupBackend:           "memory",
		SourceTimeout:          45 * time.Second,
		FetchTimeout:           30 * time.Second,
		SafetyThreshold:        0.7,
		StoreBackend:           "none",
		NotifyBackend:          "none",
		LogLevel:               "info",
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("base config should validate, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"zero pin cap", func(c *Config) { c.MaxPinsPerTopic = 0 }, "harvest.max_pins_per_topic"},
		{"empty output root", func(c *Config) { c.OutputRoot = "" }, "harvest.output_root"},
		{"zero topic slots", func(c *Config) { c.MaxConcurrentTopics = 0 }, "harvest.max_concurrent_topics"},
		{"zero download slots", func(c *Config) { c.MaxConcurrentDownloads = 0 }, "harvest.max_concurrent_downloads"},
		{"zero retries", func(c *Config) { c.MaxRetries = 0 }, "harvest.max_retries"},
		{"inverted delay window", func(c *Config) { c.TopicDelayMax = time.Second }, "harvest.topic_delay_min"},
		{"unknown dedup backend", func(c *Config) { c.DedupBackend = "spanner" }, "harvest.dedup_backend"},
		{"redis without addr", func(c *Config) { c.DedupBackend = "redis" }, "harvest.redis_addr"},
		{"threshold out of range", func(c *Config) { c.SafetyThreshold = 1.5 }, "safety.threshold"},
		{"safety without endpoint", func(c *Config) { c.SafetyEnabled = true }, "safety.endpoint"},
		{
			"drive upload without folder",
			func(c *Config) { c.UploadEnabled = true; c.UploadBackend = "drive" },
			"upload.drive_folder_url",
		},
		{
			"gcs upload without bucket",
			func(c *Config) { c.UploadEnabled = true; c.UploadBackend = "gcs" },
			"upload.gcs_bucket",
		},
		{
			"unknown upload backend",
			func(c *Config) { c.UploadEnabled = true; c.UploadBackend = "ftp" },
			"upload.backend",
		},
		{"postgres without dsn", func(c *Config) { c.StoreBackend = "postgres" }, "store.postgres_dsn"},
		{"pubsub without project", func(c *Config) { c.NotifyBackend = "pubsub" }, "notify.project_id"},
		{"api without listen addr", func(c *Config) { c.APIEnabled = true }, "api.listen_addr"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
