package harvest

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences a harvest run. All values
// originate from Viper so the run can be configured via file or env vars.
type Config struct {
	Categories             string
	MaxPinsPerTopic        int
	OutputRoot             string
	DownloadImages         bool
	MaxConcurrentTopics    int
	MaxConcurrentDownloads int
	MaxRetries             int
	BackoffBase            time.Duration
	TopicDelayMin          time.Duration
	TopicDelayMax          time.Duration
	StagnantPullLimit      int
	MaxPulls               int
	DedupBackend           string
	RedisAddr              string

	SourceHeadless bool
	SourceTimeout  time.Duration
	SourceProxy    string

	FetchTimeout time.Duration
	FetchHostQPS float64

	SafetyEnabled   bool
	SafetyThreshold float64
	SafetyEndpoint  string

	UploadEnabled         bool
	UploadBackend         string
	UploadDriveFolderURL  string
	UploadCredentialsFile string
	UploadGCSBucket       string
	UploadGCSPrefix       string

	StoreBackend    string
	StorePostgresDSN string

	NotifyBackend   string
	NotifyProjectID string
	NotifyTopicID   string

	APIEnabled    bool
	APIListenAddr string

	LogLevel       string
	LogDevelopment bool
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		Categories:             v.GetString("harvest.categories"),
		MaxPinsPerTopic:        v.GetInt("harvest.max_pins_per_topic"),
		OutputRoot:             v.GetString("harvest.output_root"),
		DownloadImages:         v.GetBool("harvest.download_images"),
		MaxConcurrentTopics:    v.GetInt("harvest.max_concurrent_topics"),
		MaxConcurrentDownloads: v.GetInt("harvest.max_concurrent_downloads"),
		MaxRetries:             v.GetInt("harvest.max_retries"),
		BackoffBase:            v.GetDuration("harvest.backoff_base"),
		TopicDelayMin:          v.GetDuration("harvest.topic_delay_min"),
		TopicDelayMax:          v.GetDuration("harvest.topic_delay_max"),
		StagnantPullLimit:      v.GetInt("harvest.stagnant_pull_limit"),
		MaxPulls:               v.GetInt("harvest.max_pulls"),
		DedupBackend:           v.GetString("harvest.dedup_backend"),
		RedisAddr:              v.GetString("harvest.redis_addr"),

		SourceHeadless: v.GetBool("source.headless"),
		SourceTimeout:  v.GetDuration("source.timeout"),
		SourceProxy:    v.GetString("source.proxy"),

		FetchTimeout: v.GetDuration("fetch.timeout"),
		FetchHostQPS: v.GetFloat64("fetch.host_qps"),

		SafetyEnabled:   v.GetBool("safety.enabled"),
		SafetyThreshold: v.GetFloat64("safety.threshold"),
		SafetyEndpoint:  v.GetString("safety.endpoint"),

		UploadEnabled:         v.GetBool("upload.enabled"),
		UploadBackend:         v.GetString("upload.backend"),
		UploadDriveFolderURL:  v.GetString("upload.drive_folder_url"),
		UploadCredentialsFile: v.GetString("upload.credentials_file"),
		UploadGCSBucket:       v.GetString("upload.gcs_bucket"),
		UploadGCSPrefix:       v.GetString("upload.gcs_prefix"),

		StoreBackend:     v.GetString("store.backend"),
		StorePostgresDSN: v.GetString("store.postgres_dsn"),

		NotifyBackend:   v.GetString("notify.backend"),
		NotifyProjectID: v.GetString("notify.project_id"),
		NotifyTopicID:   v.GetString("notify.topic_id"),

		APIEnabled:    v.GetBool("api.enabled"),
		APIListenAddr: v.GetString("api.listen_addr"),

		LogLevel:       v.GetString("log.level"),
		LogDevelopment: v.GetBool("log.development"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.MaxPinsPerTopic <= 0 {
		return fmt.Errorf("harvest.max_pins_per_topic must be > 0")
	}
	if c.OutputRoot == "" {
		return fmt.Errorf("harvest.output_root must be set")
	}
	if c.MaxConcurrentTopics <= 0 {
		return fmt.Errorf("harvest.max_concurrent_topics must be > 0")
	}
	if c.MaxConcurrentDownloads <= 0 {
		return fmt.Errorf("harvest.max_concurrent_downloads must be > 0")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("harvest.max_retries must be > 0")
	}
	if c.BackoffBase <= 0 {
		return fmt.Errorf("harvest.backoff_base must be > 0")
	}
	if c.TopicDelayMin < 0 || c.TopicDelayMax < c.TopicDelayMin {
		return fmt.Errorf("harvest.topic_delay_min/max must satisfy 0 <= min <= max")
	}
	if c.StagnantPullLimit <= 0 {
		return fmt.Errorf("harvest.stagnant_pull_limit must be > 0")
	}
	if c.MaxPulls <= 0 {
		return fmt.Errorf("harvest.max_pulls must be > 0")
	}
	switch c.DedupBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("harvest.dedup_backend must be memory or redis, got %q", c.DedupBackend)
	}
	if c.DedupBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("harvest.redis_addr must be set for the redis dedup backend")
	}
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("source.timeout must be > 0")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.FetchHostQPS < 0 {
		return fmt.Errorf("fetch.host_qps must be >= 0")
	}
	if c.SafetyThreshold < 0 || c.SafetyThreshold > 1 {
		return fmt.Errorf("safety.threshold must be within [0, 1]")
	}
	if c.SafetyEnabled && c.SafetyEndpoint == "" {
		return fmt.Errorf("safety.endpoint must be set when safety.enabled is true")
	}
	if c.UploadEnabled {
		switch c.UploadBackend {
		case "drive":
			if c.UploadDriveFolderURL == "" {
				return fmt.Errorf("upload.drive_folder_url must be set for the drive backend")
			}
		case "gcs":
			if c.UploadGCSBucket == "" {
				return fmt.Errorf("upload.gcs_bucket must be set for the gcs backend")
			}
		default:
			return fmt.Errorf("upload.backend must be drive or gcs, got %q", c.UploadBackend)
		}
	}
	switch c.StoreBackend {
	case "none", "postgres":
	default:
		return fmt.Errorf("store.backend must be none or postgres, got %q", c.StoreBackend)
	}
	if c.StoreBackend == "postgres" && c.StorePostgresDSN == "" {
		return fmt.Errorf("store.postgres_dsn must be set for the postgres backend")
	}
	switch c.NotifyBackend {
	case "none", "memory", "pubsub":
	default:
		return fmt.Errorf("notify.backend must be none, memory, or pubsub, got %q", c.NotifyBackend)
	}
	if c.NotifyBackend == "pubsub" && (c.NotifyProjectID == "" || c.NotifyTopicID == "") {
		return fmt.Errorf("notify.project_id and notify.topic_id must be set for the pubsub backend")
	}
	if c.APIEnabled && c.APIListenAddr == "" {
		return fmt.Errorf("api.listen_addr must be set when api.enabled is true")
	}
	return nil
}

// RetryPolicy derives the topic retry policy from the config.
func (c Config) RetryPolicy() LinearRetryPolicy {
	return LinearRetryPolicy{MaxAttempts: c.MaxRetries, BackoffBase: c.BackoffBase}
}
