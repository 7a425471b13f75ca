// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file and environment
// variables, providing a unified configuration system for the harvester.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets defaults for every knob, defines configuration search paths, and
// enables reading from environment variables (prefix PINHARVEST, dots
// replaced with underscores, e.g. PINHARVEST_HARVEST_MAX_PINS_PER_TOPIC).
// Call once at startup before any typed config load.
func InitConfig() {
	viper.SetConfigName("pinharvest")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/pinharvest/")
	viper.AddConfigPath("$HOME/.pinharvest")

	// Harvest run shape.
	viper.SetDefault("harvest.categories", "ALL")
	viper.SetDefault("harvest.max_pins_per_topic", 100)
	viper.SetDefault("harvest.output_root", "pinterest_downloads")
	viper.SetDefault("harvest.download_images", true)
	viper.SetDefault("harvest.max_concurrent_topics", 3)
	viper.SetDefault("harvest.max_concurrent_downloads", 10)
	viper.SetDefault("harvest.max_retries", 3)
	viper.SetDefault("harvest.backoff_base", "5s")
	viper.SetDefault("harvest.topic_delay_min", "3s")
	viper.SetDefault("harvest.topic_delay_max", "8s")
	viper.SetDefault("harvest.stagnant_pull_limit", 5)
	viper.SetDefault("harvest.max_pulls", 50)
	viper.SetDefault("harvest.dedup_backend", "memory")
	viper.SetDefault("harvest.redis_addr", "localhost:6379")

	// Browser session behind the record source.
	viper.SetDefault("source.headless", true)
	viper.SetDefault("source.timeout", "45s")
	viper.SetDefault("source.proxy", "")

	// Asset fetcher politeness.
	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.host_qps", 0)

	// Image safety stage.
	viper.SetDefault("safety.enabled", false)
	viper.SetDefault("safety.threshold", 0.7)
	viper.SetDefault("safety.endpoint", "")

	// Remote mirror of the finished output tree.
	viper.SetDefault("upload.enabled", false)
	viper.SetDefault("upload.backend", "drive")
	viper.SetDefault("upload.drive_folder_url", "")
	viper.SetDefault("upload.credentials_file", "")
	viper.SetDefault("upload.gcs_bucket", "")
	viper.SetDefault("upload.gcs_prefix", "")

	// Run bookkeeping and notifications.
	viper.SetDefault("store.backend", "none")
	viper.SetDefault("store.postgres_dsn", "")
	viper.SetDefault("notify.backend", "none")
	viper.SetDefault("notify.project_id", "")
	viper.SetDefault("notify.topic_id", "")

	// Observability.
	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.listen_addr", ":8077")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)

	viper.SetEnvPrefix("PINHARVEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logging.L.Debug("config file not found; using defaults and environment")
		} else {
			logging.L.Error("error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
