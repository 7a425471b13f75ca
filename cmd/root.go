package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/app"
	"github.com/mirrorlake/pinharvest/internal/harvest"
	"github.com/mirrorlake/pinharvest/internal/logging"
	"github.com/mirrorlake/pinharvest/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// noServicesAnnotation marks commands that only read the embedded catalog
// and therefore skip building the full service container.
const noServicesAnnotation = "pinharvest.noServices"

// App defines the application surface that commands use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetRunID() uuid.UUID
	GetConfig() harvest.Config
	Run(ctx context.Context) (harvest.RunReport, error)
	Mirror(ctx context.Context) error
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	return app.New(ctx)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pinharvest",
		Short: "A multi-topic Pinterest image harvester.",
		Long: `pinharvest walks a fixed catalog of aesthetic search topics, scrolls
each Pinterest search in a headless browser, filters and deduplicates the
collected pins, downloads the accepted images, and writes per-topic JSON
records plus a master index under the output root.`,

		// This hook runs AFTER config is loaded but BEFORE the subcommand's RunE.
		// This is the perfect place to build and inject the application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := logging.Init(viper.GetString("log.level"), viper.GetBool("log.development")); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}

			if cmd.Annotations[noServicesAnnotation] == "true" {
				return nil
			}

			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	// Initialize Viper configuration.
	cobra.OnInitialize(initConfig)

	// Define persistent flags.
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./pinharvest.yaml)")

	// Add subcommands. They no longer take the app as an argument.
	cmd.AddCommand(newHarvestCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newTopicsCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	config.InitConfig()
}

// Execute is the main entry point.
func Execute() {
	// Interrupts cancel the command context so a running harvest can drain.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
