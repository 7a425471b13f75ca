// Package cmd defines and implements the CLI commands for the pinharvest executable.
package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/logging"
)

// newHarvestCmd creates and configures the 'harvest' subcommand.
// This command drives a full run over the selected categories: scrolling each
// topic, filtering and deduplicating pins, downloading images, and writing
// the per-topic and master record files.
func newHarvestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Runs a full harvest over the selected categories",
		Long: `Walks every topic in the selected categories, collects pins from
Pinterest search results, and writes accepted records and images under the
configured output root. Category selection, concurrency, and the optional
mirror, store, and notification backends all come from configuration.`,

		RunE: runHarvestCommand,
	}
	return cmd
}

func runHarvestCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	report, err := appInstance.Run(cmd.Context())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if report.FailedTopics > 0 {
		appInstance.GetLogger().Warn("Some topics did not complete",
			zap.Int("failed_topics", report.FailedTopics),
		)
	}

	logging.L.Info("Harvest command finished.",
		zap.String("run_id", appInstance.GetRunID().String()),
	)
	return nil
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}
