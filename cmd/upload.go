package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mirrorlake/pinharvest/internal/logging"
)

// newUploadCmd creates and configures the 'upload' subcommand. It mirrors an
// already harvested output tree without starting a new run, for reruns after
// a mirror failure or for trees produced with upload disabled.
func newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Mirrors an existing output tree to the configured backend",
		Long: `Uploads the records and images under the configured output root to
the remote mirror (Google Drive or GCS) without harvesting anything new.
Files that already exist remotely are skipped, so the command is safe to
rerun after a partial failure.`,

		RunE: runUploadCommand,
	}
	return cmd
}

func runUploadCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	root := appInstance.GetConfig().OutputRoot
	appInstance.GetLogger().Info("Mirroring output tree", zap.String("root", root))

	if err := appInstance.Mirror(cmd.Context()); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	logging.L.Info("Upload command finished.")
	return nil
}
