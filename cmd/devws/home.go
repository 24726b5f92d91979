package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/homesync"
	"github.com/smykla-skalski/devws/pkg/logger"
	"github.com/smykla-skalski/devws/pkg/profile"
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Synchronize home-directory files with GCS",
	Long: `Home moves the files and directories listed under user_home_sync in the
global config between $HOME and the profile bucket's dotfiles area.`,
}

// newHomeSyncer builds the home syncer from the cached profile binding and
// the configured user_home_sync entries. Config commands reuse it for the
// backup and restore paths.
func newHomeSyncer(cmd *cobra.Command, dryRun bool) (*homesync.Syncer, *config.Global, error) {
	log := logger.FromContext(cmd.Context())

	global, err := config.Load(log)
	if err != nil {
		return nil, nil, err
	}

	binding, err := profile.Lookup(global, stringFlag(cmd, "profile"))
	if err != nil {
		return nil, nil, err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, errors.Wrap(err, "locating home directory")
	}

	syncer := homesync.NewSyncer(homesync.SyncerParams{
		Client: gcloud.NewClient(log, config.LabelKey(), dryRun),
		Log:    log,
		Layout: gcloud.Layout{Bucket: binding.BucketName},
		Home:   home,
		Items:  global.UserHomeSync,
	})

	return syncer, global, nil
}

func homeOutcomeEmoji(outcome homesync.Outcome) string {
	switch outcome {
	case homesync.OutcomeSkipped:
		return "⏭️"
	case homesync.OutcomeFailed:
		return "❌"
	default:
		return "✅"
	}
}

// printHomeReport lists the per-entry outcomes of a home push or pull.
func printHomeReport(report *homesync.Report) {
	for _, item := range report.Items {
		line := fmt.Sprintf("%s %s", homeOutcomeEmoji(item.Outcome), item.Path)
		if item.Detail != "" {
			line += " (" + item.Detail + ")"
		}

		fmt.Println(line)
	}
}

var homePushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload configured home files to GCS",
	RunE: func(cmd *cobra.Command, _ []string) error {
		syncer, global, err := newHomeSyncer(cmd, boolFlag(cmd, "dry-run"))
		if err != nil {
			return err
		}

		if len(global.UserHomeSync) == 0 {
			fmt.Println("ℹ️ No user_home_sync entries configured. Nothing to do.")

			return nil
		}

		report, err := syncer.Push(cmd.Context())
		if err != nil {
			return err
		}

		printHomeReport(report)

		if failed := report.FailedCount(); failed > 0 {
			return errors.Newf("%d home entry(ies) failed to push", failed)
		}

		return nil
	},
}

var homePullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download configured home files from GCS",
	Long: `Download each user_home_sync entry from the dotfiles area. Existing
local paths are skipped unless --force replaces them; a forced directory pull
replaces the directory wholesale so deletions propagate.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		syncer, global, err := newHomeSyncer(cmd, boolFlag(cmd, "dry-run"))
		if err != nil {
			return err
		}

		if len(global.UserHomeSync) == 0 {
			fmt.Println("ℹ️ No user_home_sync entries configured. Nothing to do.")

			return nil
		}

		report, err := syncer.Pull(cmd.Context(), boolFlag(cmd, "force"))
		if err != nil {
			return err
		}

		printHomeReport(report)

		if failed := report.FailedCount(); failed > 0 {
			return errors.Newf("%d home entry(ies) failed to pull", failed)
		}

		return nil
	},
}

func init() {
	homePushCmd.Flags().String("profile", "", "GCS profile name (defaults to the configured default profile)")
	homePushCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	homePullCmd.Flags().String("profile", "", "GCS profile name (defaults to the configured default profile)")
	homePullCmd.Flags().Bool("force", false, "Replace local paths that already exist")
	homePullCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	homeCmd.AddCommand(homePushCmd)
	homeCmd.AddCommand(homePullCmd)

	rootCmd.AddCommand(homeCmd)
}
