package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
	"github.com/smykla-skalski/devws/pkg/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage GCS sync profiles",
	Long: `A profile binds a name to the Google Cloud project and bucket that back
configuration sync. Bindings are discovered through cloud labels and cached
in the global config file.`,
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Establish a profile binding",
	Long: `Resolve the project and bucket for a profile and persist the binding:
explicit --project-id/--bucket-name win, then the cached config, then label
discovery across accessible projects. The resolved pair is labeled and saved.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		client := gcloud.NewClient(log, config.LabelKey(), boolFlag(cmd, "dry-run"))
		resolver := profile.NewResolver(client, global, log)

		res, err := resolver.Resolve(ctx, profile.Options{
			ProjectID:  stringFlag(cmd, "project-id"),
			BucketName: stringFlag(cmd, "bucket-name"),
			Profile:    stringFlag(cmd, "name"),
		})
		if res != nil {
			printMessages(res.Messages)
		}

		return err
	},
}

var profileClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove a profile binding and its cloud labels",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		name := global.ProfileName(stringFlag(cmd, "name"))
		dryRun := boolFlag(cmd, "dry-run")

		if !dryRun && !boolFlag(cmd, "force") {
			prompt := fmt.Sprintf("Remove the '%s' labels and cached binding for profile '%s'?",
				config.LabelKey(), name)
			if !confirm(prompt) {
				fmt.Println("Operation cancelled.")

				return nil
			}
		}

		client := gcloud.NewClient(log, config.LabelKey(), dryRun)
		resolver := profile.NewResolver(client, global, log)

		res, err := resolver.Clear(ctx, name)
		if res != nil {
			printMessages(res.Messages)
		}

		return err
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the cached profile bindings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.FromContext(cmd.Context())

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		if len(global.GCSProfiles) == 0 {
			fmt.Println("No profiles configured. Run 'devws profile set' first.")

			return nil
		}

		names := make([]string, 0, len(global.GCSProfiles))
		for name := range global.GCSProfiles {
			names = append(names, name)
		}

		sort.Strings(names)

		defaultName := global.ProfileName("")

		rows := make([][]string, 0, len(names))
		for _, name := range names {
			binding := global.GCSProfiles[name]
			rows = append(rows, []string{
				name,
				binding.ProjectID,
				binding.BucketName,
				yesNo(name == defaultName),
			})
		}

		renderTable([]string{"PROFILE", "PROJECT", "BUCKET", "DEFAULT"}, rows)

		return nil
	},
}

var profileSetDefaultCmd = &cobra.Command{
	Use:   "set-default NAME",
	Short: "Set the default profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.FromContext(cmd.Context())

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		name := args[0]

		if _, ok := global.Profile(name); !ok {
			fmt.Printf("⚠️ Profile '%s' has no cached binding yet. Run 'devws profile set --name %s' to establish one.\n",
				name, name)
		}

		global.DefaultGCSProfile = name

		if err := global.Save(log); err != nil {
			return err
		}

		fmt.Printf("✅ Default GCS profile set to '%s'.\n", name)

		return nil
	},
}

func init() {
	profileSetCmd.Flags().String("name", "", "Profile name (defaults to the configured default profile)")
	profileSetCmd.Flags().String("project-id", "", "Google Cloud project ID to bind explicitly")
	profileSetCmd.Flags().String("bucket-name", "", "GCS bucket name to bind explicitly")
	profileSetCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	profileClearCmd.Flags().String("name", "", "Profile name (defaults to the configured default profile)")
	profileClearCmd.Flags().Bool("force", false, "Skip the confirmation prompt")
	profileClearCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileClearCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileSetDefaultCmd)

	rootCmd.AddCommand(profileCmd)
}
