package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/devws/internal/configtypes"
	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/homesync"
	"github.com/smykla-skalski/devws/pkg/logger"
	"github.com/smykla-skalski/devws/pkg/merge"
	"github.com/smykla-skalski/devws/pkg/setup"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the global configuration",
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after merging the user file over the built-in defaults.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.FromContext(cmd.Context())

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		doc, err := global.Document()
		if err != nil {
			return err
		}

		switch format := stringFlag(cmd, "format"); format {
		case "json":
			data, err := merge.MarshalJSON(doc)
			if err != nil {
				return err
			}

			fmt.Println(string(data))
		case "yaml":
			data, err := merge.MarshalYAML(doc)
			if err != nil {
				return err
			}

			fmt.Print(string(data))
		default:
			return errors.Newf("unknown format %q (want yaml or json)", format)
		}

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one configuration key",
	Long: `Set a configuration key by dotted path, e.g.
'devws config set default_gcs_profile work'. The value is parsed as YAML, so
'true', '3', and '[a, b]' become bool, int, and list.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.FromContext(cmd.Context())

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		key, value := args[0], args[1]

		if err := global.SetKey(key, value); err != nil {
			return err
		}

		if err := global.Save(log); err != nil {
			return err
		}

		fmt.Printf("✅ Configuration updated: '%s' set to '%s'.\n", key, value)

		return nil
	},
}

var configBackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload the global config file to GCS",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dryRun := boolFlag(cmd, "dry-run")

		syncer, global, err := newHomeSyncer(cmd, dryRun)
		if err != nil {
			return err
		}

		dest, err := syncer.BackupConfig(cmd.Context(), global.Path())
		if err != nil {
			return err
		}

		if dryRun {
			fmt.Printf("🔍 [DRY RUN] Would back up '%s' to '%s'.\n", global.Path(), dest)
		} else {
			fmt.Printf("✅ Backed up '%s' to '%s'.\n", global.Path(), dest)
		}

		return nil
	},
}

var configRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Download the backed-up global config from GCS",
	Long: `Replace the local config file with the copy stored in the profile
bucket. An existing file needs confirmation unless --force, and is first
copied to a timestamped sibling so the restore stays recoverable.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dryRun := boolFlag(cmd, "dry-run")

		syncer, global, err := newHomeSyncer(cmd, dryRun)
		if err != nil {
			return err
		}

		result, err := syncer.RestoreConfig(cmd.Context(), homesync.RestoreOptions{
			ConfigPath: global.Path(),
			// A dry-run only previews, so it never needs the prompt.
			Force: boolFlag(cmd, "force") || dryRun,
			Confirm: func(path string) bool {
				return confirm(fmt.Sprintf("Overwrite existing config at '%s'?", path))
			},
		})
		if err != nil {
			return err
		}

		switch {
		case result.Cancelled:
			fmt.Println("Operation cancelled.")
		case result.DryRun:
			fmt.Printf("🔍 [DRY RUN] Would restore '%s' from '%s'.\n", result.Target, result.Source)
		default:
			if result.BackupPath != "" {
				fmt.Printf("ℹ️ Previous config saved to '%s'.\n", result.BackupPath)
			}

			fmt.Printf("✅ Restored '%s' from '%s'.\n", result.Target, result.Source)
		}

		return nil
	},
}

var configComponentCmd = &cobra.Command{
	Use:   "component",
	Short: "Manage custom setup components",
}

var componentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a script-backed setup component",
	Long: `Register a custom component that 'devws setup' runs alongside the
built-in ones. The script runs at its tier; an optional check command marks
the component already satisfied when it exits zero.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.FromContext(cmd.Context())

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		id := stringFlag(cmd, "id")
		if id == "" {
			return errors.New("id is required (set via --id flag or DEVWS_ID env var)")
		}

		script := stringFlag(cmd, "script")
		if script == "" {
			return errors.New("script is required (set via --script flag or DEVWS_SCRIPT env var)")
		}

		if _, err := os.Stat(script); err != nil {
			return errors.Wrapf(err, "script %s", script)
		}

		onFailure := stringFlag(cmd, "on-failure")
		if onFailure != setup.OnFailureAbort && onFailure != setup.OnFailureContinue {
			return errors.Newf("on-failure must be %q or %q", setup.OnFailureAbort, setup.OnFailureContinue)
		}

		tier, _ := cmd.Flags().GetInt("tier")
		if tier < 1 || tier > 3 {
			return errors.Newf("tier must be between 1 and 3, got %d", tier)
		}

		for _, existing := range global.CustomComponents {
			if existing.ID == id {
				return errors.Newf("component %q already exists, remove it first", id)
			}
		}

		global.CustomComponents = append(global.CustomComponents, configtypes.CustomComponent{
			ID:              id,
			Name:            stringFlag(cmd, "name"),
			Description:     stringFlag(cmd, "description"),
			Enabled:         true,
			OnFailure:       onFailure,
			Tier:            tier,
			Script:          script,
			IdempotentCheck: stringFlag(cmd, "check"),
		})

		if err := global.Save(log); err != nil {
			return err
		}

		fmt.Printf("✅ Registered component '%s'.\n", id)
		fmt.Println("ℹ️ Run 'devws config backup' to sync this change to GCS.")

		return nil
	},
}

var componentRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a custom setup component",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log := logger.FromContext(cmd.Context())

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		id := stringFlag(cmd, "id")
		if id == "" {
			return errors.New("id is required (set via --id flag or DEVWS_ID env var)")
		}

		kept := make([]configtypes.CustomComponent, 0, len(global.CustomComponents))
		found := false

		for _, component := range global.CustomComponents {
			if component.ID == id {
				found = true

				continue
			}

			kept = append(kept, component)
		}

		if !found {
			return errors.Newf("no custom component with id %q", id)
		}

		global.CustomComponents = kept

		if err := global.Save(log); err != nil {
			return err
		}

		fmt.Printf("✅ Removed component '%s'.\n", id)

		return nil
	},
}

func init() {
	configViewCmd.Flags().String("format", "yaml", "Output format (yaml|json)")

	configBackupCmd.Flags().String("profile", "", "GCS profile name (defaults to the configured default profile)")
	configBackupCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	configRestoreCmd.Flags().String("profile", "", "GCS profile name (defaults to the configured default profile)")
	configRestoreCmd.Flags().Bool("force", false, "Overwrite the local config without asking")
	configRestoreCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	componentAddCmd.Flags().String("id", "", "Component identifier (required)")
	componentAddCmd.Flags().String("script", "", "Path to the script the component runs (required)")
	componentAddCmd.Flags().String("name", "", "Human-readable name shown in reports")
	componentAddCmd.Flags().String("description", "", "Short description shown by 'setup --list'")
	componentAddCmd.Flags().Int("tier", 2, "Execution tier, 1 through 3; lower tiers run first")
	componentAddCmd.Flags().String("on-failure", setup.OnFailureContinue, "Whether a failure aborts the remaining steps (abort|continue)")
	componentAddCmd.Flags().String("check", "", "Command that marks the component satisfied when it exits zero")

	componentRemoveCmd.Flags().String("id", "", "Component identifier (required)")

	configComponentCmd.AddCommand(componentAddCmd)
	configComponentCmd.AddCommand(componentRemoveCmd)

	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configBackupCmd)
	configCmd.AddCommand(configRestoreCmd)
	configCmd.AddCommand(configComponentCmd)

	rootCmd.AddCommand(configCmd)
}
