package main

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/devws/internal/configtypes"
	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
	"github.com/smykla-skalski/devws/pkg/profile"
	"github.com/smykla-skalski/devws/pkg/wsync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize project-local configuration with GCS",
	Long: `Sync manages the gitignored configuration files listed in a repository's
` + wsync.ManifestFileName + ` manifest, mirroring them to a per-repository prefix in the
profile's GCS bucket.`,
}

// syncEnv bundles everything a sync subcommand needs once the repository and
// profile are resolved.
type syncEnv struct {
	global *config.Global
	syncer *wsync.Syncer
}

// repoSyncContext resolves the directory sync operates in and loads its
// optional .devws.yaml overrides. Subcommands check the skip switch before
// resolving profiles, so an opted-out repository never demands a binding.
func repoSyncContext() (string, *configtypes.RepoSettings, error) {
	root, err := wsync.SyncRoot()
	if err != nil {
		return "", nil, err
	}

	settings, err := config.LoadRepoSettings(root)
	if err != nil {
		return "", nil, err
	}

	return root, settings, nil
}

func printSyncDisabled() {
	fmt.Println("ℹ️ Sync is disabled for this repository (.devws.yaml sync.skip).")
}

// repoProfileName applies the profile precedence for sync commands: the
// --profile flag, then the repository override, then the configured default.
func repoProfileName(cmd *cobra.Command, settings *configtypes.RepoSettings) string {
	if name := stringFlag(cmd, "profile"); name != "" {
		return name
	}

	return settings.Sync.Profile
}

// newSyncEnv builds the syncer for one invocation: cached profile binding,
// detected repository identity, and the repository's ignore overrides.
func newSyncEnv(cmd *cobra.Command, root string, settings *configtypes.RepoSettings, dryRun bool) (*syncEnv, error) {
	ctx := cmd.Context()
	log := logger.FromContext(ctx)

	global, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	binding, err := profile.Lookup(global, repoProfileName(cmd, settings))
	if err != nil {
		return nil, err
	}

	runner := gcloud.DefaultRunner()

	repo, err := wsync.DetectRepo(ctx, runner, root)
	if err != nil {
		return nil, err
	}

	syncer := wsync.NewSyncer(wsync.SyncerParams{
		Client: gcloud.NewClient(log, config.LabelKey(), dryRun),
		Git:    runner,
		Log:    log,
		Root:   root,
		Repo:   repo,
		Layout: gcloud.Layout{Bucket: binding.BucketName},
		Ignore: settings.Sync.Ignore,
	})

	return &syncEnv{global: global, syncer: syncer}, nil
}

var syncInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the sync manifest for this repository",
	Long: `Create the ` + wsync.ManifestFileName + ` manifest at the repository root, seeded with
gitignored top-level files matching the configured candidate patterns.
Passing --project-id or --bucket-name establishes the profile binding first,
so a fresh workstation needs only one command.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		root, settings, err := repoSyncContext()
		if err != nil {
			return err
		}

		if settings.Sync.Skip {
			printSyncDisabled()

			return nil
		}

		dryRun := boolFlag(cmd, "dry-run")

		projectID := stringFlag(cmd, "project-id")
		bucketName := stringFlag(cmd, "bucket-name")

		if projectID != "" || bucketName != "" {
			global, err := config.Load(log)
			if err != nil {
				return err
			}

			client := gcloud.NewClient(log, config.LabelKey(), dryRun)
			resolver := profile.NewResolver(client, global, log)

			res, err := resolver.Resolve(ctx, profile.Options{
				ProjectID:  projectID,
				BucketName: bucketName,
				Profile:    repoProfileName(cmd, settings),
			})
			if res != nil {
				printMessages(res.Messages)
			}

			if err != nil {
				return err
			}
		}

		env, err := newSyncEnv(cmd, root, settings, dryRun)
		if err != nil {
			return err
		}

		result, err := env.syncer.Init(env.global.Candidates(), boolFlag(cmd, "force"))
		if err != nil {
			return err
		}

		if result.DryRun {
			fmt.Printf("🔍 [DRY RUN] Would create '%s'.\n", result.ManifestPath)
		} else {
			fmt.Printf("✅ Created '%s'.\n", result.ManifestPath)
		}

		for _, entry := range result.AutoAdded {
			fmt.Printf("  • %s\n", entry)
		}

		fmt.Printf("Managed files sync to '%s'.\n", env.syncer.Prefix())

		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local and remote state of every managed file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		root, settings, err := repoSyncContext()
		if err != nil {
			return err
		}

		if settings.Sync.Skip {
			printSyncDisabled()

			return nil
		}

		env, err := newSyncEnv(cmd, root, settings, false)
		if err != nil {
			return err
		}

		includeUnmanaged := boolFlag(cmd, "all")

		report, err := env.syncer.Status(cmd.Context(), includeUnmanaged)
		if err != nil {
			return err
		}

		switch format := stringFlag(cmd, "format"); format {
		case "json":
			return printStatusJSON(report)
		case "text":
			printStatusText(report, includeUnmanaged)

			return nil
		default:
			return errors.Newf("unknown format %q (want text or json)", format)
		}
	},
}

func presenceCell(status wsync.Status) string {
	if status.Presence == wsync.Present {
		return "Exists"
	}

	return "Missing"
}

func printStatusText(report *wsync.StatusReport, includeUnmanaged bool) {
	fmt.Printf("Sync status for %s (%s)\n\n", report.Repo.Slug(), report.Prefix)

	if len(report.Files) == 0 {
		fmt.Println("No managed files. Run 'devws sync init' to create the manifest.")
	} else {
		rows := make([][]string, 0, len(report.Files))

		for _, file := range report.Files {
			syncState := file.Classification.String()
			if file.Err != nil {
				syncState = "Error: " + file.Err.Error()
			}

			rows = append(rows, []string{
				file.Path,
				presenceCell(file.Local),
				presenceCell(file.Remote),
				yesNo(file.Gitignored),
				syncState,
			})
		}

		renderTable([]string{"FILE", "LOCAL", "GCS", "GITIGNORED", "SYNC STATUS"}, rows)
	}

	if !includeUnmanaged {
		return
	}

	fmt.Println()

	if len(report.Unmanaged) == 0 {
		fmt.Printf("✅ No ignored files found that are not also in %s.\n", wsync.ManifestFileName)

		return
	}

	fmt.Printf("⚠️ Ignored by .gitignore but not listed in %s:\n", wsync.ManifestFileName)

	for _, path := range report.Unmanaged {
		fmt.Printf("  • %s\n", path)
	}
}

// statusRow is the JSON rendering of one managed file.
type statusRow struct {
	File       string `json:"file"`
	Local      string `json:"local"`
	Remote     string `json:"remote"`
	Gitignored bool   `json:"gitignored"`
	SyncStatus string `json:"sync_status"`
	Error      string `json:"error,omitempty"`
}

type statusDocument struct {
	Repo      string      `json:"repo"`
	Prefix    string      `json:"prefix"`
	Files     []statusRow `json:"files"`
	Unmanaged []string    `json:"unmanaged,omitempty"`
}

func printStatusJSON(report *wsync.StatusReport) error {
	doc := statusDocument{
		Repo:      report.Repo.Slug(),
		Prefix:    report.Prefix,
		Files:     make([]statusRow, 0, len(report.Files)),
		Unmanaged: report.Unmanaged,
	}

	for _, file := range report.Files {
		row := statusRow{
			File:       file.Path,
			Local:      presenceCell(file.Local),
			Remote:     presenceCell(file.Remote),
			Gitignored: file.Gitignored,
			SyncStatus: file.Classification.String(),
		}
		if file.Err != nil {
			row.Error = file.Err.Error()
		}

		doc.Files = append(doc.Files, row)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling status report")
	}

	fmt.Println(string(data))

	return nil
}

func outcomeEmoji(outcome wsync.Outcome) string {
	switch outcome {
	case wsync.OutcomeSkipped:
		return "⏭️"
	case wsync.OutcomeFailed:
		return "❌"
	default:
		return "✅"
	}
}

// printSyncReport lists the per-file outcomes of a pull or push.
func printSyncReport(report *wsync.SyncReport) {
	if len(report.Files) == 0 {
		fmt.Println("No managed files. Run 'devws sync init' to create the manifest.")

		return
	}

	for _, file := range report.Files {
		line := fmt.Sprintf("%s %s", outcomeEmoji(file.Outcome), file.Path)
		if file.Detail != "" {
			line += " (" + file.Detail + ")"
		}

		fmt.Println(line)
	}
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download managed files from GCS",
	Long: `Download each managed file from the repository prefix. Existing local
files are left alone unless --force overwrites them; gitignore conflicts and
type mismatches are reported per file without stopping the rest.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		root, settings, err := repoSyncContext()
		if err != nil {
			return err
		}

		if settings.Sync.Skip {
			printSyncDisabled()

			return nil
		}

		env, err := newSyncEnv(cmd, root, settings, boolFlag(cmd, "dry-run"))
		if err != nil {
			return err
		}

		report, err := env.syncer.Pull(cmd.Context(), boolFlag(cmd, "force"))
		if err != nil {
			return err
		}

		printSyncReport(report)

		if failed := report.FailedCount(); failed > 0 {
			return errors.Newf("%d file(s) failed to pull", failed)
		}

		return nil
	},
}

var syncPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload managed files to GCS",
	Long: `Upload each managed file to the repository prefix. A file not covered
by .gitignore needs confirmation, because pushing a tracked file usually
means the manifest entry is wrong; --force pushes without asking.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		root, settings, err := repoSyncContext()
		if err != nil {
			return err
		}

		if settings.Sync.Skip {
			printSyncDisabled()

			return nil
		}

		env, err := newSyncEnv(cmd, root, settings, boolFlag(cmd, "dry-run"))
		if err != nil {
			return err
		}

		report, err := env.syncer.Push(cmd.Context(), wsync.PushOptions{
			Force: boolFlag(cmd, "force"),
			ConfirmUnignored: func(path string) bool {
				return confirm(fmt.Sprintf("'%s' is not covered by .gitignore. Push it anyway?", path))
			},
		})
		if err != nil {
			return err
		}

		printSyncReport(report)

		if failed := report.FailedCount(); failed > 0 {
			return errors.Newf("%d file(s) failed to push", failed)
		}

		return nil
	},
}

var syncCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove everything stored under this repository's prefix",
	RunE: func(cmd *cobra.Command, _ []string) error {
		root, settings, err := repoSyncContext()
		if err != nil {
			return err
		}

		if settings.Sync.Skip {
			printSyncDisabled()

			return nil
		}

		dryRun := boolFlag(cmd, "dry-run")

		env, err := newSyncEnv(cmd, root, settings, dryRun)
		if err != nil {
			return err
		}

		prefix := env.syncer.Prefix()

		if !dryRun && !boolFlag(cmd, "force") {
			if !confirm(fmt.Sprintf("Remove everything under '%s'?", prefix)) {
				fmt.Println("Operation cancelled.")

				return nil
			}
		}

		report, err := env.syncer.Clean(cmd.Context())
		if err != nil {
			return err
		}

		switch {
		case len(report.Objects) == 0:
			fmt.Printf("✅ Nothing stored under '%s'.\n", report.Prefix)
		case report.DryRun:
			fmt.Printf("🔍 [DRY RUN] Would remove %d object(s) under '%s':\n", len(report.Objects), report.Prefix)
		default:
			fmt.Printf("🗑️ Removed %d object(s) under '%s':\n", len(report.Objects), report.Prefix)
		}

		if len(report.Objects) > 0 {
			for _, object := range report.Objects {
				fmt.Printf("  • %s\n", object)
			}
		}

		return nil
	},
}

func init() {
	for _, sub := range []*cobra.Command{syncInitCmd, syncStatusCmd, syncPullCmd, syncPushCmd, syncCleanCmd} {
		sub.Flags().String("profile", "", "GCS profile name (defaults to the repository or global setting)")
	}

	syncInitCmd.Flags().String("project-id", "", "Google Cloud project ID to bind the profile to first")
	syncInitCmd.Flags().String("bucket-name", "", "GCS bucket name to bind the profile to first")
	syncInitCmd.Flags().Bool("force", false, "Recreate the manifest if it already exists")
	syncInitCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	syncStatusCmd.Flags().Bool("all", false, "Also list gitignored files the manifest does not cover")
	syncStatusCmd.Flags().String("format", "text", "Output format (text|json)")

	syncPullCmd.Flags().Bool("force", false, "Overwrite existing local files")
	syncPullCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	syncPushCmd.Flags().Bool("force", false, "Push entries not covered by .gitignore without asking")
	syncPushCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	syncCleanCmd.Flags().Bool("force", false, "Skip the confirmation prompt")
	syncCleanCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")

	syncCmd.AddCommand(syncInitCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncPullCmd)
	syncCmd.AddCommand(syncPushCmd)
	syncCmd.AddCommand(syncCleanCmd)

	rootCmd.AddCommand(syncCmd)
}
