package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
	"github.com/smykla-skalski/devws/pkg/setup"
)

const reportWidth = 60

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Bootstrap the workstation",
	Long: `Run the workstation bootstrap components: verify installed tools, wire
shell startup hooks, and establish the GCS sync profile. Components can be
filtered with --component and previewed with --dry-run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		global, err := config.Load(log)
		if err != nil {
			return err
		}

		if boolFlag(cmd, "list") {
			renderComponentList(setup.List(global))

			return nil
		}

		only, _ := cmd.Flags().GetStringSlice("component")

		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "locating home directory")
		}

		env := &setup.Env{
			Runner:     gcloud.DefaultRunner(),
			Log:        log,
			Config:     global,
			Home:       home,
			DryRun:     boolFlag(cmd, "dry-run"),
			Profile:    stringFlag(cmd, "profile"),
			ProjectID:  stringFlag(cmd, "project-id"),
			BucketName: stringFlag(cmd, "bucket-name"),
		}

		results, err := setup.Run(ctx, env, setup.Options{Only: only})
		if err != nil {
			return err
		}

		renderSetupReport(results)

		if sum := setup.Summarize(results); sum.Failed > 0 {
			return errors.Newf("%d setup step(s) failed", sum.Failed)
		}

		return nil
	},
}

// renderComponentList prints the registry table for 'setup --list'.
func renderComponentList(infos []setup.ComponentInfo) {
	rows := make([][]string, 0, len(infos))

	for _, info := range infos {
		kind := "built-in"
		if info.Custom {
			kind = "custom"
		}

		rows = append(rows, []string{
			info.ID,
			info.Name,
			kind,
			yesNo(info.Enabled),
			info.Description,
		})
	}

	renderTable([]string{"ID", "NAME", "KIND", "ENABLED", "DESCRIPTION"}, rows)
}

// renderSetupReport prints the final per-step report and status tally.
func renderSetupReport(results []setup.StepResult) {
	line := strings.Repeat("=", reportWidth)
	divider := strings.Repeat("-", reportWidth)

	fmt.Println()
	fmt.Println(line)
	fmt.Println(centerText("SETUP REPORT", reportWidth))
	fmt.Println(line)
	fmt.Printf("%-40s %s\n", "STEP", "STATUS")
	fmt.Println(divider)

	for _, step := range results {
		fmt.Printf("%-40s %s %s\n", step.Step, step.Status.Emoji(), step.Status)
	}

	fmt.Println(divider)
	fmt.Println("SUMMARY: " + summaryLine(setup.Summarize(results)))
	fmt.Println(line)

	printActionItems(results, divider)
}

// summaryLine renders the status tally, listing only non-zero counts.
func summaryLine(sum setup.Summary) string {
	var parts []string

	add := func(count int, label string) {
		if count > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", count, label))
		}
	}

	add(sum.Passed, "passed")
	add(sum.Completed, "completed")
	add(sum.Verified, "verified")
	add(sum.Ready, "ready")
	add(sum.Skipped, "skipped")
	add(sum.Disabled, "disabled")
	add(sum.Partial, "partial")
	add(sum.Failed, "failed")

	if len(parts) == 0 {
		return "No steps processed"
	}

	return strings.Join(parts, ", ")
}

// printActionItems lists the remediation messages of failed and partial
// steps, so the operator sees what to fix without scrolling back.
func printActionItems(results []setup.StepResult, divider string) {
	var items []string

	for _, step := range results {
		needsAttention := step.Status == setup.StatusFail || step.Status == setup.StatusPartial
		if needsAttention && step.Message != "" {
			items = append(items, fmt.Sprintf("• %s: %s", step.Step, step.Message))
		}
	}

	if len(items) == 0 {
		return
	}

	fmt.Println("\nACTION ITEMS:")
	fmt.Println(divider)

	for _, item := range items {
		fmt.Println(item)
	}

	fmt.Println(divider)
}

func centerText(text string, width int) string {
	pad := width - len(text)
	if pad <= 0 {
		return text
	}

	return strings.Repeat(" ", pad/2) + text
}

func init() {
	setupCmd.Flags().StringSlice("component", nil, "Run only the named components (repeatable)")
	setupCmd.Flags().Bool("list", false, "List the available components instead of running them")
	setupCmd.Flags().Bool("dry-run", false, "Preview changes without applying them")
	setupCmd.Flags().String("profile", "", "GCS profile name (defaults to the configured default)")
	setupCmd.Flags().String("project-id", "", "Google Cloud project ID override for profile resolution")
	setupCmd.Flags().String("bucket-name", "", "GCS bucket name override for profile resolution")

	rootCmd.AddCommand(setupCmd)
}
