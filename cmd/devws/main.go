package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smykla-skalski/devws/pkg/logger"
)

var version = "dev"

// flagEnv maps a flag name to its environment fallback, so every flag can be
// supplied as DEVWS_<FLAG> in scripts and shell profiles.
func flagEnv(flagName string) string {
	return "DEVWS_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// stringFlag retrieves a string flag value with environment variable fallback.
// Priority: 1) explicit flag value, 2) DEVWS_* env var, 3) flag default.
func stringFlag(cmd *cobra.Command, flagName string) string {
	if cmd.Flags().Changed(flagName) {
		val, _ := cmd.Flags().GetString(flagName)

		return val
	}

	if val := os.Getenv(flagEnv(flagName)); val != "" {
		return val
	}

	val, _ := cmd.Flags().GetString(flagName)

	return val
}

// boolFlag retrieves a bool flag value with environment variable fallback.
// Priority: 1) explicit flag value (if changed), 2) DEVWS_* env var.
func boolFlag(cmd *cobra.Command, flagName string) bool {
	if cmd.Flags().Changed(flagName) {
		val, _ := cmd.Flags().GetBool(flagName)

		return val
	}

	return os.Getenv(flagEnv(flagName)) == "true"
}

// confirm asks a yes/no question on the terminal and reports the answer.
// A non-interactive stdin declines, so scripted runs never block on a prompt.
func confirm(prompt string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) { //nolint:gosec // G115: fd fits in int on supported platforms
		return false
	}

	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)

	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}

// printMessages echoes the progress messages a resolver run accumulated.
func printMessages(messages []string) {
	for _, msg := range messages {
		fmt.Println(msg)
	}
}

// renderTable writes rows as aligned columns on stdout.
func renderTable(header []string, rows [][]string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}

	_ = w.Flush()
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}

	return "No"
}

var rootCmd = &cobra.Command{
	Use:   "devws",
	Short: "Workstation bootstrap and configuration sync",
	Long: `devws manages a developer workstation: it bootstraps the tools a
workstation needs, and synchronizes project-local and home configuration
files between machines through a Google Cloud Storage bucket selected by
a labeled profile.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Level comes from --log-level or DEVWS_LOG_LEVEL; every RunE pulls
		// the logger back out of the command context.
		log := logger.New(stringFlag(cmd, "log-level"))
		cmd.SetContext(logger.WithContext(cmd.Context(), log))

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the devws version",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Printf("devws version %s\n", version)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug|info|warn|error)")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
