package setup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/config"
)

// toolProbe verifies a CLI tool is installed and, when the probe carries
// version arguments, that it meets the configured minimum version.
// Installation stays manual: the probe reports what is missing together with
// the install hint instead of driving distribution-specific installers.
type toolProbe struct {
	id          string
	name        string
	description string

	// tool is the display name used in messages, e.g. "Node.js".
	tool   string
	binary string

	// versionArgs, when set, make the probe version-aware; parse extracts
	// the dotted version from the command output.
	versionArgs []string
	parse       func(out string) string
	minVersion  string

	installHint string
}

func (p *toolProbe) ID() string       { return p.id }
func (p *toolProbe) Name() string     { return p.name }
func (p *toolProbe) Describe() string { return p.description }

func (p *toolProbe) Enabled(cfg *config.Global) bool {
	return cfg.ComponentEnabled(p.id)
}

func (p *toolProbe) Run(ctx context.Context, env *Env) []StepResult {
	if _, err := env.Runner.Run(ctx, "which", p.binary); err != nil {
		return result(p.id, p.name, StatusFail,
			fmt.Sprintf("%s not found. Install it manually: %s", p.tool, p.installHint))
	}

	if len(p.versionArgs) == 0 {
		return result(p.id, p.name, StatusVerified,
			fmt.Sprintf("%s is already installed.", p.tool))
	}

	out, err := env.Runner.Run(ctx, p.binary, p.versionArgs...)
	if err != nil {
		return result(p.id, p.name, StatusFail,
			fmt.Sprintf("Checking the %s version failed: %v. Install or update manually.", p.tool, err))
	}

	version := p.parse(out)
	minimum := env.Config.ComponentMinVersion(p.id, p.minVersion)

	ok, err := versionAtLeast(version, minimum)
	if err != nil {
		return result(p.id, p.name, StatusFail,
			fmt.Sprintf("Unparseable %s version %q. Install or update manually.", p.tool, version))
	}

	if !ok {
		return result(p.id, p.name, StatusPartial,
			fmt.Sprintf("%s %s is too old (minimum %s). Update manually.", p.tool, version, minimum))
	}

	return result(p.id, p.name, StatusVerified,
		fmt.Sprintf("%s %s is already installed (meets minimum requirement %s).", p.tool, version, minimum))
}

// versionAtLeast compares dotted numeric versions segment by segment, for as
// many segments as the minimum specifies. "22.1.0" against minimum "20"
// compares only the major segment.
func versionAtLeast(current, minimum string) (bool, error) {
	curParts := strings.Split(strings.TrimSpace(current), ".")
	minParts := strings.Split(strings.TrimSpace(minimum), ".")

	for i, minPart := range minParts {
		if i >= len(curParts) {
			return false, nil
		}

		have, err := strconv.Atoi(curParts[i])
		if err != nil {
			return false, errors.Wrapf(err, "parsing version %q", current)
		}

		want, err := strconv.Atoi(minPart)
		if err != nil {
			return false, errors.Wrapf(err, "parsing minimum version %q", minimum)
		}

		if have != want {
			return have > want, nil
		}
	}

	return true, nil
}

// gcloudComponent verifies the Google Cloud CLI is installed and has an
// active account, since every sync operation shells out to it.
type gcloudComponent struct{}

func (gcloudComponent) ID() string   { return "google_cloud_cli" }
func (gcloudComponent) Name() string { return "Google Cloud CLI Setup" }

func (gcloudComponent) Describe() string {
	return "Verifies the gcloud CLI is installed and authenticated"
}

func (gcloudComponent) Enabled(cfg *config.Global) bool {
	return cfg.ComponentEnabled("google_cloud_cli")
}

func (c gcloudComponent) Run(ctx context.Context, env *Env) []StepResult {
	if _, err := env.Runner.Run(ctx, "which", "gcloud"); err != nil {
		return result(c.ID(), c.Name(), StatusFail,
			"gcloud not found. Install the Google Cloud CLI manually: https://cloud.google.com/sdk/docs/install")
	}

	out, err := env.Runner.Run(ctx, "gcloud", "auth", "list",
		"--filter=status:ACTIVE", "--format=value(account)")
	if err != nil {
		return result(c.ID(), c.Name(), StatusPartial,
			"gcloud is installed but listing accounts failed. Run 'gcloud auth login'.")
	}

	account := strings.TrimSpace(out)
	if account == "" {
		return result(c.ID(), c.Name(), StatusPartial,
			"gcloud is installed but no account is active. Run 'gcloud auth login'.")
	}

	return result(c.ID(), c.Name(), StatusVerified,
		fmt.Sprintf("gcloud is installed and authenticated as %s.", account))
}

// envSetupComponent checks for the user's ~/.env secrets file and wires
// loading it into the shell startup.
type envSetupComponent struct{}

func (envSetupComponent) ID() string   { return "env_setup" }
func (envSetupComponent) Name() string { return "Environment Configuration Setup" }

func (envSetupComponent) Describe() string {
	return "Checks ~/.env exists and sources it from ~/.bashrc"
}

func (envSetupComponent) Enabled(cfg *config.Global) bool {
	return cfg.ComponentEnabled("env_setup")
}

func (c envSetupComponent) Run(_ context.Context, env *Env) []StepResult {
	envFile := filepath.Join(env.Home, ".env")

	var steps []StepResult

	if _, err := os.Stat(envFile); err == nil {
		steps = append(steps, StepResult{
			Component: c.ID(),
			Step:      "Environment File Detection",
			Status:    StatusVerified,
			Message:   fmt.Sprintf("Found environment file at %s.", envFile),
		})
	} else {
		steps = append(steps, StepResult{
			Component: c.ID(),
			Step:      "Environment File Detection",
			Status:    StatusFail,
			Message:   fmt.Sprintf("No environment file at %s. Create it with your API keys.", envFile),
		})
	}

	snippet := fmt.Sprintf(`if [ -f "%s" ]; then
    source "%s"
fi`, envFile, envFile)

	steps = append(steps,
		c.integrationStep(ensureBashrcSnippet(env, "Load environment file", snippet)))

	return steps
}

func (c envSetupComponent) integrationStep(change bashrcChange, err error) StepResult {
	step := StepResult{Component: c.ID(), Step: "Shell Startup Integration"}

	switch {
	case err != nil:
		step.Status = StatusFail
		step.Message = err.Error()
	case change == bashrcPresent:
		step.Status = StatusVerified
		step.Message = "Environment loading already wired into ~/.bashrc."
	case change == bashrcPending:
		step.Status = StatusReady
		step.Message = "Would add environment loading to ~/.bashrc."
	default:
		step.Status = StatusCompleted
		step.Message = "Added environment loading to ~/.bashrc."
	}

	return step
}

// shellStartupComponent wires the user-installed devws startup script into
// ~/.bashrc. The script itself is user-provided; without one there is
// nothing to wire.
type shellStartupComponent struct{}

func (shellStartupComponent) ID() string   { return "shell_startup" }
func (shellStartupComponent) Name() string { return "Shell Startup" }

func (shellStartupComponent) Describe() string {
	return "Sources the devws startup script from ~/.bashrc"
}

func (shellStartupComponent) Enabled(cfg *config.Global) bool {
	return cfg.ComponentEnabled("shell_startup")
}

func (c shellStartupComponent) Run(_ context.Context, env *Env) []StepResult {
	scriptPath := filepath.Join(env.Home, ".config", "devws", "startup.sh")

	if _, err := os.Stat(scriptPath); err != nil {
		return result(c.ID(), c.Name(), StatusSkip,
			fmt.Sprintf("No startup script at %s, nothing to wire.", scriptPath))
	}

	snippet := fmt.Sprintf(`if [ -s "%s" ]; then
    . "%s"
fi`, scriptPath, scriptPath)

	change, err := ensureBashrcSnippet(env, "Source the devws startup script", snippet)

	switch {
	case err != nil:
		return result(c.ID(), c.Name(), StatusFail, err.Error())
	case change == bashrcPresent:
		return result(c.ID(), c.Name(), StatusVerified,
			"Sourcing line already present in ~/.bashrc.")
	case change == bashrcPending:
		return result(c.ID(), c.Name(), StatusReady,
			"Would add sourcing line to ~/.bashrc.")
	default:
		return result(c.ID(), c.Name(), StatusCompleted,
			"Added sourcing line to ~/.bashrc.")
	}
}

// bashrcChange is the outcome of an ensureBashrcSnippet call.
type bashrcChange int

const (
	// bashrcPresent means the identified snippet was already wired in.
	bashrcPresent bashrcChange = iota
	// bashrcPending means a dry-run withheld the append.
	bashrcPending
	// bashrcAdded means the snippet was appended during this call.
	bashrcAdded
)

// ensureBashrcSnippet appends an identified snippet to ~/.bashrc unless a
// line carrying the identifier is already present. The identifier is written
// as a comment above the snippet, which is what later runs detect.
func ensureBashrcSnippet(env *Env, identifier, snippet string) (bashrcChange, error) {
	path := filepath.Join(env.Home, ".bashrc")

	content, err := os.ReadFile(path) //nolint:gosec // path is under the user's own home
	if err != nil && !os.IsNotExist(err) {
		return bashrcPresent, errors.Wrapf(err, "reading %s", path)
	}

	if strings.Contains(string(content), identifier) {
		return bashrcPresent, nil
	}

	if env.DryRun {
		return bashrcPending, nil
	}

	//nolint:gosec // startup file keeps the user's customary permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return bashrcPresent, errors.Wrapf(err, "opening %s", path)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, "\n# %s\n%s\n", identifier, snippet); err != nil {
		return bashrcPresent, errors.Wrapf(err, "appending to %s", path)
	}

	return bashrcAdded, nil
}
