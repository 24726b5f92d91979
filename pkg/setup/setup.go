// Package setup sequences workstation bootstrap components and collects
// per-step outcomes. Built-in components verify installed tools, wire shell
// startup hooks, and establish the sync profile; custom components from the
// global config run user-provided scripts. The orchestrator returns an
// explicit result list instead of mutating shared state, so callers own
// presentation and exit codes.
package setup

import (
	"context"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/devws/pkg/config"
	"github.com/smykla-skalski/devws/pkg/gcloud"
	"github.com/smykla-skalski/devws/pkg/logger"
)

// Component is one unit of workstation bootstrap.
type Component interface {
	// ID is the identifier used by config sections and --component filtering.
	ID() string
	// Name is the human-readable step name shown in reports.
	Name() string
	// Describe is a one-line summary shown by 'setup --list'.
	Describe() string
	// Enabled reports whether the component should run under this config.
	Enabled(cfg *config.Global) bool
	// Run performs the component's checks and work, one result per step.
	Run(ctx context.Context, env *Env) []StepResult
}

// Env carries what components need to probe and mutate the workstation.
type Env struct {
	Runner gcloud.Runner
	Log    *logger.Logger
	Config *config.Global

	// Home is the user home directory; dotfile probes resolve against it.
	Home string

	DryRun bool

	// Sync profile overrides forwarded from the setup command flags.
	Profile    string
	ProjectID  string
	BucketName string
}

// Options selects which components a setup run executes.
type Options struct {
	// Only restricts the run to the named components; empty runs everything.
	// An explicitly selected component runs even when the config disables it.
	Only []string
}

// Run executes the built-in registry and the configured custom components in
// order and returns every step result. Filtered-out and disabled components
// still produce a DISABLED row, so the report accounts for the whole
// registry. A custom component failing with on_failure=abort stops the
// remaining components.
func Run(ctx context.Context, env *Env, opts Options) ([]StepResult, error) {
	components := append(Registry(), customComponents(env.Config)...)

	if err := validateSelection(components, opts.Only); err != nil {
		return nil, err
	}

	var results []StepResult

	for _, comp := range components {
		if len(opts.Only) > 0 {
			if !slices.Contains(opts.Only, comp.ID()) {
				results = append(results, StepResult{
					Component: comp.ID(),
					Step:      comp.Name(),
					Status:    StatusDisabled,
					Message:   "Not selected with --component.",
				})

				continue
			}
		} else if !comp.Enabled(env.Config) {
			results = append(results, StepResult{
				Component: comp.ID(),
				Step:      comp.Name(),
				Status:    StatusDisabled,
				Message:   "Disabled in config.",
			})

			continue
		}

		env.Log.Debug("running setup component", "component", comp.ID())

		steps := comp.Run(ctx, env)
		results = append(results, steps...)

		if abortRequested(comp, steps) {
			env.Log.Warn("stopping setup, component failed with on_failure=abort",
				"component", comp.ID())

			break
		}
	}

	return results, nil
}

// validateSelection rejects --component values that match nothing, naming
// the valid identifiers so the operator can correct the invocation.
func validateSelection(components []Component, only []string) error {
	if len(only) == 0 {
		return nil
	}

	known := make([]string, 0, len(components))
	for _, comp := range components {
		known = append(known, comp.ID())
	}

	for _, name := range only {
		if !slices.Contains(known, name) {
			return errors.Wrapf(ErrUnknownComponent,
				"%q (known components: %s)", name, strings.Join(known, ", "))
		}
	}

	return nil
}

// abortRequested reports whether a failed component demands the run stop.
func abortRequested(comp Component, steps []StepResult) bool {
	custom, ok := comp.(*Custom)
	if !ok || custom.OnFailure() != OnFailureAbort {
		return false
	}

	for _, step := range steps {
		if step.Failed() {
			return true
		}
	}

	return false
}

// result builds the single-row report most components produce per step.
func result(componentID, stepName string, status StepStatus, message string) []StepResult {
	return []StepResult{{
		Component: componentID,
		Step:      stepName,
		Status:    status,
		Message:   message,
	}}
}
