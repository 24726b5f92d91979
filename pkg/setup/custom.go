package setup

import (
	"context"
	"fmt"

	"github.com/smykla-skalski/devws/internal/configtypes"
	"github.com/smykla-skalski/devws/pkg/config"
)

const (
	// OnFailureAbort stops the remaining setup components when the script
	// fails; OnFailureContinue lets them run.
	OnFailureAbort    = "abort"
	OnFailureContinue = "continue"

	defaultTier = 2
)

// Custom adapts a user-registered script component from the global config.
// The script is the component; devws only sequences it, honoring the
// optional idempotency check and the on-failure policy.
type Custom struct {
	def configtypes.CustomComponent
}

// NewCustom wraps a config entry as a runnable component.
func NewCustom(def configtypes.CustomComponent) *Custom {
	return &Custom{def: def}
}

func (c *Custom) ID() string { return c.def.ID }

func (c *Custom) Name() string {
	if c.def.Name != "" {
		return c.def.Name
	}

	return c.def.ID
}

func (c *Custom) Describe() string {
	if c.def.Description != "" {
		return c.def.Description
	}

	return "Custom script component"
}

// Enabled reports the entry's own flag; custom components are not controlled
// through the built-in components map.
func (c *Custom) Enabled(*config.Global) bool {
	return c.def.Enabled
}

// OnFailure returns the configured failure policy, defaulting to continue.
func (c *Custom) OnFailure() string {
	if c.def.OnFailure == OnFailureAbort {
		return OnFailureAbort
	}

	return OnFailureContinue
}

// Tier returns the execution tier, defaulting to tier 2.
func (c *Custom) Tier() int {
	return tierOf(c.def)
}

func (c *Custom) Run(ctx context.Context, env *Env) []StepResult {
	if c.def.Script == "" {
		return result(c.ID(), c.Name(), StatusFail,
			"Component has no script configured. Re-register it with 'devws config component add'.")
	}

	if c.def.IdempotentCheck != "" {
		if _, err := env.Runner.Run(ctx, "bash", "-c", c.def.IdempotentCheck); err == nil {
			return result(c.ID(), c.Name(), StatusVerified,
				"Idempotency check passed, nothing to do.")
		}
	}

	if env.DryRun {
		return result(c.ID(), c.Name(), StatusReady,
			fmt.Sprintf("Would run %s.", c.def.Script))
	}

	if _, err := env.Runner.Run(ctx, "bash", c.def.Script); err != nil {
		return result(c.ID(), c.Name(), StatusFail,
			fmt.Sprintf("Running %s: %v", c.def.Script, err))
	}

	return result(c.ID(), c.Name(), StatusCompleted,
		fmt.Sprintf("Ran %s.", c.def.Script))
}
