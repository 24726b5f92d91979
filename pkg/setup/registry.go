package setup

import (
	"slices"
	"sort"
	"strings"

	"github.com/smykla-skalski/devws/internal/configtypes"
	"github.com/smykla-skalski/devws/pkg/config"
)

// Registry returns the built-in components in execution order. The order is
// load-bearing: source control and the cloud CLI come before the tools that
// assume them, and the sync profile component runs last because it needs an
// authenticated gcloud.
func Registry() []Component {
	return []Component{
		&githubComponent{},
		&gcloudComponent{},
		&toolProbe{
			id:          "nodejs",
			name:        "Node.js Setup",
			description: "Verifies the Node.js runtime meets the minimum version",
			tool:        "Node.js",
			binary:      "node",
			versionArgs: []string{"-v"},
			parse: func(out string) string {
				return strings.TrimPrefix(strings.TrimSpace(out), "v")
			},
			minVersion:  "20",
			installHint: "https://nodejs.org/en/download",
		},
		&toolProbe{
			id:          "python",
			name:        "Python Installation",
			description: "Verifies the Python 3 interpreter meets the minimum version",
			tool:        "Python",
			binary:      "python3",
			versionArgs: []string{"--version"},
			parse: func(out string) string {
				// "Python 3.11.2" on stdout since 3.4.
				fields := strings.Fields(out)
				if len(fields) < 2 {
					return strings.TrimSpace(out)
				}

				return fields[1]
			},
			minVersion:  "3.9",
			installHint: "https://www.python.org/downloads",
		},
		&toolProbe{
			id:          "cursor_agent",
			name:        "Cursor Agent Installation",
			description: "Verifies the Cursor agent CLI is installed",
			tool:        "Cursor agent",
			binary:      "cursor-agent",
			installHint: "curl https://cursor.com/install -fsSL | bash",
		},
		&toolProbe{
			id:          "gemini_cli",
			name:        "Gemini CLI Installation",
			description: "Verifies the Gemini CLI is installed",
			tool:        "Gemini CLI",
			binary:      "gemini",
			installHint: "npm install -g @google/gemini-cli",
		},
		&toolProbe{
			id:          "claude_code",
			name:        "Claude Code Setup",
			description: "Verifies the Claude Code CLI is installed",
			tool:        "Claude Code",
			binary:      "claude",
			installHint: "npm install -g @anthropic-ai/claude-code",
		},
		&envSetupComponent{},
		&shellStartupComponent{},
		&profileSyncComponent{},
	}
}

// customComponents adapts the configured script components, ordered by tier
// with configuration order preserved within a tier.
func customComponents(cfg *config.Global) []Component {
	defs := slices.Clone(cfg.CustomComponents)

	sort.SliceStable(defs, func(i, j int) bool {
		return tierOf(defs[i]) < tierOf(defs[j])
	})

	comps := make([]Component, 0, len(defs))
	for _, def := range defs {
		comps = append(comps, NewCustom(def))
	}

	return comps
}

func tierOf(def configtypes.CustomComponent) int {
	if def.Tier == 0 {
		return defaultTier
	}

	return def.Tier
}

// ComponentInfo describes one registry entry for 'setup --list'.
type ComponentInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
	Custom      bool   `json:"custom"`
}

// List describes the built-in registry plus the configured custom
// components, in execution order.
func List(cfg *config.Global) []ComponentInfo {
	builtins := Registry()
	customs := customComponents(cfg)

	infos := make([]ComponentInfo, 0, len(builtins)+len(customs))

	for _, comp := range builtins {
		infos = append(infos, ComponentInfo{
			ID:          comp.ID(),
			Name:        comp.Name(),
			Description: comp.Describe(),
			Enabled:     comp.Enabled(cfg),
		})
	}

	for _, comp := range customs {
		infos = append(infos, ComponentInfo{
			ID:          comp.ID(),
			Name:        comp.Name(),
			Description: comp.Describe(),
			Enabled:     comp.Enabled(cfg),
			Custom:      true,
		})
	}

	return infos
}
