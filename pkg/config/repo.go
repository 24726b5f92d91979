package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v4"

	"github.com/smykla-skalski/devws/internal/configtypes"
)

// RepoSettingsFileName is the optional per-repository override file.
const RepoSettingsFileName = ".devws.yaml"

// ParseRepoSettings parses per-repository settings from YAML or JSON.
func ParseRepoSettings(data []byte) (*configtypes.RepoSettings, error) {
	var settings configtypes.RepoSettings

	if err := yaml.Unmarshal(data, &settings); err != nil {
		if jsonErr := json.Unmarshal(data, &settings); jsonErr != nil {
			return nil, errors.Wrap(err, "parsing repo settings as YAML or JSON")
		}
	}

	return &settings, nil
}

// LoadRepoSettings reads the optional .devws.yaml at the repository root.
// A missing file yields empty settings.
func LoadRepoSettings(repoRoot string) (*configtypes.RepoSettings, error) {
	path := filepath.Join(repoRoot, RepoSettingsFileName)

	data, err := os.ReadFile(path) //nolint:gosec // path is inside the caller's repository
	if err != nil {
		if os.IsNotExist(err) {
			return &configtypes.RepoSettings{}, nil
		}

		return nil, errors.Wrapf(err, "reading repo settings %s", path)
	}

	settings, err := ParseRepoSettings(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing repo settings %s", path)
	}

	return settings, nil
}
