package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.yaml.in/yaml/v4"

	"github.com/smykla-skalski/devws/internal/configtypes"
)

// SetKey sets a configuration value by dotted key path, e.g.
// "home_backup.output_dir". The value is parsed as YAML so booleans, numbers,
// and flow lists keep their types; anything that does not parse is stored as
// the raw string. The updated document must survive a round trip through the
// typed config, so a key the schema has no field for is rejected instead of
// silently dropped on the next save.
func (g *Global) SetKey(key, value string) error {
	segments := strings.Split(key, ".")

	for _, segment := range segments {
		if segment == "" {
			return errors.Wrapf(ErrInvalidConfigKey, "%q has an empty segment", key)
		}
	}

	doc, err := g.Document()
	if err != nil {
		return err
	}

	if err := setPath(doc, segments, parseScalar(value)); err != nil {
		return errors.Wrapf(err, "setting %q", key)
	}

	var updated configtypes.GlobalConfig
	if err := decodeDocument(doc, &updated); err != nil {
		return errors.Wrapf(err, "applying %q", key)
	}

	survived, err := (&Global{GlobalConfig: updated}).Document()
	if err != nil {
		return err
	}

	if !keyPresent(survived, segments) {
		return errors.Wrap(ErrUnknownConfigKey, key)
	}

	g.GlobalConfig = updated

	return nil
}

// parseScalar interprets a command-line value as YAML, falling back to the
// raw string when it does not parse.
func parseScalar(value string) any {
	var parsed any
	if err := yaml.Unmarshal([]byte(value), &parsed); err != nil {
		return value
	}

	return parsed
}

// setPath walks the document along the segments, creating missing maps, and
// sets the final segment. An existing intermediate that is not a map aborts
// the walk so list-valued keys like custom_components are never clobbered.
func setPath(doc map[string]any, segments []string, value any) error {
	current := doc

	for i, segment := range segments[:len(segments)-1] {
		next, ok := current[segment]
		if !ok || next == nil {
			child := map[string]any{}
			current[segment] = child
			current = child

			continue
		}

		child, ok := next.(map[string]any)
		if !ok {
			return errors.Wrapf(ErrInvalidConfigKey, "%q is not a map", strings.Join(segments[:i+1], "."))
		}

		current = child
	}

	current[segments[len(segments)-1]] = value

	return nil
}

// keyPresent reports whether the segments resolve to a key in the document.
func keyPresent(doc map[string]any, segments []string) bool {
	current := doc

	for i, segment := range segments {
		next, ok := current[segment]
		if !ok {
			return false
		}

		if i == len(segments)-1 {
			return true
		}

		child, ok := next.(map[string]any)
		if !ok {
			return false
		}

		current = child
	}

	return false
}
