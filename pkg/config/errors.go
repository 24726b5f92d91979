package config

import "github.com/cockroachdb/errors"

var (
	// ErrConfigLocked indicates another devws process holds the config lock
	ErrConfigLocked = errors.New("another devws process holds the config lock")
	// ErrProfileNotFound indicates the named profile has no binding in the config
	ErrProfileNotFound = errors.New("profile not found in global config")
	// ErrInvalidConfigKey indicates a dotted key path crosses a non-map value
	ErrInvalidConfigKey = errors.New("config key path crosses a non-map value")
	// ErrUnknownConfigKey indicates a key the config schema has no field for
	ErrUnknownConfigKey = errors.New("unknown config key")
)
