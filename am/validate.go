package am

import (
	"slices"

	"github.com/teranos/lineage/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Verbosity: negative is invalid, anything above debug is clamped by the logger
	if c.Log.Verbosity < 0 {
		return errors.Newf("log.verbosity must be >= 0, got %d", c.Log.Verbosity)
	}

	if c.Blueprint.Path == "" {
		return errors.New("blueprint.path cannot be empty (omit for default " + DefaultBlueprintPath + ")")
	}

	// Debounce: 0 reloads on every event, negative is invalid
	if c.Blueprint.WatchDebounceMS < 0 {
		return errors.Newf("blueprint.watch_debounce_ms must be >= 0, got %d", c.Blueprint.WatchDebounceMS)
	}

	formats := []string{FormatTable, FormatPlain, FormatJSON}
	if !slices.Contains(formats, c.Output.Format) {
		return errors.WithHintf(
			errors.Newf("output.format %q is not supported", c.Output.Format),
			"use one of %v", formats)
	}

	return nil
}
