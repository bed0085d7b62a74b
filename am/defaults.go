package am

import (
	"github.com/spf13/viper"
)

// Default values
const (
	DefaultBlueprintPath   = "lineage.toml"
	DefaultWatchDebounceMS = 300
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Logging defaults
	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)

	// Blueprint defaults
	v.SetDefault("blueprint.path", DefaultBlueprintPath)
	v.SetDefault("blueprint.watch_debounce_ms", DefaultWatchDebounceMS)
	v.SetDefault("blueprint.check_engine", true)

	// Output defaults
	v.SetDefault("output.format", FormatTable)
	v.SetDefault("output.color", true)
}
