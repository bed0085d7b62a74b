// Package am holds the lineage tool configuration.
//
// Values are merged from built-in defaults, /etc/lineage/am.toml,
// ~/.lineage/am.toml, the nearest lineage.am.toml found walking up from the
// working directory, and LINEAGE_* environment variables, in that order.
package am

// Config represents the lineage tool configuration
type Config struct {
	Log       LogConfig       `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
	Blueprint BlueprintConfig `mapstructure:"blueprint" toml:"blueprint" json:"blueprint" yaml:"blueprint"`
	Output    OutputConfig    `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	JSON      bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
	Verbosity int  `mapstructure:"verbosity" toml:"verbosity" json:"verbosity" yaml:"verbosity"` // 0 = warnings only, 1 = info, 2+ = debug
}

// BlueprintConfig configures where blueprints are read from
type BlueprintConfig struct {
	Path            string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	WatchDebounceMS int    `mapstructure:"watch_debounce_ms" toml:"watch_debounce_ms" json:"watch_debounce_ms" yaml:"watch_debounce_ms"`
	CheckEngine     bool   `mapstructure:"check_engine" toml:"check_engine" json:"check_engine" yaml:"check_engine"` // enforce the blueprint's engine constraint
}

// OutputConfig configures command output
type OutputConfig struct {
	Format string `mapstructure:"format" toml:"format" json:"format" yaml:"format"` // table, plain or json
	Color  bool   `mapstructure:"color" toml:"color" json:"color" yaml:"color"`
}

// Output formats
const (
	FormatTable = "table"
	FormatPlain = "plain"
	FormatJSON  = "json"
)

// File names searched during loading
const (
	UserConfigDir     = ".lineage"
	UserConfigFile    = "am.toml"
	ProjectConfigFile = "lineage.am.toml"
	SystemConfigPath  = "/etc/lineage/am.toml"
	EnvPrefix         = "LINEAGE"
)
