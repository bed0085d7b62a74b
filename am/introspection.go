package am

import (
	"maps"
	"os"
	"slices"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/lineage/am.toml
	SourceUser        ConfigSource = "user"        // ~/.lineage/am.toml
	SourceProject     ConfigSource = "project"     // nearest lineage.am.toml
	SourceEnvironment ConfigSource = "environment" // LINEAGE_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource // The type of config source (default, system, user, etc.)
	Path   string       // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"` // File path or env var name
}

// Introspect returns every effective setting with the source it came from,
// sorted by key.
func Introspect() ([]SettingInfo, error) {
	if _, err := Load(); err != nil {
		return nil, err
	}
	v := GetViper()

	mu.Lock()
	sources := maps.Clone(ConfigSources)
	mu.Unlock()

	keys := v.AllKeys()
	slices.Sort(keys)

	settings := make([]SettingInfo, 0, len(keys))
	for _, key := range keys {
		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sources[key]; ok {
			info = si
		}

		// Environment overrides files
		envKey := EnvVar(key)
		if _, set := os.LookupEnv(envKey); set {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		settings = append(settings, SettingInfo{
			Key:        key,
			Value:      v.Get(key),
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
	return settings, nil
}

// EnvVar returns the environment variable that overrides a dotted key
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
