package commands

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/teranos/lineage/am"
	"github.com/teranos/lineage/blueprint"
	"github.com/teranos/lineage/compose"
	"github.com/teranos/lineage/errors"
	"github.com/teranos/lineage/logger"
	"github.com/teranos/lineage/version"
	"gopkg.in/yaml.v3"
)

// blueprintPath returns the --blueprint flag or the configured default.
func blueprintPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString(flagBlueprint); path != "" {
		return path, nil
	}
	cfg, err := am.Load()
	if err != nil {
		return "", err
	}
	return cfg.Blueprint.Path, nil
}

// outputFormat returns the --output flag or the configured default.
func outputFormat(cmd *cobra.Command) string {
	if format, _ := cmd.Flags().GetString(flagOutput); format != "" {
		return format
	}
	if cfg, err := am.Load(); err == nil {
		return cfg.Output.Format
	}
	return am.FormatTable
}

// loadGraph loads, checks and builds the blueprint. Nothing is decorated yet.
func loadGraph(cmd *cobra.Command) (*blueprint.Graph, *blueprint.Recorder, error) {
	path, err := blueprintPath(cmd)
	if err != nil {
		return nil, nil, err
	}
	f, err := blueprint.Load(path)
	if err != nil {
		return nil, nil, errors.WithHint(err, "pass --blueprint or set blueprint.path in am.toml")
	}
	return buildGraph(f)
}

func buildGraph(f *blueprint.File) (*blueprint.Graph, *blueprint.Recorder, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, nil, err
	}
	if cfg.Blueprint.CheckEngine {
		if err := f.CheckEngine(version.Get().Semver()); err != nil {
			return nil, nil, err
		}
	}

	rec := blueprint.NewRecorder()
	reg := compose.NewRegistry(compose.WithLogger(logger.ComponentLogger("compose")))
	g, err := blueprint.Build(reg, f, rec)
	if err != nil {
		return nil, nil, err
	}
	return g, rec, nil
}

// parseAssignments turns k=v pairs into a config. Values are read as YAML
// scalars or flow collections, so "3" is an int and "[a, b]" a list.
func parseAssignments(pairs []string) (compose.Config, error) {
	cfg := make(compose.Config, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, errors.Newf("invalid assignment %q (expected key=value)", pair)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		cfg[key] = value
	}
	return cfg, nil
}
