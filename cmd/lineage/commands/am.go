package commands

import (
	"fmt"
	"slices"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/teranos/lineage/am"
	"github.com/teranos/lineage/errors"
	"gopkg.in/yaml.v3"
)

func newAmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "am",
		Short: "Manage lineage configuration",
		Long: `am - Manage lineage configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (LINEAGE_* prefix)
3. Project config (lineage.am.toml, searched up from the working directory)
4. User config (~/.lineage/am.toml)
5. System config (/etc/lineage/am.toml)
6. Default values

Examples:
  lineage am show                    # Show current configuration
  lineage am show --format json      # Show configuration in JSON format
  lineage am show --sources          # Show where every value came from
  lineage am get blueprint.path      # Get specific config value
  lineage am validate                # Validate current configuration`,
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current lineage configuration merged from all sources",
		Args:  cobra.NoArgs,
		RunE:  runAmShow,
	}
	show.Flags().String("format", "toml", "Output format: toml, json, yaml")
	show.Flags().Bool("sources", false, "List every setting with the source it came from")

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  "Get a specific configuration value using dot notation (e.g., blueprint.path, log.verbosity)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAmGet,
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		Long:  "Validate the merged configuration and report unknown keys in the config files that were read",
		Args:  cobra.NoArgs,
		RunE:  runAmValidate,
	}

	cmd.AddCommand(show, get, validate)
	return cmd
}

func runAmShow(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()

	if sources, _ := cmd.Flags().GetBool("sources"); sources {
		settings, err := am.Introspect()
		if err != nil {
			return errors.Wrap(err, "failed to introspect config")
		}
		rows := make([][]string, len(settings))
		for i, s := range settings {
			rows[i] = []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.SourcePath}
		}
		return renderTable(w, outputFormat(cmd), []string{"Key", "Value", "Source", "Path"}, rows)
	}

	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return renderJSON(w, cfg)

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(w, "# lineage configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(w, "# lineage configuration\n%s", data)

	default:
		return errors.Newf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		keys := v.AllKeys()
		sort.Strings(keys)
		return errors.WithHintf(errors.Newf("configuration key %q not found", key), "known keys: %v", keys)
	}

	fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}

	unknown, err := am.CheckLoadedFiles()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	paths := make([]string, 0, len(unknown))
	for path := range unknown {
		paths = append(paths, path)
	}
	slices.Sort(paths)
	for _, path := range paths {
		fmt.Fprintf(w, "⚠ %s: unknown keys %v\n", path, unknown[path])
	}

	fmt.Fprintln(w, "✓ Configuration is valid")
	return nil
}
