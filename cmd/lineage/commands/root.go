// Package commands implements the lineage CLI.
package commands

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/lineage/am"
	"github.com/teranos/lineage/errors"
	"github.com/teranos/lineage/logger"
)

// Global flag names
const (
	flagBlueprint = "blueprint"
	flagVerbose   = "verbose"
	flagJSONLogs  = "json-logs"
	flagOutput    = "output"
)

// NewRootCmd builds the lineage command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lineage",
		Short: "lineage - type composition and lifecycle engine",
		Long: `lineage - inspect and exercise composed type graphs.

A blueprint declares types, their superclasses and the mixins they fold in.
lineage builds the blueprint into a composition registry and shows how each
type is linearized, which hooks fire and in what order.

Available commands:
  show     - Show composition lists, handles and fingerprints
  trace    - Decorate, construct and destroy a type, printing every hook
  call     - Invoke a member on an instance, a type or a mixin handle
  validate - Check that a blueprint builds and decorates
  watch    - Re-decorate whenever the blueprint changes
  am       - Manage lineage configuration ("I am")
  version  - Show version information

Examples:
  lineage show -b graph.toml
  lineage trace D --set color=blue
  lineage call D greet --mixin m`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	pf := root.PersistentFlags()
	pf.StringP(flagBlueprint, "b", "", "Blueprint file (default: blueprint.path from am config)")
	pf.CountP(flagVerbose, "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	pf.Bool(flagJSONLogs, false, "Emit logs as JSON")
	pf.StringP(flagOutput, "o", "", "Output format: table, plain, json (default: output.format from am config)")

	root.AddCommand(
		newShowCmd(),
		newTraceCmd(),
		newCallCmd(),
		newValidateCmd(),
		newWatchCmd(),
		newAmCmd(),
		newVersionCmd(),
	)
	return root
}

// setup initializes logging and output from flags and am config before any
// command runs.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	verbosity, _ := cmd.Flags().GetCount(flagVerbose)
	verbosity = max(verbosity, cfg.Log.Verbosity)
	jsonLogs, _ := cmd.Flags().GetBool(flagJSONLogs)

	if err := logger.Initialize(jsonLogs || cfg.Log.JSON, verbosity); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}

	if !cfg.Output.Color || os.Getenv("NO_COLOR") != "" {
		pterm.DisableColor()
	} else {
		pterm.EnableColor()
	}
	return nil
}
