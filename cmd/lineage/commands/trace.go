package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teranos/lineage/am"
	"github.com/teranos/lineage/compose"
	"github.com/teranos/lineage/errors"
)

func newTraceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <type>",
		Short: "Trace decoration and the lifecycle of one instance",
		Long: `Decorate a type, construct one instance and destroy it, printing every
extended, mixed, construct and destroy hook in the order it fired.

Examples:
  lineage trace D
  lineage trace D --set color=blue --set size=3`,
		Args: cobra.ExactArgs(1),
		RunE: runTrace,
	}
	cmd.Flags().StringArray("set", nil, "Instance configuration as key=value (repeatable)")
	return cmd
}

type traceView struct {
	Type   string         `json:"type"`
	Events []string       `json:"events"`
	Config compose.Config `json:"config"`
}

func runTrace(cmd *cobra.Command, args []string) error {
	sets, _ := cmd.Flags().GetStringArray("set")
	cfg, err := parseAssignments(sets)
	if err != nil {
		return err
	}

	g, rec, err := loadGraph(cmd)
	if err != nil {
		return err
	}
	name := args[0]
	t, err := g.Lookup(name)
	if err != nil {
		return err
	}
	if _, err := t.Decorate(); err != nil {
		return errors.Wrapf(err, "decorate %s", name)
	}

	inst, err := g.New(name, cfg)
	if err != nil {
		return err
	}
	state := inst.Config()
	if err := inst.Destroy(); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat(cmd) == am.FormatJSON {
		return renderJSON(w, traceView{Type: name, Events: rec.Strings(), Config: state})
	}
	if err := renderEvents(w, rec.Events()); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "instance %s config: %v\n", inst.ID(), state)
	return err
}
