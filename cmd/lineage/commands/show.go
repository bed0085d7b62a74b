package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/teranos/lineage/am"
	"github.com/teranos/lineage/compose"
	"github.com/teranos/lineage/errors"
)

// typeView is the JSON shape of one decorated type.
type typeView struct {
	Type        string         `json:"type"`
	ID          int            `json:"id"`
	Super       string         `json:"super"`
	Composition []string       `json:"composition"`
	Handles     []string       `json:"handles"`
	Members     []string       `json:"members"`
	Statics     []string       `json:"statics"`
	Fields      map[string]any `json:"fields,omitempty"`
	Fingerprint string         `json:"fingerprint"`
}

func viewOf(d *compose.Descriptor) typeView {
	super := ""
	if d.Super() != nil {
		super = d.Super().Name()
	}
	return typeView{
		Type:        d.Name(),
		ID:          int(d.ID()),
		Super:       super,
		Composition: d.Names(),
		Handles:     d.HandleIDs(),
		Members:     d.Prototype().Names(),
		Statics:     d.Statics().Names(),
		Fields:      d.Fields(),
		Fingerprint: d.Fingerprint(),
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [type...]",
		Short: "Show composition lists of blueprint types",
		Long: `Decorate blueprint types and show, for each one, its registry id,
superclass, composition list, registered mixin handles and fingerprint.

With no arguments every declared type is shown in file order.`,
		RunE: runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	g, _, err := loadGraph(cmd)
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = g.Names()
	}

	views := make([]typeView, 0, len(names))
	for _, name := range names {
		t, err := g.Lookup(name)
		if err != nil {
			return err
		}
		d, err := t.Decorate()
		if err != nil {
			return errors.Wrapf(err, "decorate %s", name)
		}
		views = append(views, viewOf(d))
	}

	w := cmd.OutOrStdout()
	format := outputFormat(cmd)
	if format == am.FormatJSON {
		return renderJSON(w, views)
	}

	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{
			v.Type,
			strconv.Itoa(v.ID),
			v.Super,
			strings.Join(v.Composition, " > "),
			strings.Join(v.Handles, ","),
			shortFingerprint(v.Fingerprint),
		}
	}
	return renderTable(w, format,
		[]string{"Type", "ID", "Super", "Composition", "Handles", "Fingerprint"}, rows)
}
