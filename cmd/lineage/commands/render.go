package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/teranos/lineage/am"
	"github.com/teranos/lineage/blueprint"
	"github.com/teranos/lineage/errors"
)

// renderTable writes rows as a pterm table, or tab-separated for plain output.
func renderTable(w io.Writer, format string, header []string, rows [][]string) error {
	if format == am.FormatPlain {
		for _, row := range rows {
			if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
				return err
			}
		}
		return nil
	}

	data := append(pterm.TableData{header}, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

func renderJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// eventStyle colors an event by hook kind.
func eventStyle(e blueprint.Event) pterm.Color {
	switch e.Hook {
	case blueprint.HookExtended:
		return pterm.FgCyan
	case blueprint.HookMixed:
		return pterm.FgMagenta
	case blueprint.HookConstruct:
		return pterm.FgGreen
	default:
		return pterm.FgRed
	}
}

func renderEvents(w io.Writer, events []blueprint.Event) error {
	for i, e := range events {
		line := fmt.Sprintf("%3d  %s", i+1, eventStyle(e).Sprint(e.String()))
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
