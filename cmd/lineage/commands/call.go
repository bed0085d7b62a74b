package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/teranos/lineage/am"
)

func newCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <type> <member> [args...]",
		Short: "Invoke a member of a blueprint type",
		Long: `Invoke an instance member on a fresh instance of the type, or a type-level
member with --static. With --mixin the member is looked up on that mixin's
handle instead of the merged surface.

Examples:
  lineage call D greet
  lineage call D greet --mixin m
  lineage call D kind --static --mixin m2`,
		Args: cobra.MinimumNArgs(2),
		RunE: runCall,
	}
	cmd.Flags().String("mixin", "", "Call through the handle registered under this mixin id")
	cmd.Flags().Bool("static", false, "Call a type-level member")
	return cmd
}

func runCall(cmd *cobra.Command, args []string) error {
	mixinID, _ := cmd.Flags().GetString("mixin")
	static, _ := cmd.Flags().GetBool("static")

	g, _, err := loadGraph(cmd)
	if err != nil {
		return err
	}
	typeName, member := args[0], args[1]
	extra := make([]any, 0, len(args)-2)
	for _, a := range args[2:] {
		extra = append(extra, a)
	}

	t, err := g.Lookup(typeName)
	if err != nil {
		return err
	}

	var result any
	switch {
	case static && mixinID != "":
		result, err = t.Mixin(mixinID).Invoke(member, extra...)
	case static:
		result, err = t.Invoke(member, extra...)
	default:
		inst, nerr := g.New(typeName)
		if nerr != nil {
			return nerr
		}
		defer inst.Destroy()
		if mixinID != "" {
			result, err = inst.Mixin(mixinID).Invoke(member, extra...)
		} else {
			result, err = inst.Invoke(member, extra...)
		}
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if outputFormat(cmd) == am.FormatJSON {
		return renderJSON(w, map[string]any{"type": typeName, "member": member, "result": result})
	}
	_, err = fmt.Fprintln(w, result)
	return err
}
