package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate a blueprint",
		Long: `Load the blueprint, check its engine constraint, build it and decorate
every declared type. Mixin cycles and mixins from outside the graph are
reported here.`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	g, rec, err := loadGraph(cmd)
	if err != nil {
		return err
	}
	descs, err := g.DecorateAll()
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "✓ Blueprint is valid: %d types, %d hook notifications\n",
		len(descs), rec.Len())
	return err
}
