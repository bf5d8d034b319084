package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-qti/internal/qti/numstring"
	"github.com/mind-engage/mindengage-qti/internal/qti/value"
)

func newDecomposeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decompose <number>",
		Short: "Print the record decomposition of a numeric string",
		Long: `Decomposes a decimal literal into the record a textEntryInteraction
stores for a record response variable.

Example:
  qtictl decompose -- -1.50e3`,
		Args: cobra.ExactArgs(1),
		RunE: runDecompose,
	}
}

func runDecompose(cmd *cobra.Command, args []string) error {
	d, err := numstring.Decompose(args[0])
	if err != nil {
		return err
	}
	rec := d.Record()
	out := cmd.OutOrStdout()
	if jsonOut {
		b, err := value.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
		return nil
	}
	for _, f := range rec.Fields() {
		lit := "NULL"
		if !value.IsNull(f.Value) {
			lit = f.Value.String()
		}
		fmt.Fprintf(out, "%-12s %s\n", f.Name, lit)
	}
	return nil
}
