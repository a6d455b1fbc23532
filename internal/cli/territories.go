package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hightemp/mapcode/internal/output"
)

var territoriesCmd = &cobra.Command{
	Use:   "territories",
	Short: "List territory codes and names",
	Long: `Lists the territories mapcodes can be relative to. Online the list
comes from the Mapcode API; offline from the latest snapshot written by
'mapcode update', or the built-in table.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		table, err := a.src.Territories(cmd.Context())
		if err != nil {
			return lookupError(err)
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			jsonStr, err := output.FormatTerritoriesJSON(table)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, jsonStr)
			return nil
		}
		fmt.Fprintln(w, output.FormatTerritoriesText(table))
		return nil
	},
}
