package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshburkard/MECMAdminService-sub003/internal/cli"
	"github.com/joshburkard/MECMAdminService-sub003/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [operation id]",
	Short: "List operations dispatched from this machine",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		var dispatches []history.Dispatch
		if len(args) == 1 {
			opID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid operation id %q: %w", args[0], err)
			}
			d, err := store.GetDispatch(opID)
			if err != nil {
				return fmt.Errorf("operation %d not in local history: %w", opID, err)
			}
			dispatches = []history.Dispatch{*d}
		} else {
			dispatches, err = store.ListDispatches(historyLimit)
			if err != nil {
				return err
			}
		}

		if outputJSON {
			return cli.FormatJSON(dispatches)
		}
		return cli.FormatDispatchesTable(dispatches)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Number of entries to show")

	rootCmd.AddCommand(historyCmd)
}
