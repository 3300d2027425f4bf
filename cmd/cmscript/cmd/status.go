package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshburkard/MECMAdminService-sub003/internal/script"
)

var (
	statusCollectionID string
	statusScriptName   string
	statusLast         bool
)

var statusCmd = &cobra.Command{
	Use:   "status [operation id]",
	Short: "Consolidate per-endpoint execution records for operations",
	Long: `Retrieve a point-in-time status view for dispatched operations. Filters
may be combined: an explicit operation id, a target collection, a script
name, or --last for the most recently dispatched operation from the local
history. Each endpoint's output is decoded as JSON where possible and
reported raw otherwise.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := script.StatusFilter{
			CollectionID: statusCollectionID,
			ScriptName:   statusScriptName,
		}

		if len(args) == 1 {
			opID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid operation id %q: %w", args[0], err)
			}
			filter.OperationID = opID
		}

		if statusLast {
			if filter.OperationID != 0 {
				return fmt.Errorf("--last cannot be combined with an explicit operation id")
			}
			store, err := openHistory()
			if err != nil {
				return err
			}
			last, err := store.LastDispatch()
			store.Close()
			if err != nil {
				return fmt.Errorf("no dispatch recorded in local history: %w", err)
			}
			filter.OperationID = last.OperationID
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		records, err := script.NewAggregator(client).Aggregate(cmd.Context(), filter)
		if err != nil {
			return err
		}

		return printStatus(records)
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusCollectionID, "collection", "c", "", "Filter by target collection id")
	statusCmd.Flags().StringVar(&statusScriptName, "script", "", "Filter by script name")
	statusCmd.Flags().BoolVar(&statusLast, "last", false, "Use the most recently dispatched operation")

	rootCmd.AddCommand(statusCmd)
}
