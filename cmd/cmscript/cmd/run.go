package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshburkard/MECMAdminService-sub003/internal/cli"
	"github.com/joshburkard/MECMAdminService-sub003/internal/history"
	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
	"github.com/joshburkard/MECMAdminService-sub003/internal/script"
)

var (
	runParams       []string
	runCollectionID string
	runResourceIDs  []int64
	runWait         bool
	runPollInterval time.Duration
	runPollTimeout  time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [script name or GUID]",
	Short: "Dispatch an approved script to managed endpoints",
	Long: `Dispatch an approved script to a collection or an explicit set of
endpoints. Parameters are validated against the script's declared schema
before anything is submitted. Submission is fire-and-forget: the command
returns the operation id immediately unless --wait is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := parseParams(runParams)
		if err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		def, err := client.ResolveScript(ctx, args[0])
		if err != nil {
			return err
		}

		target := models.ExecutionTarget{
			CollectionID: runCollectionID,
			ResourceIDs:  runResourceIDs,
		}

		dispatcher := script.NewDispatcher(client)
		opID, _, err := dispatcher.Dispatch(ctx, def, params, target, "")
		if err != nil {
			return err
		}

		recordDispatch(def, target, opID)

		if outputJSON {
			if !runWait {
				return cli.FormatJSON(map[string]any{"operation_id": opID})
			}
		} else {
			fmt.Printf("Operation %d dispatched for script %q (version %s)\n", opID, def.ScriptName, def.ScriptVersion)
		}

		if !runWait {
			return nil
		}
		return pollUntilComplete(ctx, script.NewAggregator(client), opID)
	},
}

// recordDispatch appends to the local history. History is best-effort; a
// broken local database must not fail an already submitted operation.
func recordDispatch(def *models.ScriptDefinition, target models.ExecutionTarget, opID int64) {
	store, err := openHistory()
	if err != nil {
		log.Printf("Warning: dispatch history unavailable: %v", err)
		return
	}
	defer store.Close()

	err = store.RecordDispatch(&history.Dispatch{
		OperationID:   opID,
		ScriptGuid:    def.ScriptGuid,
		ScriptName:    def.ScriptName,
		ScriptVersion: def.ScriptVersion,
		CollectionID:  target.CollectionID,
		ResourceIDs:   target.ResourceIDs,
		DispatchedAt:  time.Now(),
	})
	if err != nil {
		log.Printf("Warning: failed to record dispatch: %v", err)
	}
}

// pollUntilComplete re-invokes the aggregator until every client completed
// or the poll budget runs out. The aggregator itself is a pure snapshot; the
// waiting lives here.
func pollUntilComplete(ctx context.Context, aggregator *script.Aggregator, opID int64) error {
	ctx, cancel := context.WithTimeout(ctx, runPollTimeout)
	defer cancel()

	ticker := time.NewTicker(runPollInterval)
	defer ticker.Stop()

	for {
		records, err := aggregator.Aggregate(ctx, script.StatusFilter{OperationID: opID})
		if err != nil {
			return err
		}

		rec := records[0]
		if rec.Status == script.StatusAllClientsCompleted || rec.Status == script.StatusError {
			return printStatus(records)
		}

		if !outputJSON {
			fmt.Printf("Waiting: %s\n", rec.Status)
		}

		select {
		case <-ctx.Done():
			fmt.Println("Poll budget exhausted, last known state:")
			return printStatus(records)
		case <-ticker.C:
		}
	}
}

func printStatus(records []script.ConsolidatedStatus) error {
	if outputJSON {
		return cli.FormatJSON(records)
	}
	return cli.FormatStatusTable(records)
}

// parseParams splits NAME=VALUE arguments. The value may contain '='.
func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q, expected NAME=VALUE", pair)
		}
		params[name] = value
	}
	return params, nil
}

func init() {
	runCmd.Flags().StringArrayVarP(&runParams, "param", "p", nil, "Script parameter as NAME=VALUE (repeatable)")
	runCmd.Flags().StringVarP(&runCollectionID, "collection", "c", "", "Target collection id")
	runCmd.Flags().Int64SliceVarP(&runResourceIDs, "resource", "r", nil, "Target resource id (repeatable)")
	runCmd.Flags().BoolVarP(&runWait, "wait", "w", false, "Poll until all clients completed")
	runCmd.Flags().DurationVar(&runPollInterval, "interval", 5*time.Second, "Poll interval used with --wait")
	runCmd.Flags().DurationVar(&runPollTimeout, "timeout", 10*time.Minute, "Poll budget used with --wait")

	rootCmd.AddCommand(runCmd)
}
