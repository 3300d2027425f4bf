package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joshburkard/MECMAdminService-sub003/internal/history"
	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
	"github.com/joshburkard/MECMAdminService-sub003/internal/script"
)

func FormatJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func FormatScriptsTable(scripts []models.ScriptDefinition) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tGUID\tVERSION\tSTATE\tPARAMETERS")

	for _, s := range scripts {
		params := "none"
		if s.Parameterlist != "" {
			params = "declared"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ScriptName,
			s.ScriptGuid,
			s.ScriptVersion,
			s.ApprovalState,
			params,
		)
	}

	return w.Flush()
}

func FormatScriptDetail(s *models.ScriptDefinition, schema *script.Schema) error {
	fmt.Printf("Name: %s\n", s.ScriptName)
	fmt.Printf("GUID: %s\n", s.ScriptGuid)
	fmt.Printf("Version: %s\n", s.ScriptVersion)
	fmt.Printf("State: %s\n", s.ApprovalState)
	fmt.Printf("Hash: %s\n", orDash(s.ScriptHash))
	fmt.Printf("\n")

	if schema == nil {
		fmt.Println("No parameter schema declared")
		return nil
	}
	if len(schema.Params) == 0 {
		fmt.Println("Script declares zero parameters")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMETER\tTYPE\tREQUIRED\tHIDDEN\tDEFAULT")
	for _, p := range schema.Params {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\t%s\n",
			p.Name, p.Type, p.Required, p.Hidden, orDash(p.DefaultValue))
	}
	return w.Flush()
}

func FormatStatusTable(records []script.ConsolidatedStatus) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tSCRIPT\tSTATUS\tCOMPLETED\tFAILED\tOFFLINE\tUPDATED")

	for _, r := range records {
		completed, failed, offline := "-", "-", "-"
		if r.Counters != nil {
			completed = fmt.Sprintf("%d/%d", r.Counters.Completed, r.Counters.Total)
			failed = strconv.Itoa(r.Counters.Failed)
			offline = strconv.Itoa(r.Counters.Offline)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.OperationID,
			orDash(r.ScriptName),
			r.Status,
			completed,
			failed,
			offline,
			formatTime(r.LastUpdateTime),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, r := range records {
		if r.ResultError != "" {
			fmt.Printf("\nOperation %d: result fetch failed: %s\n", r.OperationID, r.ResultError)
		}
		if len(r.Results) > 0 {
			fmt.Printf("\nOperation %d results:\n", r.OperationID)
			if err := FormatResultsTable(r.Results); err != nil {
				return err
			}
		}
	}
	return nil
}

func FormatResultsTable(results []models.ClientResult) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RESOURCE\tDEVICE\tSTATE\tEXIT CODE\tOUTPUT")

	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n",
			r.ResourceID,
			r.DeviceName,
			r.State,
			r.ExitCode,
			truncate(flattenOutput(r.DecodedOutput, r.ScriptOutput), 60),
		)
	}
	return w.Flush()
}

func FormatDispatchesTable(dispatches []history.Dispatch) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "OPERATION\tSCRIPT\tVERSION\tCOLLECTION\tRESOURCES\tDISPATCHED")

	for _, d := range dispatches {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			d.OperationID,
			d.ScriptName,
			d.ScriptVersion,
			orDash(d.CollectionID),
			formatResourceIDs(d.ResourceIDs),
			formatTime(d.DispatchedAt),
		)
	}
	return w.Flush()
}

func flattenOutput(decoded any, raw string) string {
	if decoded == nil {
		return raw
	}
	if s, ok := decoded.(string); ok {
		return s
	}
	data, err := json.Marshal(decoded)
	if err != nil {
		return raw
	}
	return string(data)
}

func formatResourceIDs(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
