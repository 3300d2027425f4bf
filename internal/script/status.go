package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
)

// Consolidated status values.
const (
	StatusError                = "error"
	StatusNoClientCompleted    = "no client completed"
	StatusSomeClientsCompleted = "some clients completed"
	StatusAllClientsCompleted  = "all clients completed"
)

// StatusFilter selects operation-task records. Zero-valued fields are not
// filtered on; any combination is allowed.
type StatusFilter struct {
	OperationID  int64
	CollectionID string
	ScriptName   string
}

// StatusReader is the slice of the management API the aggregator consumes.
type StatusReader interface {
	QueryOperationStatus(ctx context.Context, filter StatusFilter) ([]models.OperationRecord, error)
	QueryOperationResults(ctx context.Context, operationID int64) ([]models.ClientResult, error)
}

// ConsolidatedStatus is one operation's point-in-time status view. Counters
// is nil only for the synthetic record reported when no operation matched
// the filter. ResultError carries a per-endpoint fetch failure without
// discarding the rest of the record.
type ConsolidatedStatus struct {
	OperationID    int64                  `json:"operation_id"`
	ScriptName     string                 `json:"script_name,omitempty"`
	CollectionID   string                 `json:"collection_id,omitempty"`
	Status         string                 `json:"status"`
	Counters       *models.ClientCounters `json:"counters,omitempty"`
	LastUpdateTime time.Time              `json:"last_update_time,omitempty"`
	Results        []models.ClientResult  `json:"results,omitempty"`
	ResultError    string                 `json:"result_error,omitempty"`
}

// Aggregator consolidates the backend's asynchronous execution records into
// per-operation status views. Each call is an independent snapshot; callers
// poll it to observe progress.
type Aggregator struct {
	backend StatusReader
}

func NewAggregator(backend StatusReader) *Aggregator {
	return &Aggregator{backend: backend}
}

// Aggregate retrieves the operation-task records matching filter and
// consolidates each into one record. When nothing matches, it returns a
// single synthetic record with status "error" and nil counters so callers
// can tell "no such operation" apart from "operation exists, zero
// completions". Per-record result fetches run concurrently; one record's
// failure never aborts the batch.
func (a *Aggregator) Aggregate(ctx context.Context, filter StatusFilter) ([]ConsolidatedStatus, error) {
	records, err := a.backend.QueryOperationStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query operation status: %w", err)
	}

	if len(records) == 0 {
		return []ConsolidatedStatus{{
			OperationID: filter.OperationID,
			ScriptName:  filter.ScriptName,
			Status:      StatusError,
		}}, nil
	}

	out := make([]ConsolidatedStatus, len(records))
	var wg sync.WaitGroup
	for i, rec := range records {
		wg.Add(1)
		go func(i int, rec models.OperationRecord) {
			defer wg.Done()
			out[i] = a.consolidate(ctx, rec)
		}(i, rec)
	}
	wg.Wait()

	return out, nil
}

func (a *Aggregator) consolidate(ctx context.Context, rec models.OperationRecord) ConsolidatedStatus {
	counters := rec.ClientCounters
	cs := ConsolidatedStatus{
		OperationID:    rec.OperationID,
		ScriptName:     rec.ScriptName,
		CollectionID:   rec.CollectionID,
		Counters:       &counters,
		LastUpdateTime: rec.LastUpdateTime,
	}

	if counters.Completed == 0 {
		cs.Status = StatusNoClientCompleted
		return cs
	}

	if counters.Completed == counters.Total {
		cs.Status = StatusAllClientsCompleted
	} else {
		cs.Status = StatusSomeClientsCompleted
	}

	results, err := a.backend.QueryOperationResults(ctx, rec.OperationID)
	if err != nil {
		cs.ResultError = err.Error()
		return cs
	}

	for i := range results {
		results[i].DecodedOutput = DecodeOutput(results[i].ScriptOutput)
	}
	cs.Results = results
	return cs
}

// outputUnescaper undoes the JSON string-escaping artifacts the backend
// leaves in endpoint output.
var outputUnescaper = strings.NewReplacer(
	`\n`, "\n",
	`\"`, `"`,
	`\\`, `\`,
)

// DecodeOutput attempts to parse an endpoint's raw output as structured
// data. It never fails: anything that does not parse comes back as the raw
// text unchanged.
func DecodeOutput(raw string) any {
	candidate := strings.TrimSpace(outputUnescaper.Replace(raw))
	if candidate == "" {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return raw
	}
	return v
}
