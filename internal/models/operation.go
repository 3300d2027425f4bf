package models

import "time"

// ExecutionTarget addresses a dispatch: a collection id (broadcast), an
// explicit resource id list (unicast), or both when the collection id only
// narrows the explicit list. An empty collection id means no collection
// scoping.
type ExecutionTarget struct {
	CollectionID string
	ResourceIDs  []int64
}

// IsEmpty reports whether the target addresses nothing at all.
func (t ExecutionTarget) IsEmpty() bool {
	return t.CollectionID == "" && len(t.ResourceIDs) == 0
}

// ClientCounters are the backend's per-endpoint tallies for one operation.
type ClientCounters struct {
	Total         int `json:"TotalClients"`
	Completed     int `json:"CompletedClients"`
	Failed        int `json:"FailedClients"`
	Offline       int `json:"OfflineClients"`
	NotApplicable int `json:"NotApplicableClients"`
	Unknown       int `json:"UnknownClients"`
}

// OperationRecord is one operation-task row as tracked by the backend.
type OperationRecord struct {
	OperationID    int64     `json:"ClientOperationId"`
	ScriptGuid     string    `json:"ScriptGuid"`
	ScriptName     string    `json:"ScriptName"`
	CollectionID   string    `json:"CollectionId"`
	CollectionName string    `json:"CollectionName"`
	ClientCounters
	LastUpdateTime time.Time `json:"LastUpdateTime"`
}

// ClientResult is one endpoint's reported outcome for an operation.
// DecodedOutput holds the structured form of ScriptOutput when it parses as
// JSON, otherwise the raw text.
type ClientResult struct {
	ResourceID    int64  `json:"ResourceId"`
	DeviceName    string `json:"DeviceName"`
	State         int    `json:"ScriptExecutionState"`
	ExitCode      int    `json:"ScriptExitCode"`
	ScriptOutput  string `json:"ScriptOutput"`
	DecodedOutput any    `json:"DecodedOutput,omitempty"`
}
