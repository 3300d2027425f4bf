package script

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
)

// ClientOperationRunScript is the operation-type tag the generic
// client-operation endpoint uses for script execution.
const ClientOperationRunScript = 135

// SubmitRequest is the body of the generic client-operation endpoint.
// RandomizationWindow stays 0: executions start immediately, without jitter.
type SubmitRequest struct {
	Param               string  `json:"Param"`
	RandomizationWindow int     `json:"RandomizationWindow"`
	TargetCollectionID  string  `json:"TargetCollectionID"`
	TargetResourceIDs   []int64 `json:"TargetResourceIDs"`
	Type                int     `json:"Type"`
}

// Submitter is the slice of the management API the dispatcher consumes.
type Submitter interface {
	InitiateClientOperation(ctx context.Context, req SubmitRequest) (map[string]any, error)
}

// Dispatcher encodes and submits script invocations.
type Dispatcher struct {
	backend Submitter
}

func NewDispatcher(backend Submitter) *Dispatcher {
	return &Dispatcher{backend: backend}
}

// Dispatch validates, encodes and submits one invocation of def against
// target, returning the backend's operation identifier and the envelope that
// was sent. Every validation failure happens before the backend is called.
//
// groupID pins the parameter-group identifier; pass "" to mint one.
func (d *Dispatcher) Dispatch(ctx context.Context, def *models.ScriptDefinition, args map[string]string, target models.ExecutionTarget, groupID string) (int64, *Envelope, error) {
	if def.ApprovalState != models.ApprovalApproved {
		return 0, nil, &ValidationError{Reason: fmt.Sprintf("script %q is %s, only approved scripts may be dispatched",
			def.ScriptName, def.ApprovalState)}
	}
	if target.IsEmpty() {
		return 0, nil, &ValidationError{Reason: "a target collection id or at least one resource id is required"}
	}
	if def.ScriptHash == "" {
		return 0, nil, &IntegrityUnavailableError{ScriptName: def.ScriptName}
	}

	schema, err := DecodeSchema(def.Parameterlist)
	if err != nil {
		return 0, nil, err
	}

	block, err := EncodeParameters(schema, args, groupID)
	if err != nil {
		return 0, nil, err
	}

	envelope := BuildEnvelope(def, block)

	resourceIDs := target.ResourceIDs
	if resourceIDs == nil {
		resourceIDs = []int64{}
	}

	resp, err := d.backend.InitiateClientOperation(ctx, SubmitRequest{
		Param:               envelope.Payload(),
		RandomizationWindow: 0,
		TargetCollectionID:  target.CollectionID,
		TargetResourceIDs:   resourceIDs,
		Type:                ClientOperationRunScript,
	})
	if err != nil {
		return 0, nil, fmt.Errorf("submit client operation: %w", err)
	}

	opID, err := extractOperationID(resp)
	if err != nil {
		return 0, nil, err
	}
	return opID, envelope, nil
}

// operationIDKeys is the lookup order for the operation identifier in the
// submit response. The backend has shipped it under each of these at one
// point or another.
var operationIDKeys = []string{"OperationId", "OperationID", "value", "ReturnValue"}

func extractOperationID(resp map[string]any) (int64, error) {
	for _, key := range operationIDKeys {
		v, ok := resp[key]
		if !ok {
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			if id, err := extractOperationID(nested); err == nil {
				return id, nil
			}
			continue
		}
		if id, ok := coerceInt64(v); ok {
			return id, nil
		}
	}
	return 0, fmt.Errorf("no operation id in submit response")
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		id, err := n.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		return id, err == nil
	}
	return 0, false
}
