package script

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
)

type fakeSubmitter struct {
	calls []SubmitRequest
	resp  map[string]any
	err   error
}

func (f *fakeSubmitter) InitiateClientOperation(ctx context.Context, req SubmitRequest) (map[string]any, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestDispatchSingleEndpointNoSchema(t *testing.T) {
	backend := &fakeSubmitter{resp: map[string]any{"OperationId": float64(12345)}}
	dispatcher := NewDispatcher(backend)

	def := testDefinition()
	target := models.ExecutionTarget{ResourceIDs: []int64{16777219}}

	opID, envelope, err := dispatcher.Dispatch(context.Background(), def, nil, target, testGroupID)
	if err != nil {
		t.Fatalf("Failed to dispatch: %v", err)
	}
	if opID != 12345 {
		t.Errorf("Expected operation id 12345, got %d", opID)
	}

	if len(backend.calls) != 1 {
		t.Fatalf("Expected 1 submit call, got %d", len(backend.calls))
	}
	req := backend.calls[0]

	if req.Type != ClientOperationRunScript {
		t.Errorf("Expected type %d, got %d", ClientOperationRunScript, req.Type)
	}
	if req.RandomizationWindow != 0 {
		t.Errorf("Expected randomization window 0, got %d", req.RandomizationWindow)
	}
	if req.TargetCollectionID != "" {
		t.Errorf("Expected empty collection id, got %q", req.TargetCollectionID)
	}
	if len(req.TargetResourceIDs) != 1 || req.TargetResourceIDs[0] != 16777219 {
		t.Errorf("Expected resource ids [16777219], got %v", req.TargetResourceIDs)
	}

	decoded, err := base64.StdEncoding.DecodeString(req.Param)
	if err != nil {
		t.Fatalf("Param is not valid base64: %v", err)
	}
	if !strings.Contains(string(decoded), "<ScriptParameters></ScriptParameters>") {
		t.Errorf("Expected an empty parameter block, got %s", decoded)
	}
	if !strings.Contains(string(decoded), `<ParameterGroupHash ParameterHashAlg="SHA256"></ParameterGroupHash>`) {
		t.Errorf("Expected an empty parameter-group hash, got %s", decoded)
	}
	if envelope.Block.Hash != "" {
		t.Errorf("Expected no block hash, got %s", envelope.Block.Hash)
	}
}

func TestDispatchMissingRequiredParameterDoesNotSubmit(t *testing.T) {
	backend := &fakeSubmitter{resp: map[string]any{"OperationId": float64(1)}}
	dispatcher := NewDispatcher(backend)

	def := testDefinition()
	def.ScriptName = "Set Registry"
	def.Parameterlist = base64.StdEncoding.EncodeToString([]byte(schemaXML))

	_, _, err := dispatcher.Dispatch(context.Background(), def, map[string]string{"Value": "1"},
		models.ExecutionTarget{CollectionID: "SMS00001"}, testGroupID)

	var missing *MissingParameterError
	if !errors.As(err, &missing) {
		t.Fatalf("Expected MissingParameterError, got %v", err)
	}
	if missing.Parameter != "Key" {
		t.Errorf("Expected error to name Key, got %q", missing.Parameter)
	}
	if len(backend.calls) != 0 {
		t.Errorf("Expected no submit call, got %d", len(backend.calls))
	}
}

func TestDispatchRejectsUnapprovedScript(t *testing.T) {
	backend := &fakeSubmitter{}
	dispatcher := NewDispatcher(backend)

	def := testDefinition()
	def.ApprovalState = models.ApprovalPending

	_, _, err := dispatcher.Dispatch(context.Background(), def, nil,
		models.ExecutionTarget{ResourceIDs: []int64{1}}, testGroupID)

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if !strings.Contains(validation.Reason, "pending") {
		t.Errorf("Expected error to name the current state, got %q", validation.Reason)
	}
	if len(backend.calls) != 0 {
		t.Errorf("Expected no submit call, got %d", len(backend.calls))
	}
}

func TestDispatchRejectsEmptyTarget(t *testing.T) {
	dispatcher := NewDispatcher(&fakeSubmitter{})

	_, _, err := dispatcher.Dispatch(context.Background(), testDefinition(), nil,
		models.ExecutionTarget{}, testGroupID)

	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestDispatchRejectsUnknownScriptHash(t *testing.T) {
	dispatcher := NewDispatcher(&fakeSubmitter{})

	def := testDefinition()
	def.ScriptHash = ""

	_, _, err := dispatcher.Dispatch(context.Background(), def, nil,
		models.ExecutionTarget{ResourceIDs: []int64{1}}, testGroupID)

	var integrity *IntegrityUnavailableError
	if !errors.As(err, &integrity) {
		t.Fatalf("Expected IntegrityUnavailableError, got %v", err)
	}
	if !strings.Contains(integrity.Error(), "alternate channel") {
		t.Errorf("Expected remediation guidance in error, got %q", integrity.Error())
	}
}

func TestDispatchPropagatesTransportError(t *testing.T) {
	transportErr := errors.New("connection refused")
	dispatcher := NewDispatcher(&fakeSubmitter{err: transportErr})

	_, _, err := dispatcher.Dispatch(context.Background(), testDefinition(), nil,
		models.ExecutionTarget{ResourceIDs: []int64{1}}, testGroupID)

	if !errors.Is(err, transportErr) {
		t.Fatalf("Expected the transport error to propagate, got %v", err)
	}
}

func TestExtractOperationID(t *testing.T) {
	cases := []struct {
		name string
		resp map[string]any
		want int64
		ok   bool
	}{
		{"primary key", map[string]any{"OperationId": float64(7)}, 7, true},
		{"legacy casing", map[string]any{"OperationID": float64(8)}, 8, true},
		{"odata value", map[string]any{"value": float64(9)}, 9, true},
		{"return value", map[string]any{"ReturnValue": "10"}, 10, true},
		{"nested", map[string]any{"value": map[string]any{"OperationId": float64(11)}}, 11, true},
		{"primary wins", map[string]any{"OperationId": float64(1), "value": float64(2)}, 1, true},
		{"missing", map[string]any{"Status": "ok"}, 0, false},
		{"non numeric", map[string]any{"OperationId": "abc"}, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractOperationID(tc.resp)
			if tc.ok && err != nil {
				t.Fatalf("Expected id %d, got error %v", tc.want, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("Expected an error, got id %d", got)
			}
			if tc.ok && got != tc.want {
				t.Errorf("Expected id %d, got %d", tc.want, got)
			}
		})
	}
}
