package models

import "time"

// ApprovalState is the lifecycle gate for a managed script. Only approved
// scripts may be dispatched to endpoints.
type ApprovalState int

const (
	ApprovalUnapproved ApprovalState = iota
	ApprovalPending
	ApprovalApproved
	ApprovalDisabled
)

func (s ApprovalState) String() string {
	switch s {
	case ApprovalUnapproved:
		return "unapproved"
	case ApprovalPending:
		return "pending"
	case ApprovalApproved:
		return "approved"
	case ApprovalDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// ScriptTypePowerShell is the engine tag the backend assigns to PowerShell
// scripts. It is the only engine the remote agent currently runs.
const ScriptTypePowerShell = 0

// ScriptDefinition is the backend's view of a managed script. ScriptHash and
// Parameterlist may be empty when the read path does not expose them.
type ScriptDefinition struct {
	ScriptGuid     string        `json:"ScriptGuid"`
	ScriptName     string        `json:"ScriptName"`
	ScriptVersion  string        `json:"ScriptVersion"`
	ScriptType     int           `json:"ScriptType"`
	ApprovalState  ApprovalState `json:"ApprovalState"`
	ScriptHash     string        `json:"ScriptHash"`
	Parameterlist  string        `json:"Parameterlist"`
	LastUpdateTime time.Time     `json:"LastUpdateTime,omitempty"`
}

// ParameterSpec is one declared parameter from a script's decoded schema.
type ParameterSpec struct {
	Name         string
	Type         string
	Required     bool
	Hidden       bool
	DefaultValue string
}

// ParameterAssignment is one resolved name/value pair bound to an
// invocation's shared parameter group.
type ParameterAssignment struct {
	GroupID string
	Name    string
	Type    string
	Value   string
}
