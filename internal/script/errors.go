package script

import "fmt"

// ValidationError reports caller input rejected before anything is submitted
// to the backend: conflicting targets, an unapproved script, and the like.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// MissingParameterError reports a required, non-hidden schema parameter the
// caller did not supply a value for.
type MissingParameterError struct {
	Parameter string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("required parameter %q was not supplied", e.Parameter)
}

// NotFoundError reports a script, endpoint, collection or operation the
// backend does not know.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// FormatError reports a malformed encoded document, such as a parameter
// schema that is not valid base64 or XML.
type FormatError struct {
	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s: %v", e.Detail, e.Err)
	}
	return "malformed " + e.Detail
}

func (e *FormatError) Unwrap() error { return e.Err }

// IntegrityUnavailableError reports that the script's content hash could not
// be obtained through the read path. The hash is mandatory in the dispatch
// envelope, so the caller has to route around the gap.
type IntegrityUnavailableError struct {
	ScriptName string
}

func (e *IntegrityUnavailableError) Error() string {
	return fmt.Sprintf("script hash for %q is not available from the backend read path; "+
		"dispatch a script without parameters or supply the hash obtained through an alternate channel",
		e.ScriptName)
}
