// Package adminservice is the HTTP client for the management backend's
// OData-style REST surface. It covers only what the script execution core
// consumes: script lookup, the generic client-operation endpoint, and the
// operation status and per-endpoint result collections.
package adminservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joshburkard/MECMAdminService-sub003/internal/models"
	"github.com/joshburkard/MECMAdminService-sub003/internal/script"
)

const (
	scriptsPath         = "/wmi/SMS_Scripts"
	clientOperationPath = "/wmi/SMS_ClientOperation.InitiateClientOperationEx"
	executionStatusPath = "/wmi/SMS_ScriptsExecutionStatus"
	executionTaskPath   = "/wmi/SMS_ScriptsExecutionTask"
)

// Client talks to one AdminService instance. Connection lifecycle is the
// caller's concern: construct a Client per session, drop it at disconnect.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a client for the given base URL. Token may be empty when
// the transport handles authentication itself.
func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// odataList is the collection envelope every query endpoint responds with.
type odataList[T any] struct {
	Value []T `json:"value"`
}

// ResolveScript looks a script up by GUID or by name. When several versions
// match, the newest version wins. The returned definition may be partially
// populated: the read path does not always expose the hash or the parameter
// schema.
func (c *Client) ResolveScript(ctx context.Context, nameOrID string) (*models.ScriptDefinition, error) {
	var filter string
	if _, err := uuid.Parse(nameOrID); err == nil {
		filter = fmt.Sprintf("ScriptGuid eq '%s'", escapeODataString(nameOrID))
	} else {
		filter = fmt.Sprintf("ScriptName eq '%s'", escapeODataString(nameOrID))
	}

	var list odataList[models.ScriptDefinition]
	if err := c.get(ctx, scriptsPath, url.Values{"$filter": {filter}}, &list); err != nil {
		return nil, fmt.Errorf("resolve script: %w", err)
	}

	if len(list.Value) == 0 {
		return nil, &script.NotFoundError{Kind: "script", Name: nameOrID}
	}

	best := list.Value[0]
	for _, s := range list.Value[1:] {
		if compareVersions(s.ScriptVersion, best.ScriptVersion) > 0 {
			best = s
		}
	}
	return &best, nil
}

// ListScripts returns every script the backend exposes.
func (c *Client) ListScripts(ctx context.Context) ([]models.ScriptDefinition, error) {
	var list odataList[models.ScriptDefinition]
	if err := c.get(ctx, scriptsPath, nil, &list); err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}
	return list.Value, nil
}

// InitiateClientOperation submits a generic client operation and returns the
// decoded response object. Operation id extraction is the dispatcher's job;
// the response shape is not stable across backend versions.
func (c *Client) InitiateClientOperation(ctx context.Context, req script.SubmitRequest) (map[string]any, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+clientOperationPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var result map[string]any
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// QueryOperationStatus returns the operation-task records matching filter.
func (c *Client) QueryOperationStatus(ctx context.Context, filter script.StatusFilter) ([]models.OperationRecord, error) {
	var clauses []string
	if filter.OperationID != 0 {
		clauses = append(clauses, fmt.Sprintf("ClientOperationId eq %d", filter.OperationID))
	}
	if filter.CollectionID != "" {
		clauses = append(clauses, fmt.Sprintf("CollectionId eq '%s'", escapeODataString(filter.CollectionID)))
	}
	if filter.ScriptName != "" {
		clauses = append(clauses, fmt.Sprintf("ScriptName eq '%s'", escapeODataString(filter.ScriptName)))
	}

	query := url.Values{}
	if len(clauses) > 0 {
		query.Set("$filter", strings.Join(clauses, " and "))
	}

	var list odataList[models.OperationRecord]
	if err := c.get(ctx, executionStatusPath, query, &list); err != nil {
		return nil, fmt.Errorf("query operation status: %w", err)
	}
	return list.Value, nil
}

// QueryOperationResults returns every endpoint's reported result for one
// operation.
func (c *Client) QueryOperationResults(ctx context.Context, operationID int64) ([]models.ClientResult, error) {
	query := url.Values{"$filter": {fmt.Sprintf("ClientOperationId eq %d", operationID)}}

	var list odataList[models.ClientResult]
	if err := c.get(ctx, executionTaskPath, query, &list); err != nil {
		return nil, fmt.Errorf("query operation results: %w", err)
	}
	return list.Value, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.Token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	}
	req.Header.Add("Content-Type", "application/json")
}

// escapeODataString doubles single quotes for inclusion in an OData string
// literal.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// compareVersions orders script versions numerically when both parse as
// integers, lexically otherwise.
func compareVersions(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na - nb
	}
	return strings.Compare(a, b)
}
