// Package history keeps a local record of dispatched operations so their
// status can be polled later without remembering operation ids. It only ever
// appends what this client submitted; the backend stays authoritative.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	conn *sql.DB
}

// Dispatch is one locally recorded submission.
type Dispatch struct {
	OperationID   int64     `json:"operation_id"`
	ScriptGuid    string    `json:"script_guid"`
	ScriptName    string    `json:"script_name"`
	ScriptVersion string    `json:"script_version"`
	CollectionID  string    `json:"collection_id"`
	ResourceIDs   []int64   `json:"resource_ids"`
	DispatchedAt  time.Time `json:"dispatched_at"`
}

func NewStore(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dispatches (
		operation_id INTEGER PRIMARY KEY,
		script_guid TEXT NOT NULL,
		script_name TEXT NOT NULL,
		script_version TEXT NOT NULL,
		collection_id TEXT NOT NULL DEFAULT '',
		resource_ids TEXT NOT NULL DEFAULT '[]',
		dispatched_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dispatches_script_name ON dispatches(script_name);
	CREATE INDEX IF NOT EXISTS idx_dispatches_dispatched_at ON dispatches(dispatched_at);
	`

	_, err := s.conn.Exec(schema)
	return err
}

// RecordDispatch stores one submission. Re-recording the same operation id
// overwrites the previous row.
func (s *Store) RecordDispatch(d *Dispatch) error {
	ids, err := json.Marshal(d.ResourceIDs)
	if err != nil {
		return fmt.Errorf("marshal resource ids: %w", err)
	}

	query := `INSERT INTO dispatches (operation_id, script_guid, script_name, script_version, collection_id, resource_ids, dispatched_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)
	          ON CONFLICT(operation_id) DO UPDATE SET
	              script_guid = excluded.script_guid,
	              script_name = excluded.script_name,
	              script_version = excluded.script_version,
	              collection_id = excluded.collection_id,
	              resource_ids = excluded.resource_ids,
	              dispatched_at = excluded.dispatched_at`

	_, err = s.conn.Exec(query, d.OperationID, d.ScriptGuid, d.ScriptName, d.ScriptVersion,
		d.CollectionID, string(ids), d.DispatchedAt)
	return err
}

// ListDispatches returns the most recent submissions, newest first.
func (s *Store) ListDispatches(limit int) ([]Dispatch, error) {
	query := `SELECT operation_id, script_guid, script_name, script_version, collection_id, resource_ids, dispatched_at
	          FROM dispatches ORDER BY dispatched_at DESC LIMIT ?`

	rows, err := s.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dispatches []Dispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		dispatches = append(dispatches, *d)
	}
	return dispatches, rows.Err()
}

// GetDispatch returns one recorded submission by operation id.
func (s *Store) GetDispatch(operationID int64) (*Dispatch, error) {
	query := `SELECT operation_id, script_guid, script_name, script_version, collection_id, resource_ids, dispatched_at
	          FROM dispatches WHERE operation_id = ?`
	return scanDispatch(s.conn.QueryRow(query, operationID))
}

// LastDispatch returns the most recently recorded submission.
func (s *Store) LastDispatch() (*Dispatch, error) {
	query := `SELECT operation_id, script_guid, script_name, script_version, collection_id, resource_ids, dispatched_at
	          FROM dispatches ORDER BY dispatched_at DESC LIMIT 1`
	return scanDispatch(s.conn.QueryRow(query))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDispatch(row rowScanner) (*Dispatch, error) {
	var d Dispatch
	var ids string
	err := row.Scan(&d.OperationID, &d.ScriptGuid, &d.ScriptName, &d.ScriptVersion,
		&d.CollectionID, &ids, &d.DispatchedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ids), &d.ResourceIDs); err != nil {
		return nil, fmt.Errorf("unmarshal resource ids: %w", err)
	}
	return &d, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}
