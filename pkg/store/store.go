// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package store is the SQLite adapter behind the varlog operations. Every
// call opens one physical connection, runs one statement, and closes the
// connection again. No pooling, no statement caching: call volume is low and
// per-call isolation keeps transaction scope trivial (implicit, commit on
// write).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jllopis/varlog/pkg/errors"
)

// LogTable is the table the logging and retrieval operations depend on.
const LogTable = "chat_monitoring"

const timeLayout = "2006-01-02 15:04:05"

// LogRecord is one monitored interaction. ID and Timestamp are assigned by
// the store on insert and are immutable afterwards.
type LogRecord struct {
	ID               int64
	Timestamp        time.Time
	SessionID        string
	UserID           string
	InteractionType  string
	ProbabilityClass string
	MessageContent   string
	ResponseContent  string
	ContextSummary   string
	Reasoning        string
}

// Result is the outcome of one Execute call: either a row-set (reads) or an
// affected-row count (writes and DDL).
type Result struct {
	Rows     []map[string]any
	Affected int64
	IsWrite  bool
}

// Store executes statements against a SQLite database file.
type Store struct {
	path string
}

// New creates a store for the database at path and ensures the log schema
// exists.
func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("store path is required")
	}
	s := &Store{path: path}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, errors.New(errors.CodeStoreFailure, "failed to open database", err)
	}
	return db, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS chat_monitoring (
			log_id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			interaction_type TEXT NOT NULL,
			probability_class TEXT NOT NULL CHECK(probability_class IN ('HIGH','MEDIUM','LOW')),
			message_content TEXT NOT NULL,
			response_content TEXT NOT NULL,
			context_summary TEXT,
			reasoning TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_chat_monitoring_timestamp ON chat_monitoring(timestamp);
		CREATE INDEX IF NOT EXISTS idx_chat_monitoring_session ON chat_monitoring(session_id);
	`)
	if err != nil {
		return errors.New(errors.CodeStoreFailure, "failed to ensure log schema", err)
	}
	return nil
}

// isWriteStatement classifies a statement by its leading keyword. Writes and
// DDL report an affected-row count; everything else is fetched as rows.
func isWriteStatement(sqlText string) bool {
	head := strings.ToUpper(strings.TrimSpace(sqlText))
	for _, kw := range []string{"INSERT", "UPDATE", "DELETE", "CREATE", "DROP", "ALTER"} {
		if strings.HasPrefix(head, kw) {
			return true
		}
	}
	return false
}

// Execute runs one statement. Reads return rows as column-name keyed maps in
// result order; writes return the affected-row count.
func (s *Store) Execute(ctx context.Context, sqlText string, params ...any) (*Result, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if isWriteStatement(sqlText) {
		res, err := db.ExecContext(ctx, sqlText, params...)
		if err != nil {
			return nil, errors.New(errors.CodeStoreFailure, "statement execution failed", err)
		}
		affected, _ := res.RowsAffected()
		return &Result{Affected: affected, IsWrite: true}, nil
	}

	rows, err := db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, errors.New(errors.CodeStoreFailure, "query execution failed", err)
	}
	defer rows.Close()

	mapped, err := rowsToMaps(rows)
	if err != nil {
		return nil, errors.New(errors.CodeStoreFailure, "failed to read rows", err)
	}
	return &Result{Rows: mapped}, nil
}

// AddLogRecord inserts one log record. ID and Timestamp on rec are ignored;
// the store assigns both.
func (s *Store) AddLogRecord(ctx context.Context, rec LogRecord) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.ExecContext(ctx, `
		INSERT INTO chat_monitoring (
			session_id, user_id, interaction_type, probability_class,
			message_content, response_content, context_summary, reasoning
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SessionID,
		rec.UserID,
		rec.InteractionType,
		rec.ProbabilityClass,
		rec.MessageContent,
		rec.ResponseContent,
		rec.ContextSummary,
		rec.Reasoning,
	)
	if err != nil {
		return errors.New(errors.CodeStoreFailure, "failed to save log record", err)
	}
	return nil
}

// GetLogs returns up to limit records, newest first, optionally bounded to
// [start, end] inclusive on the store-assigned timestamp.
func (s *Store) GetLogs(ctx context.Context, limit int, start, end *time.Time) ([]LogRecord, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := `
		SELECT log_id, timestamp, session_id, user_id, interaction_type,
			probability_class, message_content, response_content,
			context_summary, reasoning
		FROM chat_monitoring
	`
	var args []any
	where := ""
	addFilter := func(clause string, value any) {
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, value)
	}
	if start != nil {
		addFilter("timestamp >= ?", start.UTC().Format(timeLayout))
	}
	if end != nil {
		addFilter("timestamp <= ?", end.UTC().Format(timeLayout))
	}
	query += where + " ORDER BY timestamp DESC, log_id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.New(errors.CodeStoreFailure, "failed to retrieve logs", err)
	}
	defer rows.Close()

	var records []LogRecord
	for rows.Next() {
		var (
			rec       LogRecord
			timestamp string
		)
		if err := rows.Scan(
			&rec.ID,
			&timestamp,
			&rec.SessionID,
			&rec.UserID,
			&rec.InteractionType,
			&rec.ProbabilityClass,
			&rec.MessageContent,
			&rec.ResponseContent,
			&rec.ContextSummary,
			&rec.Reasoning,
		); err != nil {
			return nil, errors.New(errors.CodeStoreFailure, "failed to scan log record", err)
		}
		if ts, err := time.Parse(timeLayout, timestamp); err == nil {
			rec.Timestamp = ts.UTC()
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.CodeStoreFailure, "failed to retrieve logs", err)
	}
	return records, nil
}

// ListTables returns user table names, excluding SQLite internals.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	result, err := s.Execute(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if name, ok := row["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// DescribeTable returns the CREATE statement recorded for the table.
func (s *Store) DescribeTable(ctx context.Context, name string) (string, error) {
	result, err := s.Execute(ctx, "SELECT sql FROM sqlite_master WHERE type='table' AND name = ?", name)
	if err != nil {
		return "", err
	}
	if len(result.Rows) == 0 {
		return "", errors.New(errors.CodeStoreFailure, fmt.Sprintf("table %q not found", name), nil)
	}
	ddl, _ := result.Rows[0]["sql"].(string)
	return ddl, nil
}

// ClearLogs deletes every log record. Maintenance path; not exposed as an
// operation.
func (s *Store) ClearLogs(ctx context.Context) error {
	_, err := s.Execute(ctx, "DELETE FROM chat_monitoring")
	return err
}

// rowsToMaps converts sql.Rows to column-name keyed maps. []byte values are
// converted to string for readability.
func rowsToMaps(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
