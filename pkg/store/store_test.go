// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "varlog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func sampleRecord(session string, class string) LogRecord {
	return LogRecord{
		SessionID:        session,
		UserID:           "u1",
		InteractionType:  "technical_inquiry",
		ProbabilityClass: class,
		MessageContent:   "how does the scheduler work?",
		ResponseContent:  "it polls the queue",
		ContextSummary:   "scheduler internals discussion",
		Reasoning:        "unusual depth for a first question",
	}
}

func TestAddAndGetLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddLogRecord(ctx, sampleRecord("20240124_u1_001", "LOW")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.AddLogRecord(ctx, sampleRecord("20240124_u1_002", "MEDIUM")); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	records, err := s.GetLogs(ctx, 10, nil, nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	// Newest first: identical timestamps fall back to descending log_id.
	if records[0].SessionID != "20240124_u1_002" {
		t.Errorf("expected newest record first, got %s", records[0].SessionID)
	}
	if records[0].ID <= records[1].ID {
		t.Errorf("expected descending ids, got %d then %d", records[0].ID, records[1].ID)
	}

	rec := records[1]
	if rec.ProbabilityClass != "LOW" {
		t.Errorf("expected probability class LOW, got %s", rec.ProbabilityClass)
	}
	if rec.MessageContent != "how does the scheduler work?" {
		t.Errorf("message content mismatch: %q", rec.MessageContent)
	}
	if rec.Timestamp.IsZero() {
		t.Errorf("expected store-assigned timestamp")
	}
}

func TestGetLogsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.AddLogRecord(ctx, sampleRecord("20240124_u1_001", "MEDIUM")); err != nil {
			t.Fatalf("add failed: %v", err)
		}
	}

	records, err := s.GetLogs(ctx, 3, nil, nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("expected 3 records, got %d", len(records))
	}
}

func TestGetLogsDateFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddLogRecord(ctx, sampleRecord("20240124_u1_001", "LOW")); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	records, err := s.GetLogs(ctx, 10, &past, &future)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record inside window, got %d", len(records))
	}

	records, err = s.GetLogs(ctx, 10, &future, nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected 0 records after future start, got %d", len(records))
	}
}

func TestAddLogRecordRejectsBadClass(t *testing.T) {
	s := newTestStore(t)

	// The CHECK constraint backs up the validator: the store itself refuses
	// classes outside HIGH/MEDIUM/LOW.
	err := s.AddLogRecord(context.Background(), sampleRecord("20240124_u1_001", "EXTREME"))
	if err == nil {
		t.Errorf("expected constraint violation for invalid probability class")
	}
}

func TestExecuteClassification(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, err := s.Execute(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !result.IsWrite {
		t.Errorf("CREATE should classify as write")
	}

	result, err = s.Execute(ctx, "INSERT INTO notes (body) VALUES ('hello')")
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if !result.IsWrite || result.Affected != 1 {
		t.Errorf("expected write with 1 affected row, got %+v", result)
	}

	result, err = s.Execute(ctx, "SELECT id, body FROM notes")
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if result.IsWrite {
		t.Errorf("SELECT should classify as read")
	}
	if len(result.Rows) != 1 || result.Rows[0]["body"] != "hello" {
		t.Errorf("unexpected rows: %v", result.Rows)
	}

	result, err = s.Execute(ctx, "delete from notes")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !result.IsWrite || result.Affected != 1 {
		t.Errorf("expected delete to affect 1 row, got %+v", result)
	}
}

func TestExecuteReportsStoreFailure(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Execute(context.Background(), "SELECT * FROM no_such_table")
	if err == nil {
		t.Errorf("expected failure for missing table")
	}
}

func TestListAndDescribeTables(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Execute(ctx, "CREATE TABLE aux (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	names, err := s.ListTables(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	found := map[string]bool{}
	for _, name := range names {
		found[name] = true
	}
	if !found[LogTable] || !found["aux"] {
		t.Errorf("expected %s and aux in %v", LogTable, names)
	}

	ddl, err := s.DescribeTable(ctx, LogTable)
	if err != nil {
		t.Fatalf("describe failed: %v", err)
	}
	if !strings.Contains(strings.ToUpper(ddl), "CREATE TABLE") {
		t.Errorf("expected creation statement, got %q", ddl)
	}

	if _, err := s.DescribeTable(ctx, "ghost"); err == nil {
		t.Errorf("expected error for unknown table")
	}
}

func TestClearLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddLogRecord(ctx, sampleRecord("20240124_u1_001", "LOW")); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := s.ClearLogs(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	records, err := s.GetLogs(ctx, 10, nil, nil)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty log after clear, got %d records", len(records))
	}
}

func TestIsWriteStatement(t *testing.T) {
	tests := []struct {
		sql     string
		isWrite bool
	}{
		{"SELECT 1", false},
		{"  select * from t", false},
		{"PRAGMA table_info('t')", false},
		{"INSERT INTO t VALUES (1)", true},
		{"update t set a=1", true},
		{"DELETE FROM t", true},
		{"CREATE TABLE t (id INTEGER)", true},
		{"DROP TABLE t", true},
		{"ALTER TABLE t ADD COLUMN b TEXT", true},
	}

	for _, tt := range tests {
		if got := isWriteStatement(tt.sql); got != tt.isWrite {
			t.Errorf("isWriteStatement(%q) = %v, expected %v", tt.sql, got, tt.isWrite)
		}
	}
}
