// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy enforces per-operation statement-class restrictions on
// free-form SQL operations.
//
// The check is a structural prefix test on the trimmed, case-folded statement
// text, not a parser. It guards against the common misuse of submitting the
// wrong statement class for a declared intent; it is NOT a security boundary.
// Leading comments, unusual whitespace, or multi-statement batches can slip
// past it. That limitation is part of the contract and is pinned by tests.
package policy

import (
	"strings"

	"github.com/jllopis/varlog/pkg/errors"
)

// StatementKind declares the statement class an operation accepts.
type StatementKind string

const (
	// KindNone marks operations that carry no free-form SQL.
	KindNone StatementKind = ""

	// KindRead requires the statement to begin with SELECT.
	KindRead StatementKind = "read"

	// KindWrite forbids statements beginning with SELECT.
	KindWrite StatementKind = "write"

	// KindCreateTable requires the statement to begin with CREATE TABLE.
	KindCreateTable StatementKind = "create_table"
)

// Authorize checks sqlText against the statement class declared by kind.
// It returns nil when the statement is acceptable, or a POLICY_REJECTED
// error describing the violation. KindNone always passes.
func Authorize(kind StatementKind, sqlText string) error {
	normalized := normalize(sqlText)

	switch kind {
	case KindNone:
		return nil
	case KindRead:
		if !strings.HasPrefix(normalized, "SELECT") {
			return errors.PolicyRejected("only SELECT queries are allowed for read_query")
		}
	case KindWrite:
		if strings.HasPrefix(normalized, "SELECT") {
			return errors.PolicyRejected("SELECT queries are not allowed for write_query")
		}
	case KindCreateTable:
		if !strings.HasPrefix(normalized, "CREATE TABLE") {
			return errors.PolicyRejected("only CREATE TABLE statements are allowed")
		}
	default:
		return errors.New(errors.CodeInternal, "unknown statement kind "+string(kind), nil)
	}
	return nil
}

func normalize(sqlText string) string {
	return strings.ToUpper(strings.TrimSpace(sqlText))
}
