// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

package dispatcher

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jllopis/varlog/pkg/store"
)

// contextWidth is the maximum rendered context length before truncation.
const contextWidth = 42

const timeColumnLayout = "01-02 15:04"

// truncate shortens value to limit characters, appending an ellipsis marker
// when the original was longer.
func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}

// formatLogTable renders records as a fixed-width text table with the
// columns ID, Time, Probability, Type, and Context.
func formatLogTable(records []store.LogRecord) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%-5s %-12s %-12s %-22s %-45s\n", "ID", "Time", "Probability", "Type", "Context"))
	b.WriteString(strings.Repeat("-", 99))
	b.WriteString("\n")

	for _, rec := range records {
		b.WriteString(fmt.Sprintf("%-5d %-12s %-12s %-22s %-45s\n",
			rec.ID,
			rec.Timestamp.Format(timeColumnLayout),
			rec.ProbabilityClass,
			truncate(rec.InteractionType, 20),
			truncate(rec.ContextSummary, contextWidth),
		))
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatLogDetails renders every field of every record, one block per
// record.
func formatLogDetails(records []store.LogRecord) string {
	blocks := make([]string, 0, len(records))
	for _, rec := range records {
		var b strings.Builder
		fmt.Fprintf(&b, "Log #%d (%s)\n", rec.ID, rec.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "  Session:     %s\n", rec.SessionID)
		fmt.Fprintf(&b, "  User:        %s\n", rec.UserID)
		fmt.Fprintf(&b, "  Type:        %s\n", rec.InteractionType)
		fmt.Fprintf(&b, "  Probability: %s\n", rec.ProbabilityClass)
		fmt.Fprintf(&b, "  Message:     %s\n", rec.MessageContent)
		fmt.Fprintf(&b, "  Response:    %s\n", rec.ResponseContent)
		fmt.Fprintf(&b, "  Context:     %s\n", rec.ContextSummary)
		fmt.Fprintf(&b, "  Reasoning:   %s", rec.Reasoning)
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// formatRows renders a row-set as indented JSON, which keeps map keys in a
// stable (sorted) order. An empty row-set renders as an empty list.
func formatRows(rows []map[string]any) string {
	if rows == nil {
		rows = []map[string]any{}
	}
	payload, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", rows)
	}
	return string(payload)
}
