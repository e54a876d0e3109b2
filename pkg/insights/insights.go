// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

// Package insights accumulates free-text insights into a process-wide,
// append-only sequence and renders them as a memo on demand.
package insights

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

const emptyMemo = "No insights have been recorded yet."

// Aggregator is the append-only insight sequence. Appends are serialized by
// a mutex so insertion order is preserved under concurrent callers; entries
// live for the process lifetime and are never removed.
type Aggregator struct {
	mu       sync.Mutex
	entries  []string
	onChange func(ctx context.Context)
}

// New creates an empty aggregator.
func New() *Aggregator {
	return &Aggregator{}
}

// OnChange registers a callback fired after every append, outside the lock.
// Used to push a change notification to the session layer.
func (a *Aggregator) OnChange(fn func(ctx context.Context)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// Append adds an insight to the end of the sequence and fires the change
// callback. Notification delivery is best-effort, not transactional.
func (a *Aggregator) Append(ctx context.Context, text string) {
	a.mu.Lock()
	a.entries = append(a.entries, text)
	notify := a.onChange
	a.mu.Unlock()

	if notify != nil {
		notify(ctx)
	}
}

// Len returns the number of recorded insights.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Synthesize renders the memo: a fixed message when empty, otherwise a
// header, one bulleted line per insight in insertion order, and a trailing
// count line when more than one insight exists. Deterministic given the
// sequence contents.
func (a *Aggregator) Synthesize() string {
	a.mu.Lock()
	entries := make([]string, len(a.entries))
	copy(entries, a.entries)
	a.mu.Unlock()

	if len(entries) == 0 {
		return emptyMemo
	}

	var b strings.Builder
	b.WriteString("📋 Analysis Memo\n\n")
	b.WriteString("Key Insights Discovered:\n\n")
	for _, entry := range entries {
		b.WriteString("- ")
		b.WriteString(entry)
		b.WriteString("\n")
	}
	if len(entries) > 1 {
		b.WriteString("\nSummary:\n")
		b.WriteString("Analysis has revealed ")
		b.WriteString(strconv.Itoa(len(entries)))
		b.WriteString(" key insights.")
	}
	return b.String()
}
