// Copyright 2026 © The Varlog Authors
// SPDX-License-Identifier: Apache-2.0

package insights

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSynthesizeEmpty(t *testing.T) {
	a := New()
	if got := a.Synthesize(); got != "No insights have been recorded yet." {
		t.Errorf("unexpected empty memo: %q", got)
	}
}

func TestSynthesizeSingleInsight(t *testing.T) {
	a := New()
	a.Append(context.Background(), "users prefer short sessions")

	memo := a.Synthesize()
	if !strings.Contains(memo, "- users prefer short sessions") {
		t.Errorf("expected bulleted insight, got %q", memo)
	}
	// The summary line only appears with more than one insight.
	if strings.Contains(memo, "Summary:") {
		t.Errorf("single insight should not produce a summary line: %q", memo)
	}
}

func TestSynthesizeOrderAndCount(t *testing.T) {
	a := New()
	ctx := context.Background()

	entries := []string{"first", "second", "third"}
	for _, entry := range entries {
		a.Append(ctx, entry)
	}

	memo := a.Synthesize()
	for _, entry := range entries {
		if !strings.Contains(memo, "- "+entry) {
			t.Errorf("missing bullet for %q in %q", entry, memo)
		}
	}
	if strings.Index(memo, "- first") > strings.Index(memo, "- second") {
		t.Errorf("insertion order not preserved: %q", memo)
	}
	if !strings.Contains(memo, "3 key insights") {
		t.Errorf("expected count line for 3 insights, got %q", memo)
	}
	if lines := strings.Count(memo, "\n- "); lines != 3 {
		t.Errorf("expected exactly 3 bullet lines, got memo %q", memo)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	a := New()
	a.Append(context.Background(), "alpha")
	a.Append(context.Background(), "beta")

	if a.Synthesize() != a.Synthesize() {
		t.Errorf("synthesize is not deterministic")
	}
}

func TestOnChangeFires(t *testing.T) {
	a := New()
	calls := 0
	a.OnChange(func(ctx context.Context) { calls++ })

	a.Append(context.Background(), "one")
	a.Append(context.Background(), "two")

	if calls != 2 {
		t.Errorf("expected 2 change notifications, got %d", calls)
	}
}

func TestConcurrentAppends(t *testing.T) {
	a := New()
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a.Append(ctx, fmt.Sprintf("insight %d", i))
		}(i)
	}
	wg.Wait()

	if a.Len() != n {
		t.Errorf("expected %d insights, got %d", n, a.Len())
	}
	memo := a.Synthesize()
	if !strings.Contains(memo, fmt.Sprintf("%d key insights", n)) {
		t.Errorf("expected count line for %d insights", n)
	}
}
