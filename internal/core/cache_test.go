package core

import (
	"testing"
	"time"
)

// ============================================================================
// Run Cache Tests
// ============================================================================

func TestContentHash_Deterministic(t *testing.T) {
	a := ContentHash([]byte("Date,Distance\n2024-01-15,5.0\n"))
	b := ContentHash([]byte("Date,Distance\n2024-01-15,5.0\n"))
	c := ContentHash([]byte("Date,Distance\n2024-01-16,5.0\n"))

	if a != b {
		t.Error("identical payloads hash differently")
	}
	if a == c {
		t.Error("different payloads share a hash")
	}
	if len(a) != 64 {
		t.Errorf("len(hash) = %d, want 64 hex chars", len(a))
	}
}

func TestRunCache_GetPut(t *testing.T) {
	cache := newRunCache(time.Minute)
	run := &cachedRun{report: &PreviewReport{}}

	if cache.Get("missing") != nil {
		t.Error("Get on empty cache returned a run")
	}

	cache.Put("tok", run)
	if got := cache.Get("tok"); got != run {
		t.Error("Get did not return the stored run")
	}
}

func TestRunCache_Expiry(t *testing.T) {
	cache := newRunCache(10 * time.Millisecond)
	cache.Put("tok", &cachedRun{report: &PreviewReport{}})

	time.Sleep(30 * time.Millisecond)

	if cache.Get("tok") != nil {
		t.Error("expired entry still returned")
	}
}

func TestCachedRun_CommitRecording(t *testing.T) {
	run := &cachedRun{commits: make(map[string]*ImportResult)}

	if _, ok := run.recordedCommit("k1"); ok {
		t.Error("recordedCommit returned a result before any commit")
	}

	res := &ImportResult{Workouts: []string{"a"}}
	run.recordCommit("k1", res)

	got, ok := run.recordedCommit("k1")
	if !ok || got != res {
		t.Error("recordedCommit did not return the stored result")
	}

	// An empty key never records: every such commit re-executes.
	run.recordCommit("", res)
	if _, ok := run.recordedCommit(""); ok {
		t.Error("empty idempotency key was recorded")
	}
}
