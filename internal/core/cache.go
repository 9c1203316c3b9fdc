package core

// cache.go keeps recent pipeline runs keyed by content hash.
//
// Preview and commit must see identical rows for the same bytes. Caching the
// parsed run by sha256 guarantees that consistency and saves a second parse
// when the client commits right after previewing. Entries expire after a TTL
// and are evicted lazily on access, plus on a periodic sweep.

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// cachedRun is one fully processed file, plus any recorded commit outcome
// for idempotent retries.
type cachedRun struct {
	file      *parsedFile
	report    *PreviewReport
	expiresAt time.Time

	commitMu sync.Mutex
	commits  map[string]*ImportResult // idempotency key -> recorded result
}

type runCache struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]*cachedRun
}

func newRunCache(ttl time.Duration) *runCache {
	return &runCache{ttl: ttl, m: make(map[string]*cachedRun)}
}

// ContentHash returns the cache token for a byte payload.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached run for a token, or nil when absent or expired.
func (c *runCache) Get(token string) *cachedRun {
	c.mu.Lock()
	defer c.mu.Unlock()

	run, ok := c.m[token]
	if !ok {
		return nil
	}
	if time.Now().After(run.expiresAt) {
		delete(c.m, token)
		return nil
	}
	return run
}

// Put stores a run under its token, sweeping expired entries as it goes.
func (c *runCache) Put(token string, run *cachedRun) {
	now := time.Now()
	run.expiresAt = now.Add(c.ttl)
	if run.commits == nil {
		run.commits = make(map[string]*ImportResult)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.m {
		if now.After(v.expiresAt) {
			delete(c.m, k)
		}
	}
	c.m[token] = run
}

// recordedCommit returns a previously recorded commit result for the
// idempotency key, if any.
func (r *cachedRun) recordedCommit(key string) (*ImportResult, bool) {
	if key == "" {
		return nil, false
	}
	r.commitMu.Lock()
	defer r.commitMu.Unlock()
	res, ok := r.commits[key]
	return res, ok
}

// recordCommit stores a commit result under the idempotency key.
func (r *cachedRun) recordCommit(key string, res *ImportResult) {
	if key == "" {
		return
	}
	r.commitMu.Lock()
	defer r.commitMu.Unlock()
	r.commits[key] = res
}
