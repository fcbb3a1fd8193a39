// Package ratelimit enforces the free-tier quota: a fixed number of
// requests per client in a rolling 24-hour window anchored at the client's
// first request. State is written through to disk on every change so a
// restart cannot reset anyone's quota.
package ratelimit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"
)

const window = 24 * time.Hour

// Record is the persisted per-client counter.
type Record struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter tracks per-client usage. All methods are safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	path   string
	limit  int
	logger *logging.AppLogger
	usage  map[string]Record

	lastSweep time.Time

	// now is swappable in tests.
	now func() time.Time
}

// New creates a limiter persisting to path, allowing limit requests per
// client per window. Existing state on disk is loaded; a corrupt state
// file is discarded with a warning rather than blocking startup.
func New(path string, limit int, logger *logging.AppLogger) *Limiter {
	l := &Limiter{
		path:   path,
		limit:  limit,
		logger: logger,
		usage:  make(map[string]Record),
		now:    time.Now,
	}
	l.load()
	return l
}

// Check counts one request for clientID and reports whether it is within
// quota. A request over the limit is denied and not counted. The first
// request after a client's window expires starts a fresh window.
func (l *Limiter) Check(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweepLocked(now)

	rec, ok := l.usage[clientID]
	if !ok || !now.Before(rec.ResetAt) {
		rec = Record{Count: 0, ResetAt: now.Add(window)}
	}

	if rec.Count >= l.limit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: rec.ResetAt}
	}

	rec.Count++
	l.usage[clientID] = rec
	l.persistLocked()

	return Decision{
		Allowed:   true,
		Remaining: l.limit - rec.Count,
		ResetAt:   rec.ResetAt,
	}
}

// Usage reports the current state for clientID without consuming quota.
func (l *Limiter) Usage(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	rec, ok := l.usage[clientID]
	if !ok || !now.Before(rec.ResetAt) {
		return Decision{Allowed: true, Remaining: l.limit, ResetAt: now.Add(window)}
	}
	return Decision{
		Allowed:   rec.Count < l.limit,
		Remaining: max(l.limit-rec.Count, 0),
		ResetAt:   rec.ResetAt,
	}
}

// Limit returns the configured per-window quota.
func (l *Limiter) Limit() int {
	return l.limit
}

// maybeSweepLocked drops expired records at most once an hour. The sweep
// only bounds memory and file size; correctness never depends on it
// because Check resets expired windows on contact.
func (l *Limiter) maybeSweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < time.Hour {
		return
	}
	l.lastSweep = now
	for id, rec := range l.usage {
		if !now.Before(rec.ResetAt) {
			delete(l.usage, id)
		}
	}
}

func (l *Limiter) load() {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return
	}
	var usage map[string]Record
	if err := json.Unmarshal(data, &usage); err != nil {
		if l.logger != nil {
			l.logger.Warn("Discarding corrupt rate-limit state", "path", l.path, "error", err)
		}
		return
	}
	l.usage = usage
}

// persistLocked writes the full table atomically via a temp file rename.
// A persistence failure is logged and the in-memory decision stands: the
// admission path must not fail because the disk did.
func (l *Limiter) persistLocked() {
	data, err := json.MarshalIndent(l.usage, "", "  ")
	if err != nil {
		l.logger.Error("Cannot marshal rate-limit state", "error", err)
		return
	}

	tmp := l.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		l.logger.Error("Cannot create rate-limit directory", "error", err)
		return
	}
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		l.logger.Error("Cannot write rate-limit state", "path", tmp, "error", err)
		return
	}
	if err := os.Rename(tmp, l.path); err != nil {
		l.logger.Error("Cannot replace rate-limit state", "path", l.path, "error", err)
	}
}
