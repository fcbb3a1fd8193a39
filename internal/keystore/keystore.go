// Package keystore verifies API keys against one or more JSON key files.
// Key files are operator-managed: the store only ever reads them, merging
// every configured source into one in-memory table and refreshing lazily
// so edits take effect without a restart.
package keystore

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ark-forge/mcp-eu-ai-act/internal/logging"
)

// Plan names a subscription tier. Pro keys bypass the free-tier rate limit.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// Record is one provisioned API key.
type Record struct {
	Key    string `json:"key"`
	Email  string `json:"email,omitempty"`
	Plan   Plan   `json:"plan"`
	Active bool   `json:"active"`
}

const refreshInterval = 60 * time.Second

// Store holds the merged key table. All methods are safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	paths     []string
	logger    *logging.AppLogger
	records   map[string]Record
	loadedAt  time.Time
	refreshed bool
}

// New creates a store reading from the given key file paths. Missing or
// unreadable files are tolerated: an operator may configure a path before
// provisioning any keys.
func New(logger *logging.AppLogger, paths ...string) *Store {
	return &Store{
		paths:   paths,
		logger:  logger,
		records: make(map[string]Record),
	}
}

// Verify reports the plan for key and whether the key is valid. Inactive
// and unknown keys are both invalid; callers cannot distinguish them.
func (s *Store) Verify(key string) (Plan, bool) {
	rec, ok := s.Lookup(key)
	if !ok || !rec.Active {
		return "", false
	}
	return rec.Plan, true
}

// Lookup returns the raw record for key. Unlike Verify it returns inactive
// records too, so the verify-key endpoint can report status accurately.
func (s *Store) Lookup(key string) (Record, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Record{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked()

	rec, ok := s.records[key]
	return rec, ok
}

// Count returns the number of loaded keys, forcing a refresh first.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshed = false
	s.refreshLocked()
	return len(s.records)
}

// refreshLocked reloads the key files when the cached table is stale.
// Sources are merged in order with earlier paths winning on key collision.
// A corrupt or missing source contributes nothing but never poisons the
// keys already merged from other sources.
func (s *Store) refreshLocked() {
	if s.refreshed && time.Since(s.loadedAt) < refreshInterval {
		return
	}

	merged := make(map[string]Record)
	for _, path := range s.paths {
		for _, rec := range loadFile(path, s.logger) {
			if rec.Key == "" {
				continue
			}
			if _, exists := merged[rec.Key]; !exists {
				merged[rec.Key] = rec
			}
		}
	}

	s.records = merged
	s.loadedAt = time.Now()
	s.refreshed = true
}

// loadFile parses one key file. Two layouts are accepted: a JSON array of
// records, or an object keyed by API key whose values are records (the key
// field inside the value is optional in that layout).
func loadFile(path string, logger *logging.AppLogger) []Record {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) && logger != nil {
			logger.Warn("Cannot read key file", "path", path, "error", err)
		}
		return nil
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil
	}

	if trimmed[0] == '[' {
		var list []Record
		if err := json.Unmarshal(data, &list); err != nil {
			if logger != nil {
				logger.Warn("Malformed key file ignored", "path", path, "error", err)
			}
			return nil
		}
		return list
	}

	var byKey map[string]Record
	if err := json.Unmarshal(data, &byKey); err != nil {
		if logger != nil {
			logger.Warn("Malformed key file ignored", "path", path, "error", err)
		}
		return nil
	}

	out := make([]Record, 0, len(byKey))
	for key, rec := range byKey {
		if rec.Key == "" {
			rec.Key = key
		}
		out = append(out, rec)
	}
	return out
}
