package audit

import (
	"context"
	"sync"
)

// memoryRecorder is an in-memory Recorder used in tests.
type memoryRecorder struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRecorder creates an in-memory audit recorder.
func NewMemoryRecorder() Recorder {
	return &memoryRecorder{}
}

func (r *memoryRecorder) Record(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryRecorder) Query(_ context.Context, filter Filter) ([]Entry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	// Entries are appended in order, so walk backwards for newest first.
	results := make([]Entry, 0, limit)
	for i := len(r.entries) - 1; i >= 0 && len(results) < limit; i-- {
		if filter.Matches(r.entries[i]) {
			results = append(results, r.entries[i])
		}
	}

	return results, nil
}
