package interview

import (
	"sync"

	"github.com/jinzhu/copier"
)

// turnHistory retains the session's resolved turns in resolution order. The
// active turn is never in the history; records are append-only.
type turnHistory struct {
	mu      sync.RWMutex
	records []TurnRecord
}

// Push adds a resolved turn to the stored records
func (t *turnHistory) Push(record TurnRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, record)
}

func (t *turnHistory) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Values is an iterator that goes over all the stored records starting from
// the earliest towards the latest
func (t *turnHistory) Values(yield func(TurnRecord) bool) {
	for _, record := range t.Snapshot() {
		if !yield(record) {
			return
		}
	}
}

// Snapshot returns a deep copy of the stored records, safe to hand out to
// callers while turns keep resolving.
func (t *turnHistory) Snapshot() []TurnRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	records := []TurnRecord{}
	if err := copier.CopyWithOption(&records, t.records, copier.Option{DeepCopy: true}); err != nil {
		// Fall back to a shallow copy; the score pointer is the only shared
		// field and callers treat it as read-only.
		records = make([]TurnRecord, len(t.records))
		copy(records, t.records)
	}
	return records
}
