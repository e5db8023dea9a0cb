package feed

import "sync"

// DedupStore tracks post identities already emitted within one
// aggregation run. Membership is monotonic for the lifetime of a run:
// once an identity is marked, it stays marked until Reset. State is
// never carried across independent runs.
type DedupStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupStore creates an empty store
func NewDedupStore() *DedupStore {
	return &DedupStore{seen: make(map[string]struct{})}
}

// Seen reports whether the identity has already been emitted
func (d *DedupStore) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

// Mark records the identity as emitted
func (d *DedupStore) Mark(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[id] = struct{}{}
}

// MarkIfNew atomically checks and marks the identity, returning true
// if it had not been seen before. Concurrent callers within a run can
// never both emit the same identity.
func (d *DedupStore) MarkIfNew(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	return true
}

// Len returns the number of distinct identities marked
func (d *DedupStore) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Reset clears the store at the start of a new, independent run
func (d *DedupStore) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = make(map[string]struct{})
}
