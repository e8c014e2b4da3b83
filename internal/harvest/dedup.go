package harvest

import "sync"

// Deduplicator tracks known article links. Links compare as exact strings,
// the same key the store's unique index uses.
type Deduplicator struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewDeduplicator creates a Deduplicator with the given estimated capacity.
func NewDeduplicator(estimatedCapacity int) *Deduplicator {
	return &Deduplicator{
		seen: make(map[string]struct{}, estimatedCapacity),
	}
}

// Seen reports whether link is known.
func (d *Deduplicator) Seen(link string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.seen[link]
	return ok
}

// MarkSeen records link as known.
func (d *Deduplicator) MarkSeen(link string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[link] = struct{}{}
}

// Seed loads links read from the store. Empty strings are ignored.
func (d *Deduplicator) Seed(links []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range links {
		if l != "" {
			d.seen[l] = struct{}{}
		}
	}
}

// Count returns the number of known links.
func (d *Deduplicator) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.seen)
}
