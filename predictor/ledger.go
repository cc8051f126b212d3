package predictor

import "sync"

// Ledger tracks how many consecutive rounds each file id has appeared in
// prediction results. It is auxiliary bookkeeping only: it never gates
// inclusion in a round's result, it just ages predictions so that
// long-running false positives can be recognized and dropped.
//
// Entries leave the ledger three ways: the caller confirms the file was
// compacted, the caller reports the prediction wrong, or the
// consecutive count exceeds the eviction bound and the entry is treated
// as noise. An id absent from a round's result loses its streak and is
// pruned as stale.
//
// All mutations are serialized under one mutex so feedback calls may
// arrive from a different goroutine than Predict.
type Ledger struct {
	mu         sync.Mutex
	counts     map[uint64]int
	evictAfter int
}

// NewLedger creates a ledger that evicts entries whose consecutive
// count exceeds evictAfter.
func NewLedger(evictAfter int) *Ledger {
	return &Ledger{
		counts:     make(map[uint64]int),
		evictAfter: evictAfter,
	}
}

// Observe records one round's result: every id in the result gains a
// consecutive round, ids absent from the result are pruned, and entries
// over the eviction bound are dropped. Returns the number of evicted
// entries (stale prunes excluded).
func (l *Ledger) Observe(result CandidateSet) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	for id := range l.counts {
		if !result.Has(id) {
			delete(l.counts, id) // streak broken
		}
	}

	evicted := 0
	for id := range result {
		l.counts[id]++
		if l.counts[id] > l.evictAfter {
			delete(l.counts, id)
			evicted++
		}
	}
	return evicted
}

// Remove drops ledger entries for the given ids. Used for both
// confirmed and falsified predictions.
func (l *Ledger) Remove(ids []uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range ids {
		delete(l.counts, id)
	}
}

// Snapshot returns a copy of the ledger's id → consecutive-round map.
func (l *Ledger) Snapshot() map[uint64]int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[uint64]int, len(l.counts))
	for id, n := range l.counts {
		out[id] = n
	}
	return out
}

// Len returns the number of live ledger entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.counts)
}
