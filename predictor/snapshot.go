package predictor

import (
	"bytes"
	"sort"
)

// Comparator defines a total order over opaque user keys.
// It must return a negative value when a < b, zero when a == b and a
// positive value when a > b, mirroring bytes.Compare semantics.
type Comparator func(a, b []byte) int

// FileRef is a read-only description of one SST file as seen by the
// predictor. Values are copied out of the engine's metadata at snapshot
// time, so the predictor never aliases engine-internal structures that
// may be mutated behind its back.
//
// Invariant: Smallest <= Largest under the snapshot's comparator.
type FileRef struct {
	ID         uint64 `json:"id"`
	Smallest   []byte `json:"smallest"`
	Largest    []byte `json:"largest"`
	SizeBytes  uint64 `json:"sizeBytes"`
	Compacting bool   `json:"compacting"` // file is part of an in-flight compaction
}

// LevelView is the per-level statistics slice of a snapshot.
//
// RocksDB Reference: VersionStorageInfo exposes the same shape through
// LevelFiles() / NumLevelBytes() / CompactionScore().
// GitHub: https://github.com/facebook/rocksdb/blob/main/db/version_set.h
type LevelView struct {
	Index      int       `json:"level"`
	Score      float64   `json:"score"`
	Files      []FileRef `json:"files"`
	TotalBytes uint64    `json:"totalBytes"`

	// PriorityOrder lists file indices in the scheduler's pick order
	// (RocksDB's files_by_compaction_pri_). Empty means natural order.
	PriorityOrder []int `json:"priorityOrder,omitempty"`

	// ResumeCursor is the per-level position where the scheduler would
	// resume picking, in the style of leveldb's compaction pointer.
	ResumeCursor int `json:"resumeCursor"`
}

// Snapshot is the read-only view of the engine's level state consumed by
// one prediction round. Implementations must stay stable for the
// duration of a Predict call; the host engine is expected to hold a
// stabilizing reference while the predictor reads from it.
type Snapshot interface {
	NumLevels() int
	CompactionScore(level int) float64
	LevelFiles(level int) []FileRef
	TotalBytes(level int) uint64
	PriorityOrder(level int) []int
	ResumeCursor(level int) int

	// Compare is the engine's user-key comparator.
	Compare(a, b []byte) int
}

// TreeSnapshot is a concrete, by-value Snapshot. Hosts that do not have
// their own snapshot type can populate one of these; the generator and
// the tests build them directly.
type TreeSnapshot struct {
	Levels   []LevelView `json:"levels"`
	Comparer Comparator  `json:"-"` // nil means bytes.Compare
}

var _ Snapshot = (*TreeSnapshot)(nil)

// NumLevels returns the number of levels in the tree.
func (s *TreeSnapshot) NumLevels() int { return len(s.Levels) }

// CompactionScore returns the host-supplied score for a level, or 0 for
// an out-of-range index.
func (s *TreeSnapshot) CompactionScore(level int) float64 {
	if level < 0 || level >= len(s.Levels) {
		return 0
	}
	return s.Levels[level].Score
}

// LevelFiles returns the file list for a level, or nil for an
// out-of-range index.
func (s *TreeSnapshot) LevelFiles(level int) []FileRef {
	if level < 0 || level >= len(s.Levels) {
		return nil
	}
	return s.Levels[level].Files
}

// TotalBytes returns the total byte size of a level.
func (s *TreeSnapshot) TotalBytes(level int) uint64 {
	if level < 0 || level >= len(s.Levels) {
		return 0
	}
	return s.Levels[level].TotalBytes
}

// PriorityOrder returns the scheduler's pick order for a level, if the
// host supplied one.
func (s *TreeSnapshot) PriorityOrder(level int) []int {
	if level < 0 || level >= len(s.Levels) {
		return nil
	}
	return s.Levels[level].PriorityOrder
}

// ResumeCursor returns the per-level resume position.
func (s *TreeSnapshot) ResumeCursor(level int) int {
	if level < 0 || level >= len(s.Levels) {
		return 0
	}
	return s.Levels[level].ResumeCursor
}

// Compare applies the injected comparator, defaulting to bytes.Compare.
func (s *TreeSnapshot) Compare(a, b []byte) int {
	if s.Comparer != nil {
		return s.Comparer(a, b)
	}
	return bytes.Compare(a, b)
}

// CandidateSet is a set of file ids hypothesized for one round. Sets
// from different levels in the same round are unioned; ordering carries
// no meaning.
type CandidateSet map[uint64]struct{}

// Add inserts an id into the set.
func (cs CandidateSet) Add(id uint64) { cs[id] = struct{}{} }

// Has reports whether the id is in the set.
func (cs CandidateSet) Has(id uint64) bool {
	_, ok := cs[id]
	return ok
}

// Union folds other into cs.
func (cs CandidateSet) Union(other CandidateSet) {
	for id := range other {
		cs[id] = struct{}{}
	}
}

// IDs returns the set's members in ascending order. Sorting makes round
// results deterministic for callers and tests.
func (cs CandidateSet) IDs() []uint64 {
	ids := make([]uint64, 0, len(cs))
	for id := range cs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
