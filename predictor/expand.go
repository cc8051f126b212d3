package predictor

// Start-file selection and clean-cut range expansion.
//
// RocksDB Reference: LevelCompactionBuilder::SetupInitialFiles() and
// ExpandInputsToCleanCut() in db/compaction/compaction_picker.cc
// GitHub: https://github.com/facebook/rocksdb/blob/main/db/compaction/compaction_picker.cc
//
// A real merge batch must not leave a partially-overlapping file in the
// source level untouched, so any predicted batch has to satisfy the same
// closure property: expand from a start file until no excluded file
// intersects the union range of the included ones.

// startPicker chooses starting files for one level's selection. The
// policy is resolved once per Predict call from the snapshot's declared
// selection order rather than branched on inside the expander.
type startPicker interface {
	// next returns the next eligible start file, skipping compacting
	// files and anything in skip.
	next(snap Snapshot, level int, skip func(uint64) bool) (FileRef, bool)
}

// priorityPicker walks the level's priority-ordered index list from the
// resume cursor, wrapping around once, then falls back to the largest
// non-compacting file.
type priorityPicker struct{}

func (priorityPicker) next(snap Snapshot, level int, skip func(uint64) bool) (FileRef, bool) {
	files := snap.LevelFiles(level)
	if len(files) == 0 {
		return FileRef{}, false
	}

	order := snap.PriorityOrder(level)
	if len(order) == 0 {
		// No declared priority order: natural file order stands in.
		order = make([]int, len(files))
		for i := range order {
			order[i] = i
		}
	}

	cursor := snap.ResumeCursor(level)
	if cursor < 0 || cursor >= len(order) {
		cursor = 0
	}

	for i := 0; i < len(order); i++ {
		idx := order[(cursor+i)%len(order)]
		if idx < 0 || idx >= len(files) {
			continue
		}
		f := files[idx]
		if f.Compacting || skip(f.ID) {
			continue
		}
		return f, true
	}

	return largestPicker{}.next(snap, level, skip)
}

// largestPicker picks the largest non-compacting file by size, the
// fallback when the priority walk yields nothing (and the supplemental
// round strategy).
type largestPicker struct{}

func (largestPicker) next(snap Snapshot, level int, skip func(uint64) bool) (FileRef, bool) {
	var best FileRef
	found := false
	for _, f := range snap.LevelFiles(level) {
		if f.Compacting || skip(f.ID) {
			continue
		}
		if !found || f.SizeBytes > best.SizeBytes {
			best = f
			found = true
		}
	}
	return best, found
}

// expandCleanCut computes the minimal closed file set containing start:
// a fixed point over range overlap. The union range only ever grows, so
// each full scan that adds nothing proves closure.
func expandCleanCut(snap Snapshot, level int, start FileRef) (CandidateSet, keyRange) {
	set := CandidateSet{start.ID: {}}
	union := fileRange(start)
	cmp := snap.Compare

	files := snap.LevelFiles(level)
	for {
		grew := false
		for _, f := range files {
			if f.Compacting || set.Has(f.ID) {
				continue
			}
			if fileRange(f).overlaps(cmp, union) {
				set.Add(f.ID)
				union.extend(cmp, fileRange(f))
				grew = true
			}
		}
		if !grew {
			return set, union
		}
	}
}

// expandRoundRobin accumulates files in index order starting at cursor,
// only while consecutive files are non-overlapping, non-compacting and
// the running byte total stays under budget (0 = unlimited). The cursor
// does not wrap mid-batch and no range-closure expansion is performed:
// in a round-robin level the batch boundary is wherever the scheduler's
// cursor stops.
//
// RocksDB Reference: kRoundRobin handling in
// LevelCompactionBuilder::SetupInitialFiles()
func expandRoundRobin(snap Snapshot, level, cursor int, budget uint64, skip func(uint64) bool) (CandidateSet, keyRange, int) {
	files := snap.LevelFiles(level)
	if len(files) == 0 {
		return nil, keyRange{}, cursor
	}
	if cursor < 0 || cursor >= len(files) {
		cursor = 0
	}

	cmp := snap.Compare
	set := make(CandidateSet)
	var union keyRange
	var total uint64

	i := cursor
	for ; i < len(files); i++ {
		f := files[i]
		if f.Compacting || skip(f.ID) {
			break
		}
		if len(set) > 0 && fileRange(f).overlaps(cmp, fileRange(files[i-1])) {
			break // first overlap ends the batch
		}
		if budget > 0 && total+f.SizeBytes > budget && len(set) > 0 {
			break // budget excess ends the batch
		}
		if len(set) == 0 {
			union = fileRange(f)
		} else {
			union.extend(cmp, fileRange(f))
		}
		set.Add(f.ID)
		total += f.SizeBytes
	}

	if len(set) == 0 {
		return nil, keyRange{}, cursor
	}
	return set, union, i
}
