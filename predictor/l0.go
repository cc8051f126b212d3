package predictor

// Level-0 special handling.
//
// L0 compaction is whole-batch by nature: the scheduler sweeps all
// eligible L0 files into the base level in one job, so predicting which
// individual L0 file ids participate carries no information. What IS
// informative is which L1 files the sweep will drag in: every
// non-compacting L1 file intersecting the union range of the
// non-compacting L0 files.
//
// RocksDB Reference: output_level_ = base_level for start_level_ == 0 in
// LevelCompactionBuilder::PickCompaction()
// GitHub: https://github.com/facebook/rocksdb/blob/main/db/compaction/compaction_picker_level.cc

// l0Targets returns the predicted L1 participants of an L0 sweep, or an
// empty set when L0 is not over trigger or has no free files.
func l0Targets(snap Snapshot, cfg Config) CandidateSet {
	set := make(CandidateSet)
	if !overTrigger(snap, 0, cfg) || snap.NumLevels() < 2 {
		return set
	}

	cmp := snap.Compare
	var union keyRange
	haveUnion := false
	for _, f := range snap.LevelFiles(0) {
		if f.Compacting {
			continue
		}
		if !haveUnion {
			union = fileRange(f)
			haveUnion = true
		} else {
			union.extend(cmp, fileRange(f))
		}
	}
	if !haveUnion {
		return set // every L0 file already in flight
	}

	for _, f := range snap.LevelFiles(1) {
		if f.Compacting {
			continue
		}
		if fileRange(f).overlaps(cmp, union) {
			set.Add(f.ID)
		}
	}
	return set
}
