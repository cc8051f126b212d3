package predictor

// targetFiles returns every non-compacting file in targetLevel whose key
// range intersects union. Empty when the source selection was empty or
// the target level is out of bounds.
//
// RocksDB Reference: SetupOtherInputs() overlap gathering in
// db/compaction/compaction_picker.cc
func targetFiles(snap Snapshot, targetLevel int, union keyRange, haveUnion bool) CandidateSet {
	set := make(CandidateSet)
	if !haveUnion || targetLevel < 0 || targetLevel >= snap.NumLevels() {
		return set
	}

	cmp := snap.Compare
	for _, f := range snap.LevelFiles(targetLevel) {
		if f.Compacting {
			continue
		}
		if fileRange(f).overlaps(cmp, union) {
			set.Add(f.ID)
		}
	}
	return set
}
