package predictor

// Trigger evaluation: decides which levels are worth predicting this
// round. Only levels 0..NumLevels-2 are compactable; the last level is
// terminal and never a source.
//
// RocksDB Reference: score computation and pick order in
// VersionStorageInfo::ComputeCompactionScore()
// GitHub: https://github.com/facebook/rocksdb/blob/main/db/version_set.cc

// overTrigger reports whether a level's score exceeds the direct
// trigger.
func overTrigger(snap Snapshot, level int, cfg Config) bool {
	return snap.CompactionScore(level) > cfg.ScoreTrigger
}

// cascadeTriggered reports whether backlog pressure from some upper
// level U < level propagates down to level: U is over trigger and every
// level l with U < l <= level carries a score above the cascade floor.
func cascadeTriggered(snap Snapshot, level int, cfg Config) bool {
	for upper := 0; upper < level; upper++ {
		if !overTrigger(snap, upper, cfg) {
			continue
		}
		clear := true
		for l := upper + 1; l <= level; l++ {
			if snap.CompactionScore(l) <= cfg.CascadeScoreFloor {
				clear = false
				break
			}
		}
		if clear {
			return true
		}
	}
	return false
}

// softL1Triggered captures L1 compaction pressure not visible in the
// score alone: L0 over trigger, L1 under trigger, and L1 showing latent
// pressure through its score, its file count, or a byte imbalance
// against L2.
func softL1Triggered(snap Snapshot, cfg Config) bool {
	if !overTrigger(snap, 0, cfg) {
		return false
	}
	if snap.CompactionScore(1) >= cfg.ScoreTrigger {
		return false
	}
	if snap.CompactionScore(1) >= cfg.SoftL1ScoreFloor {
		return true
	}
	if len(snap.LevelFiles(1)) >= cfg.SoftL1FileTrigger {
		return true
	}
	return snap.TotalBytes(1) > 2*snap.TotalBytes(2)
}

// EligibleLevels returns, in ascending order, the levels worth
// predicting this round. Level 0 may appear in the result but is always
// handled by the dedicated L0 path, never by generic per-level
// selection.
func EligibleLevels(snap Snapshot, cfg Config) []int {
	numLevels := snap.NumLevels()
	if numLevels < 2 {
		return nil
	}

	var eligible []int
	for level := 0; level <= numLevels-2; level++ {
		switch {
		case overTrigger(snap, level, cfg):
			eligible = append(eligible, level)
		case level >= 1 && cascadeTriggered(snap, level, cfg):
			eligible = append(eligible, level)
		case level == 1 && softL1Triggered(snap, cfg):
			eligible = append(eligible, level)
		}
	}
	return eligible
}
