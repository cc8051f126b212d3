package predictor

// reestimateScore approximates a level's score after hypothetically
// removing the files in removed: pressure is assumed to drop in
// proportion to bytes removed,
//
//	new_score = score × (1 − removed_bytes / total_bytes)
//
// This is a heuristic, not a recomputation of the scheduler's real score
// formula. The score-per-byte form (score / total × remaining) is
// mathematically near-equivalent and only diverges when the host's score
// is not proportional to bytes; the ratio form is canonical here.
//
// Defensive clamps: a zero-byte level scores 0, and removed bytes
// exceeding the level total indicates a stale or torn snapshot, which
// also scores 0 — "stop expanding" is the worst a bad input can do.
func reestimateScore(snap Snapshot, level int, removed CandidateSet) float64 {
	if level < 0 || level >= snap.NumLevels() {
		return 0
	}
	total := snap.TotalBytes(level)
	if total == 0 {
		return 0
	}

	var removedBytes uint64
	for _, f := range snap.LevelFiles(level) {
		if removed.Has(f.ID) {
			removedBytes += f.SizeBytes
		}
	}
	if removedBytes > total {
		return 0
	}

	return snap.CompactionScore(level) * (1 - float64(removedBytes)/float64(total))
}
