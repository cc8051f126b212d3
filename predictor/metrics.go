package predictor

// Stats tracks cumulative prediction activity for dashboards and tests.
// Counters are aggregate since predictor creation; LastRoundFiles is the
// most recent round only.
type Stats struct {
	Rounds             int64 `json:"rounds"`             // Predict calls completed
	PredictedFiles     int64 `json:"predictedFiles"`     // file ids returned, summed over rounds
	LastRoundFiles     int   `json:"lastRoundFiles"`     // size of the most recent round's result
	SupplementalRounds int64 `json:"supplementalRounds"` // extra expansions run because a score stayed over trigger
	L0Rounds           int64 `json:"l0Rounds"`           // rounds where the L0 path contributed
	LedgerEvictions    int64 `json:"ledgerEvictions"`    // entries dropped as noise (count over bound)
	LedgerEntries      int   `json:"ledgerEntries"`      // live entries after the most recent round

	// LevelCandidates counts candidate files per source level (the level
	// whose selection pulled them in, including its target-level
	// overlaps).
	LevelCandidates map[int]int64 `json:"levelCandidates"`
}

func newStats() Stats {
	return Stats{LevelCandidates: make(map[int]int64)}
}

// Clone creates a copy of the stats, including the per-level map.
func (s Stats) Clone() Stats {
	clone := s
	clone.LevelCandidates = make(map[int]int64, len(s.LevelCandidates))
	for level, n := range s.LevelCandidates {
		clone.LevelCandidates[level] = n
	}
	return clone
}
