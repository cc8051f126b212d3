package predictor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPredictor(t *testing.T, cfg Config) *Predictor {
	t.Helper()
	p, err := New(cfg, nil)
	require.NoError(t, err)
	return p
}

// twoLevelSnap is a leveled tree with L1 over trigger: three sorted L1
// files and two L2 files, the first of which overlaps L1's first file.
func twoLevelSnap() *TreeSnapshot {
	return &TreeSnapshot{Levels: []LevelView{
		{Index: 0, Score: 0.3},
		{Index: 1, Score: 1.4, TotalBytes: 300, Files: []FileRef{
			mkFile(1, "a", "c", 100),
			mkFile(2, "d", "f", 100),
			mkFile(3, "g", "i", 100),
		}},
		{Index: 2, Score: 0.4, TotalBytes: 200, Files: []FileRef{
			mkFile(10, "b", "e", 100),
			mkFile(11, "p", "r", 100),
		}},
	}}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ScoreTrigger = 0
	_, err := New(cfg, nil)
	require.Error(t, err)
	require.IsType(t, PredictError{}, err)
}

func TestPredictCalmTreeIsEmpty(t *testing.T) {
	p := newTestPredictor(t, DefaultConfig())
	snap := levels([3]float64{0.3, 2, 100}, [3]float64{0.4, 2, 100}, [3]float64{0.1, 2, 100})

	require.Empty(t, p.Predict(context.Background(), snap))
	require.Equal(t, int64(1), p.Stats().Rounds)
	require.Zero(t, p.Stats().LastRoundFiles)
}

func TestPredictLeveledWithTargetOverlap(t *testing.T) {
	p := newTestPredictor(t, DefaultConfig())
	got := p.Predict(context.Background(), twoLevelSnap())

	// Start file a-c from L1, plus the overlapping L2 file b-e. After one
	// batch the re-estimated L1 score drops under trigger, so no
	// supplemental round runs.
	require.Equal(t, []uint64{1, 10}, got)

	stats := p.Stats()
	require.Equal(t, 2, stats.LastRoundFiles)
	require.Equal(t, int64(0), stats.SupplementalRounds)
	require.Equal(t, int64(2), stats.LevelCandidates[1])
}

func TestPredictIdempotentOnIdenticalSnapshot(t *testing.T) {
	p := newTestPredictor(t, DefaultConfig())

	first := p.Predict(context.Background(), twoLevelSnap())
	second := p.Predict(context.Background(), twoLevelSnap())
	require.Equal(t, first, second)
}

func TestPredictSupplementalRounds(t *testing.T) {
	// L1 so far over trigger that one batch is not enough: 3.0 score,
	// four equal files. Each batch removes a quarter of the bytes, so
	// batches run until 3.0 * (1/4) = 0.75 <= 1.0.
	snap := &TreeSnapshot{Levels: []LevelView{
		{Index: 0, Score: 0.2},
		{Index: 1, Score: 3.0, TotalBytes: 400, Files: []FileRef{
			mkFile(1, "a", "b", 100),
			mkFile(2, "c", "d", 100),
			mkFile(3, "e", "f", 100),
			mkFile(4, "g", "h", 100),
		}},
		{Index: 2, Score: 0.1, TotalBytes: 100, Files: []FileRef{
			mkFile(10, "x", "z", 100),
		}},
	}}

	p := newTestPredictor(t, DefaultConfig())
	got := p.Predict(context.Background(), snap)

	require.Equal(t, []uint64{1, 2, 3}, got)
	require.Equal(t, int64(2), p.Stats().SupplementalRounds)
}

func TestPredictSoftL1Trigger(t *testing.T) {
	// L0 over trigger, L1 at 0.5 with 9 files: both the L0 path and the
	// soft L1 path contribute.
	l1 := make([]FileRef, 0, 9)
	for i := 0; i < 9; i++ {
		l1 = append(l1, FileRef{
			ID:        uint64(10 + i),
			Smallest:  seqKey(1, 2*i),
			Largest:   seqKey(1, 2*i+1),
			SizeBytes: 50,
		})
	}
	snap := &TreeSnapshot{Levels: []LevelView{
		{Index: 0, Score: 1.2, TotalBytes: 100, Files: []FileRef{
			mkFile(1, string(seqKey(1, 0)), string(seqKey(1, 3)), 100),
		}},
		{Index: 1, Score: 0.5, TotalBytes: 450, Files: l1},
		{Index: 2, Score: 0.2, TotalBytes: 400},
	}}

	p := newTestPredictor(t, DefaultConfig())
	got := p.Predict(context.Background(), snap)

	require.NotEmpty(t, got)
	require.NotContains(t, got, uint64(1), "L0 file id must never appear in a result")
	// The L0 union covers L1 files 10 and 11; the soft L1 path then
	// starts from the first unclaimed L1 file.
	require.Contains(t, got, uint64(10))
	require.Contains(t, got, uint64(11))
	require.Equal(t, int64(1), p.Stats().L0Rounds)
}

func TestPredictEmptyEligibleLevel(t *testing.T) {
	// Score over trigger but zero files: nothing to pick, no panic.
	snap := &TreeSnapshot{Levels: []LevelView{
		{Index: 0, Score: 0.1},
		{Index: 1, Score: 1.8, TotalBytes: 0},
		{Index: 2, Score: 0.1},
	}}
	p := newTestPredictor(t, DefaultConfig())
	require.Empty(t, p.Predict(context.Background(), snap))
}

func TestPredictRoundRobinPolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SelectionPolicy = SelectRoundRobin
	cfg.RoundRobinBudgetBytes = 150

	snap := twoLevelSnap()
	snap.Levels[1].ResumeCursor = 1

	p := newTestPredictor(t, cfg)
	got := p.Predict(context.Background(), snap)

	// Cursor 1 starts the batch at d-f; the budget admits one 100-byte
	// file and the re-estimated score 1.4*(2/3) < trigger ends the
	// level. The L2 file b-e overlaps the batch range and joins.
	require.Equal(t, []uint64{2, 10}, got)
}

func TestConfirmCompactedRetiresLedgerEntries(t *testing.T) {
	p := newTestPredictor(t, DefaultConfig())
	got := p.Predict(context.Background(), twoLevelSnap())
	require.Len(t, p.LedgerSnapshot(), len(got))

	p.ConfirmCompacted(got)
	require.Empty(t, p.LedgerSnapshot())
}

func TestReportIncorrectBlacklist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BlacklistIncorrect = true
	p := newTestPredictor(t, cfg)

	first := p.Predict(context.Background(), twoLevelSnap())
	require.Equal(t, []uint64{1, 10}, first)

	p.ReportIncorrect([]uint64{1})
	require.NotContains(t, p.LedgerSnapshot(), uint64(1))

	// File 1 is barred from start selection, so the next round starts
	// from d-f instead.
	second := p.Predict(context.Background(), twoLevelSnap())
	require.NotContains(t, second, uint64(1))
	require.Contains(t, second, uint64(2))
}

func TestReportIncorrectWithoutBlacklist(t *testing.T) {
	p := newTestPredictor(t, DefaultConfig())

	first := p.Predict(context.Background(), twoLevelSnap())
	p.ReportIncorrect(first)
	require.Empty(t, p.LedgerSnapshot())

	// Purge-only: the same files may be predicted again.
	second := p.Predict(context.Background(), twoLevelSnap())
	require.Equal(t, first, second)
}

func TestLedgerEvictionThroughPredictor(t *testing.T) {
	p := newTestPredictor(t, DefaultConfig())

	// Default eviction bound is 3: the fourth consecutive identical
	// round drops the entries.
	for i := 0; i < 3; i++ {
		p.Predict(context.Background(), twoLevelSnap())
	}
	require.Len(t, p.LedgerSnapshot(), 2)

	p.Predict(context.Background(), twoLevelSnap())
	require.Empty(t, p.LedgerSnapshot())
	require.Equal(t, int64(2), p.Stats().LedgerEvictions)
}

func TestStatsClone(t *testing.T) {
	p := newTestPredictor(t, DefaultConfig())
	p.Predict(context.Background(), twoLevelSnap())

	stats := p.Stats()
	stats.LevelCandidates[1] = 999
	require.NotEqual(t, int64(999), p.Stats().LevelCandidates[1])
}
