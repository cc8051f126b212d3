package predictor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// seqKey renders a per-level sequence position as a fixed-width key.
func seqKey(level, n int) []byte {
	return []byte(fmt.Sprintf("L%d-%04d", level, n))
}

func mkFile(id uint64, lo, hi string, size uint64) FileRef {
	return FileRef{ID: id, Smallest: []byte(lo), Largest: []byte(hi), SizeBytes: size}
}

func oneLevel(files ...FileRef) *TreeSnapshot {
	var total uint64
	for _, f := range files {
		total += f.SizeBytes
	}
	return &TreeSnapshot{Levels: []LevelView{{Index: 0, Files: files, TotalBytes: total}}}
}

func TestExpandCleanCutChain(t *testing.T) {
	// a-f overlaps c-h; k-m is disjoint and must stay out.
	snap := oneLevel(
		mkFile(1, "a", "f", 10),
		mkFile(2, "c", "h", 10),
		mkFile(3, "k", "m", 10),
	)

	set, union := expandCleanCut(snap, 0, snap.Levels[0].Files[0])
	require.ElementsMatch(t, []uint64{1, 2}, set.IDs())
	require.Equal(t, "a", string(union.smallest))
	require.Equal(t, "h", string(union.largest))
}

func TestExpandCleanCutTransitive(t *testing.T) {
	// b-d pulls in c-g, whose extension then pulls in f-j.
	snap := oneLevel(
		mkFile(1, "b", "d", 10),
		mkFile(2, "c", "g", 10),
		mkFile(3, "f", "j", 10),
		mkFile(4, "x", "z", 10),
	)

	set, union := expandCleanCut(snap, 0, snap.Levels[0].Files[0])
	require.ElementsMatch(t, []uint64{1, 2, 3}, set.IDs())
	require.Equal(t, "j", string(union.largest))
}

// Closure property: no file outside the result may overlap the result's
// union range, otherwise the predicted batch would not be a clean cut.
func TestExpandCleanCutClosure(t *testing.T) {
	snap := oneLevel(
		mkFile(1, "a", "c", 10),
		mkFile(2, "b", "e", 10),
		mkFile(3, "d", "g", 10),
		mkFile(4, "h", "j", 10),
		mkFile(5, "i", "k", 10),
		mkFile(6, "p", "q", 10),
	)

	for _, start := range snap.Levels[0].Files {
		set, union := expandCleanCut(snap, 0, start)
		for _, f := range snap.Levels[0].Files {
			if set.Has(f.ID) {
				continue
			}
			require.False(t, fileRange(f).overlaps(snap.Compare, union),
				"excluded file %d overlaps union when starting from %d", f.ID, start.ID)
		}
	}
}

func TestExpandCleanCutSkipsCompacting(t *testing.T) {
	files := []FileRef{
		mkFile(1, "a", "f", 10),
		mkFile(2, "c", "h", 10),
	}
	files[1].Compacting = true
	snap := oneLevel(files...)

	set, _ := expandCleanCut(snap, 0, files[0])
	require.Equal(t, []uint64{1}, set.IDs())
}

func TestPriorityPickerResumeCursor(t *testing.T) {
	snap := oneLevel(
		mkFile(1, "a", "b", 10),
		mkFile(2, "c", "d", 30),
		mkFile(3, "e", "f", 20),
	)
	snap.Levels[0].PriorityOrder = []int{1, 2, 0} // by size descending
	snap.Levels[0].ResumeCursor = 1

	noSkip := func(uint64) bool { return false }
	f, ok := priorityPicker{}.next(snap, 0, noSkip)
	require.True(t, ok)
	require.Equal(t, uint64(3), f.ID, "cursor 1 points at order[1] = file index 2")

	// Skipping the cursor target walks forward in priority order.
	f, ok = priorityPicker{}.next(snap, 0, func(id uint64) bool { return id == 3 })
	require.True(t, ok)
	require.Equal(t, uint64(1), f.ID)
}

func TestPriorityPickerFallsBackToLargest(t *testing.T) {
	snap := oneLevel(
		mkFile(1, "a", "b", 10),
		mkFile(2, "c", "d", 50),
		mkFile(3, "e", "f", 20),
	)
	// Priority order referencing only out-of-range indices forces the
	// largest-file fallback.
	snap.Levels[0].PriorityOrder = []int{7, 9}

	f, ok := priorityPicker{}.next(snap, 0, func(uint64) bool { return false })
	require.True(t, ok)
	require.Equal(t, uint64(2), f.ID)
}

func TestExpandRoundRobin(t *testing.T) {
	noSkip := func(uint64) bool { return false }

	t.Run("stops at budget", func(t *testing.T) {
		snap := oneLevel(
			mkFile(1, "a", "b", 40),
			mkFile(2, "c", "d", 40),
			mkFile(3, "e", "f", 40),
		)
		set, _, next := expandRoundRobin(snap, 0, 0, 100, noSkip)
		require.ElementsMatch(t, []uint64{1, 2}, set.IDs())
		require.Equal(t, 2, next)
	})

	t.Run("no wrap past end", func(t *testing.T) {
		snap := oneLevel(
			mkFile(1, "a", "b", 10),
			mkFile(2, "c", "d", 10),
			mkFile(3, "e", "f", 10),
		)
		set, _, next := expandRoundRobin(snap, 0, 2, 0, noSkip)
		require.Equal(t, []uint64{3}, set.IDs())
		require.Equal(t, 3, next)
	})

	t.Run("compacting file ends batch", func(t *testing.T) {
		files := []FileRef{
			mkFile(1, "a", "b", 10),
			mkFile(2, "c", "d", 10),
			mkFile(3, "e", "f", 10),
		}
		files[1].Compacting = true
		snap := oneLevel(files...)

		set, _, next := expandRoundRobin(snap, 0, 0, 0, noSkip)
		require.Equal(t, []uint64{1}, set.IDs())
		require.Equal(t, 1, next)
	})

	t.Run("empty level keeps cursor", func(t *testing.T) {
		snap := oneLevel()
		set, _, next := expandRoundRobin(snap, 0, 5, 0, noSkip)
		require.Empty(t, set)
		require.Equal(t, 5, next)
	})
}
