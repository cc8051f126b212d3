package predictor

// keyRange is a closed key interval [smallest, largest] under the
// snapshot's comparator.
type keyRange struct {
	smallest []byte
	largest  []byte
}

func fileRange(f FileRef) keyRange {
	return keyRange{smallest: f.Smallest, largest: f.Largest}
}

// overlaps reports whether r and other intersect. Two closed intervals
// are disjoint exactly when one ends before the other begins.
//
// RocksDB Reference: the negated disjointness check in
// CompactionPicker::RangeOverlapWithCompaction()
// GitHub: https://github.com/facebook/rocksdb/blob/main/db/compaction/compaction_picker.cc
func (r keyRange) overlaps(cmp Comparator, other keyRange) bool {
	if cmp(r.smallest, other.largest) > 0 {
		return false // r starts after other ends
	}
	if cmp(r.largest, other.smallest) < 0 {
		return false // r ends before other starts
	}
	return true
}

// before reports whether r lies entirely before other (no overlap).
func (r keyRange) before(cmp Comparator, other keyRange) bool {
	return cmp(r.largest, other.smallest) < 0
}

// extend grows r to cover other.
func (r *keyRange) extend(cmp Comparator, other keyRange) {
	if cmp(other.smallest, r.smallest) < 0 {
		r.smallest = other.smallest
	}
	if cmp(other.largest, r.largest) > 0 {
		r.largest = other.largest
	}
}

// RangesOverlap reports whether the closed ranges [aMin,aMax] and
// [bMin,bMax] intersect under cmp.
func RangesOverlap(cmp Comparator, aMin, aMax, bMin, bMax []byte) bool {
	a := keyRange{smallest: aMin, largest: aMax}
	return a.overlaps(cmp, keyRange{smallest: bMin, largest: bMax})
}

// RangeBefore reports whether [aMin,aMax] lies entirely before
// [bMin,bMax] under cmp.
func RangeBefore(cmp Comparator, aMax, bMin []byte) bool {
	return cmp(aMax, bMin) < 0
}
