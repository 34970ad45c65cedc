package collage

import "sort"

// PositionCalculator calculates position shifts for moving entries
// within a collage or playlist's ordered sequence. Carried over from
// the teacher's internal/playlists/position.go near-verbatim — it is
// a pure reordering algorithm with no dependency on the teacher's flat
// data model, so the spec's collage/playlist reordering need (spec.md
// §4.8's VFS-driven position moves) reuses it unchanged beyond the
// export and the teacher-specific naming.
type PositionCalculator struct {
	sorted []int // sorted positions to move
	count  int   // total entry count
	delta  int   // movement amount (negative = up, positive = down)
}

// NewPositionCalculator creates a calculator for moving positions by delta.
func NewPositionCalculator(positions []int, count, delta int) *PositionCalculator {
	sorted := make([]int, len(positions))
	copy(sorted, positions)
	sort.Ints(sorted)
	return &PositionCalculator{sorted: sorted, count: count, delta: delta}
}

// CanMove returns true if the move is valid (within bounds). Returns
// false if there are no positions to move, delta is zero, or the move
// would go out of bounds.
func (c *PositionCalculator) CanMove() bool {
	if len(c.sorted) == 0 || c.delta == 0 {
		return false
	}
	if c.delta < 0 {
		return c.sorted[0]+c.delta >= 0
	}
	return c.sorted[len(c.sorted)-1]+c.delta < c.count
}

// NewPositions returns the new positions after the move. The input
// should be the original (unsorted) positions array.
func (c *PositionCalculator) NewPositions(originalPositions []int) []int {
	result := make([]int, len(originalPositions))
	for i, pos := range originalPositions {
		result[i] = pos + c.delta
	}
	return result
}

// ShiftRange represents a range of positions to shift.
type ShiftRange struct {
	Start int // inclusive start position
	End   int // exclusive end position
	Delta int // amount to shift (+1 or -1)
}

// ShiftRanges returns the ranges that need to be shifted to make room
// for the moved entries. Each range represents non-selected entries
// that need their position adjusted. When moving up (delta < 0):
// ranges shift down by +1. When moving down (delta > 0): ranges shift
// up by -1.
func (c *PositionCalculator) ShiftRanges() []ShiftRange {
	if !c.CanMove() {
		return nil
	}

	var ranges []ShiftRange
	if c.delta < 0 {
		for _, pos := range c.sorted {
			newPos := pos + c.delta
			ranges = append(ranges, ShiftRange{Start: newPos, End: pos, Delta: 1})
		}
	} else {
		for i := len(c.sorted) - 1; i >= 0; i-- {
			pos := c.sorted[i]
			newPos := pos + c.delta
			ranges = append(ranges, ShiftRange{Start: pos + 1, End: newPos + 1, Delta: -1})
		}
	}
	return ranges
}

// SortedPositions returns the sorted positions for iteration.
func (c *PositionCalculator) SortedPositions() []int {
	return c.sorted
}
