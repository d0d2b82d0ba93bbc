package model

// CompareSingle is the total order over single attempt values (and, because
// derived metrics share the same encoding, over any metric value).
//
// Returns a negative number if a is better than b, positive if worse, zero
// on a tie. Any non-positive value (DNF, DNS, not computed) is worse than
// any positive value; two non-positive values tie regardless of which
// sentinel they hold. Valid values compare by magnitude, lower is better.
func CompareSingle(a, b int) int {
	switch {
	case a <= 0 && b <= 0:
		return 0
	case a <= 0:
		return 1
	case b <= 0:
		return -1
	default:
		return a - b
	}
}

// CompareAverage orders two results by their average metric. When both
// averages are valid and equal and tieBreak is set, the tie is broken by
// CompareSingle over the results' best singles. Ranking uses the tie-break;
// record comparisons do not (tied averages are genuine record ties).
func CompareAverage(a, b *Result, tieBreak bool) int {
	c := CompareSingle(a.Average, b.Average)
	if c == 0 && a.Average > 0 && tieBreak {
		return CompareSingle(a.Best, b.Best)
	}
	return c
}
