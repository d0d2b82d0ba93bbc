package model

import "math"

// ComputeBestAverage derives a result's best and average metrics from its
// raw attempts, the round format and the round cutoff.
//
// Best is the minimum valid attempt, or DNF when every attempted slot is
// invalid, or AttemptSkipped when nothing was attempted at all.
//
// Average is 0 ("no average") when the cutoff was not met, the format
// expects fewer than three attempts, or fewer attempts were entered than
// the format expects. It is DNF when more than one counted attempt is
// DNF/DNS, or exactly one is and the format does not drop the worst
// attempt. Otherwise the trimmed-format average discards the best attempt
// and the worst (the DNF counts as the worst when one is present) and
// averages the remaining three; non-trimmed formats average every counted
// attempt. Division rounds to the nearest integer.
func ComputeBestAverage(attempts []int, format RoundFormat, cutoff *Cutoff) (best, average int) {
	counted := attempts
	if len(counted) > format.Attempts {
		counted = counted[:format.Attempts]
	}

	best = computeBest(counted)
	average = computeAverage(counted, format, cutoff)
	return best, average
}

func computeBest(attempts []int) int {
	best := AttemptSkipped
	attempted := false
	for _, v := range attempts {
		if v == AttemptSkipped {
			continue
		}
		attempted = true
		if v > 0 && (best <= 0 || v < best) {
			best = v
		}
	}
	if best <= 0 && attempted {
		return AttemptDNF
	}
	return best
}

// MakesCutoff reports whether the attempts satisfy the cutoff: no cutoff
// configured, or at least one valid sub-cutoff attempt within the first
// cutoff.Attempts slots.
func MakesCutoff(attempts []int, cutoff *Cutoff) bool {
	if cutoff == nil {
		return true
	}
	n := cutoff.Attempts
	if n > len(attempts) {
		n = len(attempts)
	}
	for _, v := range attempts[:n] {
		if v > 0 && v < cutoff.Value {
			return true
		}
	}
	return false
}

func computeAverage(attempts []int, format RoundFormat, cutoff *Cutoff) int {
	if !MakesCutoff(attempts, cutoff) || format.Attempts < 3 {
		return 0
	}
	entered := 0
	for _, v := range attempts {
		if v != AttemptSkipped {
			entered++
		}
	}
	if entered < format.Attempts {
		return 0
	}

	invalid := 0
	sum := 0
	bestVal, worstVal := 0, 0
	for _, v := range attempts {
		if v == AttemptSkipped {
			continue
		}
		if v <= 0 {
			invalid++
			continue
		}
		sum += v
		if bestVal == 0 || v < bestVal {
			bestVal = v
		}
		if v > worstVal {
			worstVal = v
		}
	}

	if invalid > 1 {
		return AttemptDNF
	}
	if invalid == 1 && !format.DropBestWorst {
		return AttemptDNF
	}

	if format.DropBestWorst {
		// Discard best and worst. A lone DNF/DNS is the worst attempt, so
		// only the best valid attempt is removed alongside it.
		sum -= bestVal
		if invalid == 0 {
			sum -= worstVal
		}
		return roundDiv(sum, 3)
	}
	return roundDiv(sum, format.Attempts)
}

func roundDiv(sum, n int) int {
	return int(math.Round(float64(sum) / float64(n)))
}
