package results

import (
	"math"
	"sort"
)

// LookupGrade returns the grade of the first band with min <= score <= max, or NoGrade.
func LookupGrade(scale GradingScale, score float64) string {
	for _, band := range scale.Bands {
		if band.MinScore <= score && score <= band.MaxScore {
			return band.Grade
		}
	}
	return NoGrade
}

// overlap returns the first pair of bands sharing a score, if any.
func overlap(bands []Band) (Band, Band, bool) {
	sorted := append([]Band(nil), bands...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinScore <= sorted[i-1].MaxScore {
			return sorted[i-1], sorted[i], true
		}
	}
	return Band{}, Band{}, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
