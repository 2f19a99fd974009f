package enrich

import "math"

// Score is the enrichment of a gene set among the genes ranked up to and
// including Gene.
type Score struct {
	Gene      string
	OddsRatio float64
	PValue    float64
}

// Scores sweeps a cut through the ranking (sorted by ascending value) and
// tests, at each cut, whether set members are over-represented above the
// cut with a one-sided Fisher exact test. There is one score per cut, so
// n-1 scores for n ranked genes; the last gene never closes a cut. Set
// members missing from the ranking are ignored.
func Scores(r Ranking, set GeneSet) []Score {
	sorted := r.Sorted()
	n := len(sorted)
	if n < 2 {
		return nil
	}

	members := sorted.Overlap(set)
	scores := make([]Score, 0, n-1)
	in := 0
	for i := 1; i < n; i++ {
		if set.Contains(sorted[i-1].Gene) {
			in++
		}
		table := [2][2]int{
			{in, i - in},
			{members - in, (n - i) - (members - in)},
		}
		// The table is built from counts and cannot be negative.
		odds, p, _ := FisherExact(table, Greater)
		scores = append(scores, Score{Gene: sorted[i-1].Gene, OddsRatio: odds, PValue: p})
	}
	return scores
}

// MinScore returns the first score with the smallest p-value.
func MinScore(scores []Score) (Score, bool) {
	if len(scores) == 0 {
		return Score{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.PValue < best.PValue || (math.IsNaN(best.PValue) && !math.IsNaN(s.PValue)) {
			best = s
		}
	}
	return best, true
}
