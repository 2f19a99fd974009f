// Package enrich tests gene sets for enrichment among ranked genes with
// Fisher's exact test.
package enrich

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/combin"
)

// Alternative is the alternative hypothesis of a Fisher exact test.
type Alternative int

const (
	TwoSided Alternative = iota
	Greater
	Less
)

func (a Alternative) String() string {
	switch a {
	case TwoSided:
		return "two-sided"
	case Greater:
		return "greater"
	case Less:
		return "less"
	}
	return fmt.Sprintf("Alternative(%d)", int(a))
}

// ParseAlternative parses "two-sided", "greater" or "less".
func ParseAlternative(s string) (Alternative, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "two-sided", "two_sided", "twosided":
		return TwoSided, nil
	case "greater":
		return Greater, nil
	case "less":
		return Less, nil
	}
	return 0, fmt.Errorf("unknown alternative %q: want two-sided, greater or less", s)
}

// relErr is the tolerance used when comparing table probabilities in the
// two-sided test.
const relErr = 1 + 1e-7

// FisherExact performs Fisher's exact test on the 2x2 contingency table
// [[a, b], [c, d]]. The returned odds ratio is a*d/(b*c), +Inf when b*c is
// zero. A table with an empty row or column yields (NaN, 1).
func FisherExact(table [2][2]int, alt Alternative) (oddsRatio, pValue float64, err error) {
	a, b := table[0][0], table[0][1]
	c, d := table[1][0], table[1][1]
	if a < 0 || b < 0 || c < 0 || d < 0 {
		return 0, 0, fmt.Errorf("contingency table must be non-negative: %v", table)
	}

	if a+b == 0 || c+d == 0 || a+c == 0 || b+d == 0 {
		return math.NaN(), 1, nil
	}

	if c > 0 && b > 0 {
		oddsRatio = float64(a) * float64(d) / (float64(c) * float64(b))
	} else {
		oddsRatio = math.Inf(1)
	}

	h := hypergeom{n1: a + b, n2: c + d, n: a + c}
	switch alt {
	case Less:
		pValue = h.cdf(a)
	case Greater:
		pValue = h.sf(a - 1)
	case TwoSided:
		pValue = h.twoSided(a)
	default:
		return 0, 0, fmt.Errorf("unknown alternative %d", int(alt))
	}
	return oddsRatio, math.Min(pValue, 1), nil
}

// hypergeom is the distribution of the top-left cell given the margins:
// n1 and n2 are the row sums, n the first column sum.
type hypergeom struct {
	n1, n2, n int
}

func (h hypergeom) support() (lo, hi int) {
	return max(0, h.n-h.n2), min(h.n, h.n1)
}

func (h hypergeom) logPMF(k int) float64 {
	return combin.LogGeneralizedBinomial(float64(h.n1), float64(k)) +
		combin.LogGeneralizedBinomial(float64(h.n2), float64(h.n-k)) -
		combin.LogGeneralizedBinomial(float64(h.n1+h.n2), float64(h.n))
}

func (h hypergeom) pmf(k int) float64 {
	lo, hi := h.support()
	if k < lo || k > hi {
		return 0
	}
	return math.Exp(h.logPMF(k))
}

// cdf returns P(X <= k).
func (h hypergeom) cdf(k int) float64 {
	lo, hi := h.support()
	var p float64
	for i := lo; i <= min(k, hi); i++ {
		p += math.Exp(h.logPMF(i))
	}
	return p
}

// sf returns P(X > k).
func (h hypergeom) sf(k int) float64 {
	lo, hi := h.support()
	var p float64
	for i := max(k+1, lo); i <= hi; i++ {
		p += math.Exp(h.logPMF(i))
	}
	return p
}

// twoSided sums the probabilities of all tables at most as likely as the
// observed one.
func (h hypergeom) twoSided(k int) float64 {
	lo, hi := h.support()
	observed := h.pmf(k) * relErr
	var p float64
	for i := lo; i <= hi; i++ {
		if q := math.Exp(h.logPMF(i)); q <= observed {
			p += q
		}
	}
	return p
}
