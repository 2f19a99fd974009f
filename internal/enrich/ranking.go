package enrich

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// RankedGene is a gene with its ranking statistic.
type RankedGene struct {
	Gene  string
	Value float64
}

// Ranking is a list of genes with a ranking statistic, one entry per gene.
type Ranking []RankedGene

// NewRanking builds a ranking from parallel gene and value slices.
func NewRanking(genes []string, values []float64) (Ranking, error) {
	if len(genes) != len(values) {
		return nil, fmt.Errorf("ranking: %d genes but %d values", len(genes), len(values))
	}
	r := make(Ranking, len(genes))
	for i := range genes {
		r[i] = RankedGene{Gene: genes[i], Value: values[i]}
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r Ranking) validate() error {
	seen := make(map[string]bool, len(r))
	for _, g := range r {
		if seen[g.Gene] {
			return fmt.Errorf("ranking: duplicate gene %q", g.Gene)
		}
		if math.IsNaN(g.Value) {
			return fmt.Errorf("ranking: gene %q has no value", g.Gene)
		}
		seen[g.Gene] = true
	}
	return nil
}

// Sorted returns a copy ordered by ascending value. Equal values keep their
// input order.
func (r Ranking) Sorted() Ranking {
	out := make(Ranking, len(r))
	copy(out, r)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Range returns the smallest and largest value.
func (r Ranking) Range() (lo, hi float64) {
	if len(r) == 0 {
		return math.NaN(), math.NaN()
	}
	lo, hi = r[0].Value, r[0].Value
	for _, g := range r[1:] {
		lo = math.Min(lo, g.Value)
		hi = math.Max(hi, g.Value)
	}
	return lo, hi
}

// Overlap counts the ranked genes that belong to set.
func (r Ranking) Overlap(set GeneSet) int {
	n := 0
	for _, g := range r {
		if set.Contains(g.Gene) {
			n++
		}
	}
	return n
}

// LoadRanking reads a tab-separated file of gene and value columns. A first
// line whose value column is not numeric is treated as a header. Lines
// starting with '#' are skipped.
func LoadRanking(path string) (Ranking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ranking: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var (
		r          Ranking
		lineNumber int
		sawHeader  bool
	)
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("ranking line %d: expected gene and value columns", lineNumber)
		}
		gene := strings.TrimSpace(fields[0])
		value, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			if len(r) == 0 && !sawHeader {
				sawHeader = true
				continue
			}
			return nil, fmt.Errorf("ranking line %d: invalid value %q", lineNumber, fields[1])
		}
		r = append(r, RankedGene{Gene: gene, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ranking: %w", err)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}
