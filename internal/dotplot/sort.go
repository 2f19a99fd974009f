package dotplot

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inodb/bidali/internal/dna"
	"github.com/inodb/bidali/internal/fasta"
)

// ContigPlacement is a Seq2 contig positioned against the reference.
// Positions are medians over the contig's probe hits, in bases.
type ContigPlacement struct {
	Contig  string
	Seq1Pos float64
	Seq2Pos float64
	Strand  float64
	Hits    int
}

// Reversed reports whether the contig fits the reference better as its
// reverse complement.
func (p ContigPlacement) Reversed() bool {
	return p.Strand == float64(Reverse)
}

// SortByReference orders the Seq2 contigs by the median reference position
// of their probe hits. Contigs without hits are left out.
func (dp *DotPlot) SortByReference() ([]ContigPlacement, error) {
	type acc struct {
		seq1, seq2, strand []float64
	}
	groups := make(map[string]*acc)

	for _, p := range dp.Matrix.Points() {
		seq2Pos := p.Col * dp.Window
		c, ok := dp.Seq2.ContigAt(seq2Pos)
		if !ok {
			return nil, fmt.Errorf("no contig for position %d in %s", seq2Pos, dp.Seq2.Name)
		}
		a, ok := groups[c.ID]
		if !ok {
			a = &acc{}
			groups[c.ID] = a
		}
		a.seq1 = append(a.seq1, float64(p.Row*dp.Window))
		a.seq2 = append(a.seq2, float64(seq2Pos))
		a.strand = append(a.strand, float64(p.Strand))
	}

	placements := make([]ContigPlacement, 0, len(groups))
	for id, a := range groups {
		placements = append(placements, ContigPlacement{
			Contig:  id,
			Seq1Pos: median(a.seq1),
			Seq2Pos: median(a.seq2),
			Strand:  median(a.strand),
			Hits:    len(a.seq1),
		})
	}

	// Group keys come out name-ordered; ties on the reference position keep
	// that order.
	sort.Slice(placements, func(i, j int) bool {
		return placements[i].Contig < placements[j].Contig
	})
	sort.SliceStable(placements, func(i, j int) bool {
		return placements[i].Seq1Pos < placements[j].Seq1Pos
	})
	return placements, nil
}

// median returns the middle value of xs, averaging the two middle values
// for even lengths. xs is sorted in place.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

// WriteSortedGenome writes the Seq2 records in reference order with their
// full headers. Records whose placement is reversed are written as their
// reverse complement with " [REV]" appended to the header. records are the
// original Seq2 FASTA records.
func WriteSortedGenome(w io.Writer, records []fasta.Record, placements []ContigPlacement) error {
	byID := make(map[string]fasta.Record, len(records))
	for _, r := range records {
		byID[r.ID] = r
	}

	fw := fasta.NewWriter(w)
	for _, p := range placements {
		r, ok := byID[p.Contig]
		if !ok {
			return fmt.Errorf("contig %q not found in records", p.Contig)
		}
		out := r
		if p.Reversed() {
			out.Description = strings.TrimSpace(r.Description + " [REV]")
			out.Seq = dna.RevComp(r.Seq)
		}
		if err := fw.Write(out); err != nil {
			return fmt.Errorf("write %s: %w", r.ID, err)
		}
	}
	return fw.Flush()
}
