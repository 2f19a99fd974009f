package dotplot

import (
	"math"

	"github.com/inodb/bidali/internal/fasta"
)

// Boundary is a contig's extent expressed in matrix cells.
type Boundary struct {
	ID    string
	Start float64
	Stop  float64
}

// ContigLines returns the contig boundaries of both genomes in matrix units,
// rows for Seq1 and columns for Seq2. Values are rounded half to even.
func (dp *DotPlot) ContigLines() (rows, cols []Boundary) {
	return boundaries(dp.Seq1, dp.Window), boundaries(dp.Seq2, dp.Window)
}

func boundaries(g *fasta.Genome, window int) []Boundary {
	out := make([]Boundary, len(g.Contigs))
	w := float64(window)
	for i, c := range g.Contigs {
		out[i] = Boundary{
			ID:    c.ID,
			Start: math.RoundToEven(float64(c.Start) / w),
			Stop:  math.RoundToEven(float64(c.End) / w),
		}
	}
	return out
}

// Band is a shaded quadrilateral spanning X[0]..X[1] horizontally, bounded
// below by the line through (X[0], Lower[0])-(X[1], Lower[1]) and above by
// the line through (X[0], Upper[0])-(X[1], Upper[1]). Coordinates are in
// matrix units: x along Seq2, y along Seq1.
type Band struct {
	X     [2]float64
	Lower [2]float64
	Upper [2]float64
}

// Polygon returns the band's corners in drawing order.
func (b Band) Polygon() [][2]float64 {
	return [][2]float64{
		{b.X[0], b.Lower[0]},
		{b.X[1], b.Lower[1]},
		{b.X[1], b.Upper[1]},
		{b.X[0], b.Upper[0]},
	}
}

// ShadeDiagonal returns the region around the main diagonal where collinear
// genomes are expected. threshold is the fraction of the reference (Seq1)
// length used as the band diameter. With circular set, the wrap-around
// corners of a circular chromosome are shaded too.
func (dp *DotPlot) ShadeDiagonal(threshold float64, circular bool) []Band {
	w := float64(dp.Window)
	ymax := float64(dp.Seq1.Len()) / w
	xmax := float64(dp.Seq2.Len()) / w
	half := ymax * threshold / 2

	bands := []Band{{
		X:     [2]float64{0, xmax},
		Lower: [2]float64{-half, xmax - half},
		Upper: [2]float64{half, xmax + half},
	}}
	if circular {
		bands = append(bands,
			// bottom-left corner
			Band{
				X:     [2]float64{0, half},
				Lower: [2]float64{ymax - half, ymax},
				Upper: [2]float64{ymax, ymax},
			},
			// top-right corner
			Band{
				X:     [2]float64{xmax - half, xmax},
				Lower: [2]float64{0, 0},
				Upper: [2]float64{0, half},
			},
		)
	}
	return bands
}
