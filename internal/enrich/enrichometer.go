package enrich

import (
	"errors"
	"fmt"
	"math"
)

// Fixed enrichometer geometry in data units.
const (
	AxisScale   = 10.0
	EventOffset = 0.0
	Padding     = 0.1

	defaultReservoirR2 = 0.8
)

// EnrichometerOptions configures the enrichometer layout.
type EnrichometerOptions struct {
	// Universe is the number of genes in the universe. When positive, the
	// overlap is tested against it and the p-value is shown in the reservoir.
	Universe    int
	Alternative Alternative

	// ReservoirR1 and ReservoirR2 are the horizontal and vertical radii of
	// the reservoir ellipse. When both are set the event line length is
	// derived from them so the reservoir area matches the gene set size.
	// A zero R1 is derived from the event length, a zero R2 defaults to 0.8.
	ReservoirR1 float64
	ReservoirR2 float64

	// FEMinPV marks the leading edge when the smallest sweep p-value is at
	// or below it. Zero disables the sweep.
	FEMinPV float64

	Title   string
	InvertX bool
}

// DefaultEnrichometerOptions returns the defaults of the enrichometer figure.
func DefaultEnrichometerOptions() EnrichometerOptions {
	return EnrichometerOptions{
		Alternative: TwoSided,
		ReservoirR1: 1.4,
		FEMinPV:     0.05,
	}
}

// Event is a gene set member drawn on the ranking axis.
type Event struct {
	Gene string
	X    float64
}

// UniverseTest is the Fisher test of the overlap against the universe.
type UniverseTest struct {
	Universe  int
	OddsRatio float64
	PValue    float64
}

// LeadingEdge is the ranked position where enrichment is strongest.
type LeadingEdge struct {
	Gene   string
	X      float64
	PValue float64
}

// Layout is the geometry and statistics of an enrichometer figure: a tube
// spanning the normalized ranking axis with one event line per gene set
// member, ending in an elliptic reservoir that holds the members missing
// from the ranking.
type Layout struct {
	Title   string
	InvertX bool

	EventLength float64
	R1, R2      float64

	// Raw extremes of the ranking statistic, labelled under the tube ends.
	Min, Max float64

	Events []Event

	SetSize int
	Overlap int
	// EmptyWidth is the width of the reservoir's empty part, measured from
	// its left edge.
	EmptyWidth float64

	Universe    *UniverseTest
	LeadingEdge *LeadingEdge
	Scores      []Score
}

// TubeLeft returns the x coordinate where the ranking axis starts.
func (l *Layout) TubeLeft() float64 { return -AxisScale - l.R1 }

// TubeRight returns the x coordinate where the ranking axis ends.
func (l *Layout) TubeRight() float64 { return -l.R1 }

// XLim returns the horizontal data range.
func (l *Layout) XLim() (lo, hi float64) {
	return -AxisScale - l.R1 - Padding, l.R1 + Padding
}

// YLim returns the vertical data range.
func (l *Layout) YLim() (lo, hi float64) {
	h := math.Max(l.EventLength/2, l.R2)
	return EventOffset - h - Padding, EventOffset + h + Padding
}

// Normalize maps a ranking value onto the tube.
func (l *Layout) Normalize(v float64) float64 {
	return (v-l.Min)*AxisScale/(l.Max-l.Min) - AxisScale - l.R1
}

// Enrichometer computes the figure layout for set against the ranking.
func Enrichometer(r Ranking, set GeneSet, opts EnrichometerOptions) (*Layout, error) {
	if len(r) == 0 {
		return nil, errors.New("enrichometer: empty ranking")
	}
	if len(set) == 0 {
		return nil, errors.New("enrichometer: empty gene set")
	}
	lo, hi := r.Range()
	if lo == hi {
		return nil, fmt.Errorf("enrichometer: all ranking values equal %g", lo)
	}

	n, g := float64(len(r)), float64(len(set))

	eventLength := 1.0
	if opts.ReservoirR1 > 0 && opts.ReservoirR2 > 0 {
		eventLength = math.Pi * opts.ReservoirR1 * opts.ReservoirR2 * n / (AxisScale * g)
	}
	r2 := opts.ReservoirR2
	if r2 <= 0 {
		r2 = defaultReservoirR2
	}
	r1 := opts.ReservoirR1
	if r1 <= 0 {
		r1 = AxisScale * eventLength * g / (math.Pi * r2 * n)
	}

	l := &Layout{
		Title:       opts.Title,
		InvertX:     opts.InvertX,
		EventLength: eventLength,
		R1:          r1,
		R2:          r2,
		Min:         lo,
		Max:         hi,
		SetSize:     len(set),
	}

	for _, rg := range r {
		if set.Contains(rg.Gene) {
			l.Events = append(l.Events, Event{Gene: rg.Gene, X: l.Normalize(rg.Value)})
		}
	}
	l.Overlap = len(l.Events)
	filled := 1 - float64(l.Overlap)/g
	l.EmptyWidth = 2*r1 - 2*r1*filled

	if opts.Universe > 0 {
		table := [2][2]int{
			{l.Overlap, len(r)},
			{len(set) - l.Overlap, opts.Universe},
		}
		odds, p, err := FisherExact(table, opts.Alternative)
		if err != nil {
			return nil, fmt.Errorf("enrichometer: universe test: %w", err)
		}
		l.Universe = &UniverseTest{Universe: opts.Universe, OddsRatio: odds, PValue: p}
	}

	if opts.FEMinPV > 0 {
		l.Scores = Scores(r, set)
		if best, ok := MinScore(l.Scores); ok && best.PValue <= opts.FEMinPV {
			l.LeadingEdge = &LeadingEdge{
				Gene:   best.Gene,
				X:      l.Normalize(valueOf(r, best.Gene)),
				PValue: best.PValue,
			}
		}
	}

	return l, nil
}

func valueOf(r Ranking, gene string) float64 {
	for _, g := range r {
		if g.Gene == gene {
			return g.Value
		}
	}
	return math.NaN()
}
