package render

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/inodb/bidali/internal/dotplot"
)

// DotPlotOptions configures the dot plot figure.
type DotPlotOptions struct {
	// MarkerSize is the side of the square markers.
	MarkerSize vg.Length
	// ReverseColor colours reverse-complement hits. Nil draws them like
	// same-strand hits.
	ReverseColor color.Color

	// ContigLines draws contig boundaries. Vertical lines are shortened to
	// the Shorty fraction of the height at both ends; zero draws them in full.
	ContigLines bool
	Shorty      float64

	// Shade draws the diagonal band expected for collinear genomes.
	Shade          bool
	ShadeThreshold float64
	ShadeCircular  bool
	ShadeColor     color.Color
}

// DefaultDotPlotOptions returns the default figure settings.
func DefaultDotPlotOptions() DotPlotOptions {
	return DotPlotOptions{
		MarkerSize:     vg.Points(5),
		ReverseColor:   Green,
		Shorty:         0.05,
		ShadeThreshold: 0.1,
		ShadeCircular:  true,
		ShadeColor:     LightGray,
	}
}

// DotPlot draws the match matrix: Seq2 along x with its ticks and label on
// top, Seq1 along an inverted y axis so the first probes are at the top.
func DotPlot(dp *dotplot.DotPlot, opts DotPlotOptions) (*plot.Plot, error) {
	rows, cols := dp.Shape()

	p := plot.New()
	p.Title.Text = labelFor(dp.Seq2.Path, dp.Seq2.Name)
	p.Y.Label.Text = labelFor(dp.Seq1.Path, dp.Seq1.Name)

	if opts.Shade {
		for _, band := range dp.ShadeDiagonal(opts.ShadeThreshold, opts.ShadeCircular) {
			poly, err := bandPolygon(band, opts.ShadeColor)
			if err != nil {
				return nil, err
			}
			p.Add(poly)
		}
	}

	var forward, reverse plotter.XYs
	for _, pt := range dp.Points() {
		xy := plotter.XY{X: float64(pt.Col), Y: float64(pt.Row)}
		if pt.Strand == dotplot.Reverse && opts.ReverseColor != nil {
			reverse = append(reverse, xy)
		} else {
			forward = append(forward, xy)
		}
	}
	for _, series := range []struct {
		xys plotter.XYs
		clr color.Color
	}{
		{forward, Black},
		{reverse, opts.ReverseColor},
	} {
		if len(series.xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(series.xys)
		if err != nil {
			return nil, fmt.Errorf("dot plot markers: %w", err)
		}
		s.GlyphStyle.Shape = draw.BoxGlyph{}
		s.GlyphStyle.Color = series.clr
		s.GlyphStyle.Radius = opts.MarkerSize / 2
		p.Add(s)
	}

	if opts.ContigLines {
		lines, err := contigLines(dp, opts.Shorty)
		if err != nil {
			return nil, err
		}
		p.Add(lines...)
		// Contig lines replace the base-pair ticks.
		p.X.Tick.Marker = plot.ConstantTicks(nil)
		p.Y.Tick.Marker = plot.ConstantTicks(nil)
	}

	top := newTopTicks(p)
	p.Add(top)
	p.Title.Padding = top.height()
	p.X.Tick.Marker = plot.ConstantTicks(nil)

	p.X.Min, p.X.Max = 0, float64(cols)
	p.Y.Min, p.Y.Max = 0, float64(rows)
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	return p, nil
}

// topTicks draws the x axis ticks above the data area. The plot title,
// padded by height, holds the x axis label.
type topTicks struct {
	marker plot.Ticker
	label  text.Style
	line   draw.LineStyle
	length vg.Length
}

func newTopTicks(p *plot.Plot) *topTicks {
	label := p.X.Tick.Label
	label.XAlign = text.XCenter
	label.YAlign = text.YBottom
	return &topTicks{
		marker: p.X.Tick.Marker,
		label:  label,
		line:   p.X.Tick.LineStyle,
		length: p.X.Tick.Length,
	}
}

// gap separates tick labels from tick marks and from the title.
const gap = vg.Length(3)

func (t *topTicks) height() vg.Length {
	return t.length + gap + t.label.Height("0") + gap
}

func (t *topTicks) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, _ := plt.Transforms(&c)
	top := c.Max.Y
	for _, tick := range t.marker.Ticks(plt.X.Min, plt.X.Max) {
		x := trX(tick.Value)
		if x < c.Min.X || x > c.Max.X {
			continue
		}
		length := t.length
		if tick.IsMinor() {
			length /= 2
		}
		c.StrokeLine2(t.line, x, top, x, top+length)
		if !tick.IsMinor() {
			c.FillText(t.label, vg.Point{X: x, Y: top + t.length + gap}, tick.Label)
		}
	}
}

func labelFor(path, name string) string {
	if path != "" {
		return filepath.Base(path)
	}
	return name
}

func bandPolygon(b dotplot.Band, fill color.Color) (*plotter.Polygon, error) {
	corners := b.Polygon()
	xys := make(plotter.XYs, len(corners))
	for i, c := range corners {
		xys[i] = plotter.XY{X: c[0], Y: c[1]}
	}
	poly, err := plotter.NewPolygon(xys)
	if err != nil {
		return nil, fmt.Errorf("shade polygon: %w", err)
	}
	poly.Color = fill
	poly.LineStyle.Color = fill
	poly.LineStyle.Width = 0
	return poly, nil
}

func contigLines(dp *dotplot.DotPlot, shorty float64) ([]plot.Plotter, error) {
	rows, cols := dp.Shape()
	rowBounds, colBounds := dp.ContigLines()

	var segments []plotter.XYs
	for _, b := range rowBounds {
		segments = append(segments, plotter.XYs{{X: 0, Y: b.Stop}, {X: float64(cols), Y: b.Stop}})
	}
	h := float64(rows)
	for _, b := range colBounds {
		if shorty > 0 {
			segments = append(segments,
				plotter.XYs{{X: b.Stop, Y: h * (1 - shorty)}, {X: b.Stop, Y: h}},
				plotter.XYs{{X: b.Stop, Y: 0}, {X: b.Stop, Y: h * shorty}},
			)
		} else {
			segments = append(segments, plotter.XYs{{X: b.Stop, Y: 0}, {X: b.Stop, Y: h}})
		}
	}

	out := make([]plot.Plotter, 0, len(segments))
	for _, seg := range segments {
		l, err := plotter.NewLine(seg)
		if err != nil {
			return nil, fmt.Errorf("contig line: %w", err)
		}
		l.LineStyle.Color = LineBlue
		l.LineStyle.Width = vg.Points(1)
		out = append(out, l)
	}
	return out, nil
}
