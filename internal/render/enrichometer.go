package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/inodb/bidali/internal/enrich"
)

// EnrichometerOptions configures the enrichometer figure.
type EnrichometerOptions struct {
	EventColor     color.Color
	ReservoirColor color.Color
	FontSize       vg.Length
	LineWidth      vg.Length
}

// DefaultEnrichometerOptions returns the default figure settings.
func DefaultEnrichometerOptions() EnrichometerOptions {
	return EnrichometerOptions{
		EventColor:     Red,
		ReservoirColor: Red,
		FontSize:       vg.Points(12),
		LineWidth:      vg.Points(1),
	}
}

// Enrichometer draws the layout as a tube holding one line per ranked gene
// set member, next to a reservoir filled in proportion to the overlap.
func Enrichometer(l *enrich.Layout, opts EnrichometerOptions) (*plot.Plot, error) {
	if l == nil {
		return nil, fmt.Errorf("enrichometer: nil layout")
	}
	p := plot.New()
	p.HideAxes()
	p.Add(&enrichometer{layout: l, opts: opts, label: p.X.Tick.Label})

	p.X.Min, p.X.Max = l.XLim()
	p.Y.Min, p.Y.Max = l.YLim()
	if l.InvertX {
		p.X.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}
	}
	return p, nil
}

// enrichometer implements plot.Plotter and plot.DataRanger.
type enrichometer struct {
	layout *enrich.Layout
	opts   EnrichometerOptions
	label  text.Style
}

func (e *enrichometer) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin, xmax = e.layout.XLim()
	ymin, ymax = e.layout.YLim()
	return xmin, xmax, ymin, ymax
}

func (e *enrichometer) Plot(c draw.Canvas, plt *plot.Plot) {
	l := e.layout
	trX, trY := plt.Transforms(&c)
	pt := func(x, y float64) vg.Point { return vg.Point{X: trX(x), Y: trY(y)} }
	rect := func(x, y, w, h float64) []vg.Point {
		return []vg.Point{pt(x, y), pt(x+w, y), pt(x+w, y+h), pt(x, y+h), pt(x, y)}
	}
	outline := draw.LineStyle{Color: Black, Width: e.opts.LineWidth}

	eo, half := enrich.EventOffset, l.EventLength/2
	tube := rect(l.TubeLeft(), eo-half, enrich.AxisScale, l.EventLength)
	c.FillPolygon(White, tube)

	if le := l.LeadingEdge; le != nil {
		c.FillPolygon(withAlpha(e.opts.EventColor, 0.4),
			rect(l.TubeLeft(), eo-half, le.X-l.TubeLeft(), l.EventLength))
	}

	events := draw.LineStyle{Color: e.opts.EventColor, Width: e.opts.LineWidth}
	for _, ev := range l.Events {
		c.StrokeLine2(events, trX(ev.X), trY(eo-half), trX(ev.X), trY(eo+half))
	}

	reservoir := ellipse(l.R1, l.R2, eo, 72)
	res := make([]vg.Point, len(reservoir))
	for i, xy := range reservoir {
		res[i] = pt(xy[0], xy[1])
	}
	c.FillPolygon(e.opts.ReservoirColor, res)
	c.FillPolygon(White, rect(-l.R1, eo-l.R2, l.EmptyWidth, 2*l.R2))
	c.StrokeLines(outline, res)
	c.StrokeLines(outline, tube)

	// Labels are aligned in screen space, so left and right swap with the axis.
	left, right := text.XLeft, text.XRight
	if l.InvertX {
		left, right = right, left
	}
	below := eo - half - enrich.Padding
	c.FillText(e.style(left, text.YTop, 0), pt(l.TubeLeft(), below), formatG(l.Min))
	c.FillText(e.style(right, text.YTop, 0), pt(l.TubeRight(), below), formatG(l.Max))

	if u := l.Universe; u != nil {
		c.FillText(e.style(text.XCenter, text.YCenter, 0), pt(0, eo),
			fmt.Sprintf("%d\n%.3g", l.SetSize, u.PValue))
	}
	if le := l.LeadingEdge; le != nil {
		c.FillText(e.style(left, text.YCenter, 0), pt(le.X+enrich.Padding, eo),
			fmt.Sprintf("%.3g", le.PValue))
	}
	if l.Title != "" {
		c.FillText(e.style(left, text.YBottom, vg.Points(2)),
			pt(l.TubeLeft(), eo+half+enrich.Padding), l.Title)
	}
}

func (e *enrichometer) style(x text.XAlignment, y text.YAlignment, grow vg.Length) text.Style {
	sty := e.label
	sty.Color = Black
	sty.Font.Size = e.opts.FontSize + grow
	sty.XAlign = x
	sty.YAlign = y
	return sty
}

// ellipse returns n+1 points on the closed ellipse centred at (0, y0).
func ellipse(r1, r2, y0 float64, n int) [][2]float64 {
	out := make([][2]float64, n+1)
	for i := 0; i <= n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		out[i] = [2]float64{r1 * math.Cos(t), y0 + r2*math.Sin(t)}
	}
	return out
}

func withAlpha(c color.Color, alpha float64) color.Color {
	r, g, b, _ := c.RGBA()
	a := uint16(alpha * 0xffff)
	return color.NRGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: a}
}

// formatG formats v with six significant digits.
func formatG(v float64) string {
	return fmt.Sprintf("%.6g", v)
}
