// Package dotplot compares two genomes by probing one with fixed-stride
// k-mers and recording same-strand and reverse-complement hits in the other.
//
// Probing uses non-overlapping windows: a probe of Window bases is taken every
// Spacer bases of the first genome, and every exact occurrence in the second
// genome marks the cell (probe/Window, hit/Window). The beginning and end of
// each genome can therefore be under-sampled.
package dotplot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/bidali/internal/fasta"
)

// Default probing parameters.
const (
	DefaultWindow = 20
	DefaultSpacer = 10000
)

// Options controls how the match matrix is built.
type Options struct {
	Window  int // probe length and matrix cell size in bases
	Spacer  int // distance between consecutive probe starts
	Workers int // probe workers, 0 means runtime.NumCPU()

	// Progress, when set, is called once per probe after its hits are applied.
	Progress func()
}

// DefaultOptions returns the default probing parameters.
func DefaultOptions() Options {
	return Options{Window: DefaultWindow, Spacer: DefaultSpacer}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Window <= 0 {
		return fmt.Errorf("window must be positive, got %d", o.Window)
	}
	if o.Spacer <= 0 {
		return fmt.Errorf("spacer must be positive, got %d", o.Spacer)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", o.Workers)
	}
	return nil
}

// ProbeCount returns the number of probe starts for a sequence of length n.
func (o Options) ProbeCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + o.Spacer - 1) / o.Spacer
}

// DotPlot is the comparison of Seq1 (rows) against Seq2 (columns).
type DotPlot struct {
	Seq1   *fasta.Genome
	Seq2   *fasta.Genome
	Window int
	Spacer int
	Matrix *Matrix
}

// Builder builds dot plots.
type Builder struct {
	opts   Options
	logger *zap.Logger
}

// NewBuilder creates a builder with the given options.
func NewBuilder(opts Options) (*Builder, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Builder{opts: opts, logger: zap.NewNop()}, nil
}

// SetLogger sets the logger for progress and diagnostic messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Options returns the builder's options.
func (b *Builder) Options() Options {
	return b.opts
}

// Build probes g2 with k-mers taken from g1. Probes are searched
// concurrently but applied in probe order, so a later probe landing on the
// same cell overwrites an earlier one exactly as a sequential scan would.
func (b *Builder) Build(ctx context.Context, g1, g2 *fasta.Genome) (*DotPlot, error) {
	window, spacer := b.opts.Window, b.opts.Spacer
	m := NewMatrix(g1.Len()/window, g2.Len()/window)

	b.logger.Debug("building dot plot",
		zap.String("seq1", g1.Name),
		zap.Int("seq1_len", g1.Len()),
		zap.String("seq2", g2.Name),
		zap.Int("seq2_len", g2.Len()),
		zap.Int("window", window),
		zap.Int("spacer", spacer))

	items := make(chan probeItem, 2*max(b.opts.Workers, 1))
	go func() {
		defer close(items)
		seq := 0
		for start := 0; start < g1.Len(); start += spacer {
			select {
			case items <- probeItem{Seq: seq, Start: start}:
				seq++
			case <-ctx.Done():
				return
			}
		}
	}()

	results := parallelProbe(ctx, g1.Seq, g2.Seq, window, items, b.opts.Workers)

	skipped := 0
	err := orderedCollect(results, func(r probeResult) error {
		if r.Skipped {
			skipped++
		} else {
			for _, pos := range r.Same {
				m.Set(r.Row, pos/window, Forward)
			}
			for _, pos := range r.Reverse {
				m.Set(r.Row, pos/window, Reverse)
			}
		}
		if b.opts.Progress != nil {
			b.opts.Progress()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build dot plot: %w", err)
	}

	b.logger.Debug("dot plot built",
		zap.Int("hits", m.NNZ()),
		zap.Int("skipped_probes", skipped))

	return &DotPlot{
		Seq1:   g1,
		Seq2:   g2,
		Window: window,
		Spacer: spacer,
		Matrix: m,
	}, nil
}

// ErrStdinTwice is returned when both genomes are to be read from stdin.
var ErrStdinTwice = errors.New("only one genome can be read from stdin")

// LoadGenomes reads both FASTA files concurrently. At most one of them may
// be "-" (stdin).
func LoadGenomes(ctx context.Context, fasta1, fasta2 string) (*fasta.Genome, *fasta.Genome, error) {
	if fasta1 == "-" && fasta2 == "-" {
		return nil, nil, ErrStdinTwice
	}

	var g1, g2 *fasta.Genome
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		g1, err = fasta.LoadGenomeContext(gctx, fasta1)
		return err
	})
	g.Go(func() error {
		var err error
		g2, err = fasta.LoadGenomeContext(gctx, fasta2)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return g1, g2, nil
}

// BuildFiles loads two FASTA files and builds their dot plot.
func (b *Builder) BuildFiles(ctx context.Context, fasta1, fasta2 string) (*DotPlot, error) {
	g1, g2, err := LoadGenomes(ctx, fasta1, fasta2)
	if err != nil {
		return nil, err
	}
	b.logger.Info("loaded genomes",
		zap.String("seq1", g1.Name), zap.Int("seq1_contigs", len(g1.Contigs)),
		zap.String("seq2", g2.Name), zap.Int("seq2_contigs", len(g2.Contigs)))
	return b.Build(ctx, g1, g2)
}

// Points returns the non-zero matrix cells sorted by row and column.
func (dp *DotPlot) Points() []Point {
	return dp.Matrix.Points()
}

// Shape returns the matrix shape (rows over seq1, columns over seq2).
func (dp *DotPlot) Shape() (rows, cols int) {
	return dp.Matrix.Shape()
}
