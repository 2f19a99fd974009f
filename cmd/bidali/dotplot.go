package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/inodb/bidali/internal/cache"
	"github.com/inodb/bidali/internal/dotplot"
	"github.com/inodb/bidali/internal/output"
	"github.com/inodb/bidali/internal/render"
)

type dotplotFlags struct {
	output         string
	hits           string
	contigLines    bool
	shorty         float64
	shade          bool
	shadeThreshold float64
	circular       bool
	rcColor        string
	markerSize     float64
	size           float64
	useCache       bool
	noProgress     bool
}

func newDotplotCmd(a *app) *cobra.Command {
	f := &dotplotFlags{}
	defaults := render.DefaultDotPlotOptions()

	cmd := &cobra.Command{
		Use:   "dotplot <fasta1> <fasta2>",
		Short: "Draw a k-mer dot plot of two genomes",
		Long: `Probe fasta2 with k-mers taken every --spacer bases of fasta1 and mark
same-strand and reverse-complement hits. fasta1 runs down the y axis,
fasta2 along the x axis. Without -o or --hits the hits are written to stdout.`,
		Example: `  bidali dotplot reference.fa assembly.fa -o dotplot.png --contig-lines
  bidali dotplot ref.fa.gz asm.fa.gz --window 25 --spacer 5000 --hits hits.tsv
  bidali dotplot ref.fa asm.fa -o dotplot.svg --shade --cache`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDotplot(cmd.Context(), a, args[0], args[1], probeOptions(cmd.Flags()), f, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	addProbeFlags(fl)
	fl.StringVarP(&f.output, "output", "o", "", "figure file (png, svg, pdf, eps, jpg, tif)")
	fl.StringVar(&f.hits, "hits", "", "write hits as TSV to this file ('-' for stdout)")
	fl.BoolVar(&f.contigLines, "contig-lines", false, "draw contig boundaries")
	fl.Float64Var(&f.shorty, "shorty", defaults.Shorty, "fraction of the height drawn for vertical contig lines at each end (0 for full lines)")
	fl.BoolVar(&f.shade, "shade", false, "shade the diagonal expected for collinear genomes")
	fl.Float64Var(&f.shadeThreshold, "shade-threshold", defaults.ShadeThreshold, "shaded band diameter as a fraction of fasta1 length")
	fl.BoolVar(&f.circular, "circular", defaults.ShadeCircular, "also shade the wrap-around corners of circular genomes")
	fl.StringVar(&f.rcColor, "rc-color", "g", "colour of reverse-complement hits ('none' to draw them black)")
	fl.Float64Var(&f.markerSize, "marker-size", 5, "marker size in points")
	fl.Float64Var(&f.size, "size", 10, "figure width and height in inches")
	fl.BoolVar(&f.useCache, "cache", false, "reuse a cached match matrix when the inputs are unchanged")
	fl.BoolVar(&f.noProgress, "no-progress", false, "do not show a progress bar")

	return cmd
}

func addProbeFlags(fl *pflag.FlagSet) {
	fl.Int("window", dotplot.DefaultWindow, "probe length and matrix cell size in bases (config: dotplot.window)")
	fl.Int("spacer", dotplot.DefaultSpacer, "distance between probe starts in bases (config: dotplot.spacer)")
	fl.Int("workers", 0, "probe workers, 0 for the number of CPUs (config: dotplot.workers)")
}

// probeOptions reads the probing parameters from the configuration,
// overridden by flags given on the command line.
func probeOptions(fl *pflag.FlagSet) dotplot.Options {
	opts := dotplot.Options{
		Window:  viper.GetInt(keyDotplotWindow),
		Spacer:  viper.GetInt(keyDotplotSpacer),
		Workers: viper.GetInt(keyDotplotWorkers),
	}
	for name, dst := range map[string]*int{
		"window":  &opts.Window,
		"spacer":  &opts.Spacer,
		"workers": &opts.Workers,
	} {
		if fl.Changed(name) {
			*dst, _ = fl.GetInt(name)
		}
	}
	return opts
}

func runDotplot(ctx context.Context, a *app, fasta1, fasta2 string, opts dotplot.Options, f *dotplotFlags, stdout io.Writer) error {
	renderOpts := render.DefaultDotPlotOptions()
	rc, err := render.ParseColor(f.rcColor)
	if err != nil {
		return &usageError{fmt.Errorf("--rc-color: %w", err)}
	}
	renderOpts.ReverseColor = rc
	renderOpts.MarkerSize = vg.Points(f.markerSize)
	renderOpts.ContigLines = f.contigLines
	renderOpts.Shorty = f.shorty
	renderOpts.Shade = f.shade
	renderOpts.ShadeThreshold = f.shadeThreshold
	renderOpts.ShadeCircular = f.circular

	dp, err := a.buildDotPlot(ctx, opts, fasta1, fasta2, f.useCache, !f.noProgress)
	if err != nil {
		return err
	}
	rows, cols := dp.Shape()
	a.logger.Info("dot plot ready",
		zap.Int("rows", rows), zap.Int("cols", cols), zap.Int("hits", dp.Matrix.NNZ()))

	if f.hits != "" || f.output == "" {
		if err := writeHits(dp, f.hits, stdout); err != nil {
			return err
		}
	}

	if f.output != "" {
		p, err := render.DotPlot(dp, renderOpts)
		if err != nil {
			return err
		}
		size := vg.Length(f.size) * vg.Inch
		if err := render.Save(p, f.output, size, size); err != nil {
			return err
		}
		a.logger.Info("wrote figure", zap.String("path", f.output))
	}
	return nil
}

func writeHits(dp *dotplot.DotPlot, path string, stdout io.Writer) error {
	w := stdout
	if path != "" && path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create hits file: %w", err)
		}
		defer file.Close()
		w = file
	}
	hw := output.NewHitWriter(w, dp)
	if err := hw.WriteAll(); err != nil {
		return fmt.Errorf("write hits: %w", err)
	}
	return hw.Flush()
}

// buildDotPlot loads both genomes and builds their dot plot, going through
// the matrix cache when useCache is set.
func (a *app) buildDotPlot(ctx context.Context, opts dotplot.Options, fasta1, fasta2 string, useCache, progress bool) (*dotplot.DotPlot, error) {
	if err := opts.Validate(); err != nil {
		return nil, &usageError{err}
	}

	g1, g2, err := dotplot.LoadGenomes(ctx, fasta1, fasta2)
	if errors.Is(err, dotplot.ErrStdinTwice) {
		return nil, &usageError{err}
	}
	if err != nil {
		return nil, err
	}
	a.logger.Info("loaded genomes",
		zap.String("seq1", g1.Name), zap.Int("seq1_len", g1.Len()), zap.Int("seq1_contigs", len(g1.Contigs)),
		zap.String("seq2", g2.Name), zap.Int("seq2_len", g2.Len()), zap.Int("seq2_contigs", len(g2.Contigs)))

	var (
		mc  *cache.MatrixCache
		key cache.Key
	)
	if useCache {
		mc, key, err = matrixCache(fasta1, fasta2, opts)
		if err != nil {
			a.logger.Warn("matrix cache disabled", zap.Error(err))
			mc = nil
		}
	}
	if mc != nil && mc.Valid(key) {
		m, err := mc.Load(key)
		switch {
		case err != nil:
			a.logger.Warn("could not load cached matrix, rebuilding", zap.Error(err))
		default:
			rows, cols := m.Shape()
			if rows == g1.Len()/opts.Window && cols == g2.Len()/opts.Window {
				a.logger.Info("loaded cached matrix", zap.String("dir", mc.Dir()))
				return &dotplot.DotPlot{Seq1: g1, Seq2: g2, Window: opts.Window, Spacer: opts.Spacer, Matrix: m}, nil
			}
			a.logger.Warn("cached matrix shape does not match the genomes, rebuilding")
		}
	}

	bar := newCountBar(progress, "probes: ", int64(opts.ProbeCount(g1.Len())))
	if bar != nil {
		opts.Progress = bar.Increment
	}
	b, err := dotplot.NewBuilder(opts)
	if err != nil {
		return nil, &usageError{err}
	}
	b.SetLogger(a.logger)

	dp, err := b.Build(ctx, g1, g2)
	bar.Wait()
	if err != nil {
		return nil, err
	}

	if mc != nil {
		if err := mc.Write(key, dp.Matrix); err != nil {
			a.logger.Warn("could not write matrix cache", zap.Error(err))
		}
	}
	return dp, nil
}

func matrixCache(fasta1, fasta2 string, opts dotplot.Options) (*cache.MatrixCache, cache.Key, error) {
	if fasta1 == "-" || fasta2 == "-" {
		return nil, cache.Key{}, fmt.Errorf("stdin input cannot be cached")
	}
	fp1, err := cache.StatFile(fasta1)
	if err != nil {
		return nil, cache.Key{}, err
	}
	fp2, err := cache.StatFile(fasta2)
	if err != nil {
		return nil, cache.Key{}, err
	}
	dir, err := dataDir()
	if err != nil {
		return nil, cache.Key{}, err
	}
	key := cache.Key{Seq1: fp1, Seq2: fp2, Window: opts.Window, Spacer: opts.Spacer}
	return cache.NewMatrixCache(filepath.Join(dir, "cache", "dotplot")), key, nil
}
