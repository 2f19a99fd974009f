package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/inodb/bidali/internal/enrich"
	"github.com/inodb/bidali/internal/output"
	"github.com/inodb/bidali/internal/render"
)

type enrichFlags struct {
	universe    int
	alternative string
	r1, r2      float64
	title       string
	invertX     bool
	output      string
	scores      string
	column      string
	width       float64
	height      float64
}

func newEnrichCmd(a *app) *cobra.Command {
	f := &enrichFlags{}
	defaults := enrich.DefaultEnrichometerOptions()

	cmd := &cobra.Command{
		Use:   "enrich <ranking.tsv> <geneset>",
		Short: "Test a gene set against a ranked gene list and draw an enrichometer",
		Long: `Read a ranking (gene and value per line) and a gene set (one gene per line,
or a TSV column selected with --column). The set members are placed along
the ranking, the overlap fills the reservoir, and a Fisher exact sweep over
the ranking marks the leading edge when its best p-value is at most
--feminpv.`,
		Example: `  bidali enrich ranking.tsv mycn_targets.txt -o enrichometer.png --universe 20000
  bidali enrich ranking.tsv cancerGeneList.tsv --column "Hugo Symbol" --scores sweep.tsv`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnrich(a, args[0], args[1], f, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.IntVar(&f.universe, "universe", 0, "number of genes in the universe; tests the overlap when set")
	fl.StringVar(&f.alternative, "alternative", defaults.Alternative.String(), "alternative hypothesis of the universe test: two-sided, greater or less")
	fl.Float64("feminpv", defaults.FEMinPV, "mark the leading edge when the best sweep p-value is at or below this (0 disables)")
	viper.BindPFlag(keyEnrichFEMinPV, fl.Lookup("feminpv"))
	fl.Float64Var(&f.r1, "r1", defaults.ReservoirR1, "horizontal reservoir radius (0 derives it from the event length)")
	fl.Float64Var(&f.r2, "r2", 0, "vertical reservoir radius (0 for the default)")
	fl.StringVar(&f.title, "title", "", "figure title")
	fl.BoolVar(&f.invertX, "invert-x", false, "draw the ranking from high to low")
	fl.StringVarP(&f.output, "output", "o", "", "figure file (png, svg, pdf, eps, jpg, tif)")
	fl.StringVar(&f.scores, "scores", "", "write the enrichment sweep as TSV to this file ('-' for stdout)")
	fl.StringVar(&f.column, "column", "", "gene set column name when the gene set is a TSV with a header")
	fl.Float64Var(&f.width, "width", 8, "figure width in inches")
	fl.Float64Var(&f.height, "height", 2, "figure height in inches")

	return cmd
}

func runEnrich(a *app, rankingPath, setPath string, f *enrichFlags, stdout io.Writer) error {
	alt, err := enrich.ParseAlternative(f.alternative)
	if err != nil {
		return &usageError{err}
	}

	ranking, err := enrich.LoadRanking(rankingPath)
	if err != nil {
		return err
	}
	set, err := enrich.LoadGeneSet(setPath, f.column)
	if err != nil {
		return err
	}
	a.logger.Debug("loaded inputs", zap.Int("ranked", len(ranking)), zap.Int("set", len(set)))

	opts := enrich.EnrichometerOptions{
		Universe:    f.universe,
		Alternative: alt,
		ReservoirR1: f.r1,
		ReservoirR2: f.r2,
		FEMinPV:     viper.GetFloat64(keyEnrichFEMinPV),
		Title:       f.title,
		InvertX:     f.invertX,
	}
	if f.scores != "" && opts.FEMinPV <= 0 {
		return &usageError{fmt.Errorf("--scores needs the enrichment sweep, set --feminpv above 0")}
	}

	layout, err := enrich.Enrichometer(ranking, set, opts)
	if err != nil {
		return err
	}
	a.logger.Info("enrichment",
		zap.Int("set", layout.SetSize),
		zap.Int("overlap", layout.Overlap),
		zap.Float64("event_length", layout.EventLength))

	fmt.Fprintf(stdout, "set size\t%d\noverlap\t%d\n", layout.SetSize, layout.Overlap)
	if u := layout.Universe; u != nil {
		fmt.Fprintf(stdout, "universe\t%d\nodds ratio\t%g\np-value (%s)\t%g\n",
			u.Universe, u.OddsRatio, alt, u.PValue)
	}
	if le := layout.LeadingEdge; le != nil {
		fmt.Fprintf(stdout, "leading edge\t%s\nleading edge p-value\t%g\n", le.Gene, le.PValue)
	}

	if f.scores != "" {
		if err := writeScores(layout.Scores, f.scores, stdout); err != nil {
			return err
		}
	}

	if f.output != "" {
		p, err := render.Enrichometer(layout, render.DefaultEnrichometerOptions())
		if err != nil {
			return err
		}
		if err := render.Save(p, f.output, vg.Length(f.width)*vg.Inch, vg.Length(f.height)*vg.Inch); err != nil {
			return err
		}
		a.logger.Info("wrote figure", zap.String("path", f.output))
	}
	return nil
}

func writeScores(scores []enrich.Score, path string, stdout io.Writer) error {
	w := stdout
	if path != "-" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create scores file: %w", err)
		}
		defer file.Close()
		w = file
	}
	sw := output.NewScoreWriter(w)
	if err := sw.WriteHeader(); err != nil {
		return err
	}
	for _, s := range scores {
		if err := sw.Write(s); err != nil {
			return err
		}
	}
	return sw.Flush()
}
