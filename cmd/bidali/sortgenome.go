package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/bidali/internal/dotplot"
	"github.com/inodb/bidali/internal/fasta"
	"github.com/inodb/bidali/internal/output"
)

type sortGenomeFlags struct {
	output     string
	useCache   bool
	noProgress bool
}

func newSortGenomeCmd(a *app) *cobra.Command {
	f := &sortGenomeFlags{}

	cmd := &cobra.Command{
		Use:   "sort-genome <reference.fa> <assembly.fa>",
		Short: "Order assembly contigs along a reference",
		Long: `Place each contig of the assembly at the median reference position of
its dot-plot hits. With -o the contigs are written to a FASTA file in
reference order, reverse complemented (and tagged [REV]) when most of their
hits are on the reverse strand. Without -o the placements are printed as a
table. Probing parameters come from the dotplot settings.`,
		Example: `  bidali sort-genome reference.fa assembly.fa -o assembly.sorted.fa
  bidali sort-genome reference.fa assembly.fa --window 25`,
		Args: usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSortGenome(cmd.Context(), a, args[0], args[1], probeOptions(cmd.Flags()), f, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	addProbeFlags(fl)
	fl.StringVarP(&f.output, "output", "o", "", "sorted FASTA file ('-' for stdout)")
	fl.BoolVar(&f.useCache, "cache", false, "reuse a cached match matrix when the inputs are unchanged")
	fl.BoolVar(&f.noProgress, "no-progress", false, "do not show a progress bar")

	return cmd
}

func runSortGenome(ctx context.Context, a *app, reference, assembly string, opts dotplot.Options, f *sortGenomeFlags, stdout io.Writer) error {
	if assembly == "-" && f.output != "" {
		return &usageError{fmt.Errorf("the assembly is read twice when writing sorted FASTA and cannot be stdin")}
	}

	dp, err := a.buildDotPlot(ctx, opts, reference, assembly, f.useCache, !f.noProgress)
	if err != nil {
		return err
	}
	placements, err := dp.SortByReference()
	if err != nil {
		return err
	}
	a.logger.Info("placed contigs",
		zap.Int("placed", len(placements)), zap.Int("contigs", len(dp.Seq2.Contigs)))

	if f.output == "" {
		pw := output.NewPlacementWriter(stdout)
		if err := pw.WriteHeader(); err != nil {
			return err
		}
		for _, p := range placements {
			if err := pw.Write(p); err != nil {
				return err
			}
		}
		return pw.Flush()
	}

	records, err := fasta.Load(assembly)
	if err != nil {
		return err
	}
	w := stdout
	if f.output != "-" {
		file, err := os.Create(f.output)
		if err != nil {
			return fmt.Errorf("create sorted genome: %w", err)
		}
		defer file.Close()
		w = file
	}
	if err := dotplot.WriteSortedGenome(w, records, placements); err != nil {
		return fmt.Errorf("write sorted genome: %w", err)
	}
	a.logger.Info("wrote sorted genome", zap.String("path", f.output))
	return nil
}
