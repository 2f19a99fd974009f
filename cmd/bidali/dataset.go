package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/bidali/internal/expression"
)

const expressionDB = "expression.duckdb"

func newDatasetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Download, load and query expression datasets",
		Long: `Manage published expression datasets. Files are stored below the data
directory (--datadir, config key datadir) and can be imported into a DuckDB
database there for gene queries.`,
		Example: `  bidali dataset list
  bidali dataset download NB39
  bidali dataset load NB39 --gene ENSG00000134323
  bidali dataset import NB39
  bidali dataset query NB39 ENSG00000134323`,
	}

	cmd.AddCommand(newDatasetListCmd())
	cmd.AddCommand(newDatasetDownloadCmd(a))
	cmd.AddCommand(newDatasetLoadCmd(a))
	cmd.AddCommand(newDatasetImportCmd(a))
	cmd.AddCommand(newDatasetQueryCmd(a))
	return cmd
}

func newDatasetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dataDir()
			if err != nil {
				return err
			}
			return listDatasets(cmd.OutOrStdout(), dir)
		},
	}
}

func listDatasets(out io.Writer, datadir string) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tDESCRIPTION")
	for _, src := range expression.Sources() {
		status := "not downloaded"
		if info, err := os.Stat(src.Path(datadir)); err == nil {
			status = humanize.IBytes(uint64(info.Size()))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", src.Name, status, src.Description)
	}
	return tw.Flush()
}

func newDatasetDownloadCmd(a *app) *cobra.Command {
	var noProgress bool
	cmd := &cobra.Command{
		Use:   "download <name>",
		Short: "Download a registered dataset",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := expression.Lookup(args[0])
			if err != nil {
				return &usageError{err}
			}
			dir, err := dataDir()
			if err != nil {
				return err
			}

			d := expression.NewDownloader(nil)
			d.SetLogger(a.logger)
			var bar *progressBar
			d.Progress = func(name string, total int64, body io.Reader) io.Reader {
				bar = newByteBar(!noProgress, name+": ", total)
				return bar.ProxyReader(body)
			}
			path, err := d.Download(cmd.Context(), src, dir)
			bar.Wait()
			if err != nil {
				return fmt.Errorf("download %s: %w", src.Name, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "do not show a progress bar")
	return cmd
}

func newDatasetLoadCmd(a *app) *cobra.Command {
	var genes []string
	cmd := &cobra.Command{
		Use:   "load <name>",
		Short: "Load a downloaded dataset and summarize it",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dataDir()
			if err != nil {
				return err
			}
			ds, err := expression.Get(args[0], dir)
			if err != nil {
				return err
			}
			nGenes, nSamples := ds.Shape()
			a.logger.Info("loaded dataset",
				zap.String("dataset", ds.Name), zap.Int("genes", nGenes), zap.Int("samples", nSamples))
			return describeDataset(cmd.OutOrStdout(), ds, genes)
		},
	}
	cmd.Flags().StringSliceVar(&genes, "gene", nil, "summarize these genes (repeatable)")
	return cmd
}

func describeDataset(out io.Writer, ds *expression.Dataset, genes []string) error {
	nGenes, nSamples := ds.Shape()
	fmt.Fprintf(out, "%s: %d genes x %d samples\n", ds.Name, nGenes, nSamples)
	if len(genes) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GENE\tN\tMISSING\tMEAN\tSTDDEV\tMIN\tMAX")
	for _, g := range genes {
		s, ok := ds.Summarize(g)
		if !ok {
			return fmt.Errorf("gene %q not in dataset %s", g, ds.Name)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.4g\t%.4g\t%.4g\t%.4g\n",
			s.Gene, s.N, s.Missing, s.Mean, s.StdDev, s.Min, s.Max)
	}
	return tw.Flush()
}

func openExpressionStore(a *app) (*expression.Store, error) {
	dir, err := dataDir()
	if err != nil {
		return nil, err
	}
	s, err := expression.Open(filepath.Join(dir, expressionDB))
	if err != nil {
		return nil, err
	}
	s.SetLogger(a.logger)
	return s, nil
}

func newDatasetImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <name>",
		Short: "Import a downloaded dataset into the expression database",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dataDir()
			if err != nil {
				return err
			}
			ds, err := expression.Get(args[0], dir)
			if err != nil {
				return err
			}
			s, err := openExpressionStore(a)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Import(cmd.Context(), ds); err != nil {
				return err
			}
			infos, err := s.Datasets()
			if err != nil {
				return err
			}
			for _, info := range infos {
				if info.Name == ds.Name {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d genes, %d samples, %d values\n",
						info.Name, info.Genes, info.Samples, info.Values)
				}
			}
			return nil
		},
	}
}

func newDatasetQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <name> <gene>",
		Short: "Print the expression of a gene from the expression database",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := expression.Lookup(args[0])
			if err != nil {
				return &usageError{err}
			}
			s, err := openExpressionStore(a)
			if err != nil {
				return err
			}
			defer s.Close()

			values, err := s.Gene(src.Name, args[1])
			if err != nil {
				return err
			}
			if len(values) == 0 {
				return fmt.Errorf("no values for %s in %s (run: bidali dataset import %s)", args[1], src.Name, src.Name)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "sample\tfpkm")
			for _, v := range values {
				fmt.Fprintf(out, "%s\t%g\n", v.Sample, v.FPKM)
			}
			return nil
		},
	}
}
