package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setup isolates the test from the user's config and returns a scratch dir.
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("BIDALI_DATADIR", "")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	var out bytes.Buffer
	cmd := newRootCmd(&app{logger: zap.NewNop()})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// genomePair writes a reference of four blocks and an assembly holding the
// last two blocks on c1 and the reverse complement of the first two on c2.
func genomePair(t *testing.T, dir string) (ref, asm string) {
	ref = writeFile(t, dir, "ref.fa", ">ref\nAACGTCAGGGTACTTA\n")
	asm = writeFile(t, dir, "asm.fa", ">c1\nGGTACTTA\n>c2\nGGGGCTGACGTT\n")
	return ref, asm
}

const sampleHits = "seq1_pos\tseq2_pos\tstrand\tseq1_contig\tseq2_contig\n" +
	"0\t16\t-\tref\tc2\n" +
	"4\t12\t-\tref\tc2\n" +
	"8\t0\t+\tref\tc1\n" +
	"12\t4\t+\tref\tc1\n"

func TestVersion(t *testing.T) {
	setup(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "bidali version dev (none) built unknown\n", out)
}

func TestRun_ExitCodes(t *testing.T) {
	dir := setup(t)
	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"dotplot", "only-one.fa"}))
	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"dotplot", "--no-such-flag", "a", "b"}))
	viper.Reset()
	assert.Equal(t, ExitError, run([]string{"dotplot", "--no-progress",
		filepath.Join(dir, "missing1.fa"), filepath.Join(dir, "missing2.fa")}))
	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"dotplot", "--no-progress", "-", "-"}))
	viper.Reset()
	assert.Equal(t, ExitUsage, run([]string{"sort-genome", "--no-progress", "-", "-"}))
	viper.Reset()
	assert.Equal(t, ExitSuccess, run([]string{"version"}))
}

func TestParseConfigValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"25", 25},
		{"0.05", 0.05},
		{"1e-3", 1e-3},
		{"on", true},
		{"no", false},
		{"/data/bidali", "/data/bidali"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseConfigValue(tt.in), tt.in)
	}
}

func TestConfig_SetGet(t *testing.T) {
	home := setup(t)

	out, err := execute(t, "config", "set", "dotplot.spacer", "5000")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(home, ".bidali.yaml"))

	out, err = execute(t, "config", "get", "dotplot.spacer")
	require.NoError(t, err)
	assert.Equal(t, "5000\n", out)

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "spacer: 5000")

	_, err = execute(t, "config", "set", "enrich.feminpv", "0.01")
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "datadir", "/data/bidali")
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(home, ".bidali.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "feminpv: 0.01")
	assert.Contains(t, string(data), "spacer: 5000")
	assert.Contains(t, string(data), "datadir: /data/bidali")

	_, err = execute(t, "config", "get", "no.such.key")
	assert.ErrorContains(t, err, "is not set")
}

func TestConfig_ExplicitFileMissing(t *testing.T) {
	dir := setup(t)
	_, err := execute(t, "--config", filepath.Join(dir, "nope.yaml"), "version")
	assert.ErrorContains(t, err, "reading config")
}

func TestDotplot_HitsToStdout(t *testing.T) {
	dir := setup(t)
	ref, asm := genomePair(t, dir)

	out, err := execute(t, "dotplot", "--window", "4", "--spacer", "4", "--no-progress", ref, asm)
	require.NoError(t, err)
	assert.Equal(t, sampleHits, out)
}

func TestDotplot_ConfigWindow(t *testing.T) {
	dir := setup(t)
	ref, asm := genomePair(t, dir)
	writeFile(t, dir, ".bidali.yaml", "dotplot:\n  window: 4\n  spacer: 4\n")

	out, err := execute(t, "dotplot", "--no-progress", ref, asm)
	require.NoError(t, err)
	assert.Equal(t, sampleHits, out)
}

func TestDotplot_FigureAndCache(t *testing.T) {
	dir := setup(t)
	ref, asm := genomePair(t, dir)
	datadir := filepath.Join(dir, "data")
	fig := filepath.Join(dir, "dotplot.png")
	hits := filepath.Join(dir, "hits.tsv")

	args := []string{"dotplot", "--datadir", datadir, "--window", "4", "--spacer", "4",
		"--no-progress", "--cache", "--contig-lines", "--shade", "--size", "3",
		"-o", fig, "--hits", hits, ref, asm}

	for i := 0; i < 2; i++ {
		out, err := execute(t, args...)
		require.NoError(t, err)
		assert.Empty(t, out)

		data, err := os.ReadFile(hits)
		require.NoError(t, err)
		assert.Equal(t, sampleHits, string(data))
		assert.FileExists(t, fig)
	}

	cached, err := filepath.Glob(filepath.Join(datadir, "cache", "dotplot", "ref_vs_asm.*.gob"))
	require.NoError(t, err)
	assert.Len(t, cached, 1)
}

func TestDotplot_BadColor(t *testing.T) {
	dir := setup(t)
	ref, asm := genomePair(t, dir)
	_, err := execute(t, "dotplot", "--rc-color", "nope", "--no-progress", ref, asm)
	var uerr *usageError
	assert.ErrorAs(t, err, &uerr)
}

func TestSortGenome_Table(t *testing.T) {
	dir := setup(t)
	ref, asm := genomePair(t, dir)

	out, err := execute(t, "sort-genome", "--window", "4", "--spacer", "4", "--no-progress", ref, asm)
	require.NoError(t, err)
	assert.Equal(t,
		"#contig\tseq1_pos\tseq2_pos\tstrand\thits\torientation\n"+
			"c2\t2\t14\t-1\t2\treverse\n"+
			"c1\t10\t2\t1\t2\tforward\n",
		out)
}

func TestSortGenome_Fasta(t *testing.T) {
	dir := setup(t)
	ref, asm := genomePair(t, dir)
	sorted := filepath.Join(dir, "sorted.fa")

	_, err := execute(t, "sort-genome", "--window", "4", "--spacer", "4", "--no-progress", "-o", sorted, ref, asm)
	require.NoError(t, err)

	data, err := os.ReadFile(sorted)
	require.NoError(t, err)
	assert.Equal(t, ">c2 [REV]\nAACGTCAGCCCC\n>c1\nGGTACTTA\n", string(data))
}

func enrichInputs(t *testing.T, dir string) (ranking, set string) {
	ranking = writeFile(t, dir, "ranking.tsv",
		"gene\tvalue\ng1\t5\ng2\t1\ng3\t3\ng4\t2\ng5\t8\ng6\t4\ng7\t7\ng8\t6\n")
	set = writeFile(t, dir, "set.txt", "g2\ng4\ng6\ngX\n")
	return ranking, set
}

func TestEnrich_Summary(t *testing.T) {
	dir := setup(t)
	ranking, set := enrichInputs(t, dir)

	out, err := execute(t, "enrich", "--universe", "100", "--feminpv", "0.1", ranking, set)
	require.NoError(t, err)
	assert.Contains(t, out, "set size\t4\n")
	assert.Contains(t, out, "overlap\t3\n")
	assert.Contains(t, out, "universe\t100\n")
	assert.Contains(t, out, "leading edge\tg6\n")
}

func TestEnrich_NoLeadingEdgeAtDefaultThreshold(t *testing.T) {
	dir := setup(t)
	ranking, set := enrichInputs(t, dir)

	out, err := execute(t, "enrich", ranking, set)
	require.NoError(t, err)
	assert.NotContains(t, out, "leading edge")
	assert.NotContains(t, out, "universe")
}

func TestEnrich_ScoresAndFigure(t *testing.T) {
	dir := setup(t)
	ranking, set := enrichInputs(t, dir)
	scores := filepath.Join(dir, "scores.tsv")
	fig := filepath.Join(dir, "enrichometer.svg")

	_, err := execute(t, "enrich", "--feminpv", "0.1", "--title", "targets", "--invert-x",
		"--scores", scores, "-o", fig, ranking, set)
	require.NoError(t, err)

	data, err := os.ReadFile(scores)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 8)
	assert.Equal(t, "gene\todds_ratio\tpvalue", string(lines[0]))
	assert.FileExists(t, fig)
}

func TestEnrich_BadAlternative(t *testing.T) {
	dir := setup(t)
	ranking, set := enrichInputs(t, dir)
	_, err := execute(t, "enrich", "--alternative", "sideways", ranking, set)
	var uerr *usageError
	assert.ErrorAs(t, err, &uerr)
}

func TestDataset_List(t *testing.T) {
	dir := setup(t)
	out, err := execute(t, "dataset", "list", "--datadir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "NB39")
	assert.Contains(t, out, "not downloaded")
}

func TestDataset_LoadImportQuery(t *testing.T) {
	dir := setup(t)
	table := "GeneID\tSymbol\tKELLY\tRPE1\nENSG1\tMYCN\t120.5\t0.1\nENSG2\tPHOX2B\t45\tNA\n"
	path := filepath.Join(dir, "GEO", "NB39_celllines_Maris", "GSE89413_2016-10-30-NBL-cell-line-STAR-fpkm.txt.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	// Plain text is read as well as gzip.
	require.NoError(t, os.WriteFile(path, []byte(table), 0644))

	out, err := execute(t, "dataset", "load", "NB39", "--datadir", dir, "--gene", "ENSG2")
	require.NoError(t, err)
	assert.Contains(t, out, "NB39: 2 genes x 2 samples")
	assert.Contains(t, out, "ENSG2")

	out, err = execute(t, "dataset", "list", "--datadir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("%d B", len(table)))
	assert.NotContains(t, out, "not downloaded")

	out, err = execute(t, "dataset", "import", "nb39", "--datadir", dir)
	require.NoError(t, err)
	assert.Equal(t, "NB39: 2 genes, 2 samples, 3 values\n", out)

	out, err = execute(t, "dataset", "query", "NB39", "ENSG1", "--datadir", dir)
	require.NoError(t, err)
	assert.Equal(t, "sample\tfpkm\nKELLY\t120.5\nRPE1\t0.1\n", out)

	_, err = execute(t, "dataset", "query", "NB39", "ENSG9", "--datadir", dir)
	assert.ErrorContains(t, err, "no values")
}
