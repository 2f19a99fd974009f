package enrich

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFisherExact(t *testing.T) {
	tests := []struct {
		table               [2][2]int
		odds                float64
		less, greater, both float64
	}{
		{[2][2]int{{8, 2}, {1, 5}}, 20, 0.9991258741258741, 0.024475524475524476, 0.03496503496503496},
		{[2][2]int{{1, 9}, {11, 3}}, 3.0 / 99, 0.0013797280926100416, 0.9999663480953022, 0.002759456185220083},
		{[2][2]int{{3, 1}, {1, 3}}, 9, 0.9857142857142857, 0.24285714285714285, 0.4857142857142857},
		{[2][2]int{{0, 5}, {5, 0}}, 0, 0.003968253968253968, 1, 0.007936507936507936},
		{[2][2]int{{2, 0}, {0, 7}}, math.Inf(1), 1, 0.027777777777777776, 0.027777777777777776},
	}
	for _, tt := range tests {
		odds, p, err := FisherExact(tt.table, Less)
		require.NoError(t, err)
		assert.InDelta(t, tt.less, p, 1e-12, "less %v", tt.table)
		if math.IsInf(tt.odds, 1) {
			assert.True(t, math.IsInf(odds, 1), "odds %v", tt.table)
		} else {
			assert.InDelta(t, tt.odds, odds, 1e-12, "odds %v", tt.table)
		}

		_, p, err = FisherExact(tt.table, Greater)
		require.NoError(t, err)
		assert.InDelta(t, tt.greater, p, 1e-12, "greater %v", tt.table)

		_, p, err = FisherExact(tt.table, TwoSided)
		require.NoError(t, err)
		assert.InDelta(t, tt.both, p, 1e-12, "two-sided %v", tt.table)
	}
}

func TestFisherExact_EmptyMargin(t *testing.T) {
	odds, p, err := FisherExact([2][2]int{{0, 0}, {3, 4}}, TwoSided)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(odds))
	assert.Equal(t, 1.0, p)
}

func TestFisherExact_Negative(t *testing.T) {
	_, _, err := FisherExact([2][2]int{{-1, 0}, {3, 4}}, TwoSided)
	assert.Error(t, err)
}

func TestParseAlternative(t *testing.T) {
	for in, want := range map[string]Alternative{
		"two-sided": TwoSided,
		"Greater":   Greater,
		" less ":    Less,
	} {
		got, err := ParseAlternative(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseAlternative("sideways")
	assert.Error(t, err)
	assert.Equal(t, "greater", Greater.String())
}

// sampleRanking sorts to g2 g4 g3 g6 g1 g8 g7 g5.
func sampleRanking(t *testing.T) Ranking {
	t.Helper()
	r, err := NewRanking(
		[]string{"g1", "g2", "g3", "g4", "g5", "g6", "g7", "g8"},
		[]float64{5, 1, 3, 2, 8, 4, 7, 6},
	)
	require.NoError(t, err)
	return r
}

func TestScores(t *testing.T) {
	scores := Scores(sampleRanking(t), NewGeneSet("g2", "g4", "g6", "gX"))
	require.Len(t, scores, 7)

	wantGenes := []string{"g2", "g4", "g3", "g6", "g1", "g8", "g7"}
	wantP := []float64{
		0.375,
		0.10714285714285714,
		0.2857142857142857,
		0.07142857142857142,
		0.17857142857142858,
		0.35714285714285715,
		0.625,
	}
	for i, s := range scores {
		assert.Equal(t, wantGenes[i], s.Gene)
		assert.InDelta(t, wantP[i], s.PValue, 1e-12, s.Gene)
	}
	assert.InDelta(t, 8.0, scores[2].OddsRatio, 1e-12)
	assert.True(t, math.IsInf(scores[0].OddsRatio, 1))

	best, ok := MinScore(scores)
	require.True(t, ok)
	assert.Equal(t, "g6", best.Gene)
}

func TestScores_TooShort(t *testing.T) {
	r, err := NewRanking([]string{"a"}, []float64{1})
	require.NoError(t, err)
	assert.Empty(t, Scores(r, NewGeneSet("a")))

	_, ok := MinScore(nil)
	assert.False(t, ok)
}

func TestRanking_Sorted_Stable(t *testing.T) {
	r, err := NewRanking([]string{"a", "b", "c"}, []float64{2, 1, 2})
	require.NoError(t, err)
	sorted := r.Sorted()
	assert.Equal(t, []string{"b", "a", "c"}, []string{sorted[0].Gene, sorted[1].Gene, sorted[2].Gene})
	// The input is not modified.
	assert.Equal(t, "a", r[0].Gene)
}

func TestNewRanking_Errors(t *testing.T) {
	_, err := NewRanking([]string{"a"}, []float64{1, 2})
	assert.Error(t, err)
	_, err = NewRanking([]string{"a", "a"}, []float64{1, 2})
	assert.Error(t, err)
	_, err = NewRanking([]string{"a"}, []float64{math.NaN()})
	assert.Error(t, err)
}

func TestLoadRanking(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranks.tsv")
	content := "# comment\ngene\tlog2fc\nTP53\t-2.5\r\nMYCN\t3.1\n\nALK\t0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r, err := LoadRanking(path)
	require.NoError(t, err)
	assert.Equal(t, Ranking{
		{Gene: "TP53", Value: -2.5},
		{Gene: "MYCN", Value: 3.1},
		{Gene: "ALK", Value: 0},
	}, r)
}

func TestLoadRanking_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad value":  "a\t1\nb\tx\n",
		"one column": "a\n",
		"duplicate":  "a\t1\na\t2\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".tsv")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := LoadRanking(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadRanking(filepath.Join(dir, "missing.tsv"))
	assert.Error(t, err)
}

func TestLoadGeneSet_Lines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "set.txt")
	require.NoError(t, os.WriteFile(path, []byte("# MYCN targets\nMYCN\nALK\n\nALK\nPHOX2B\n"), 0644))

	set, err := LoadGeneSet(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"ALK", "MYCN", "PHOX2B"}, set.Genes())
	assert.True(t, set.Contains("MYCN"))
	assert.False(t, set.Contains("TP53"))
}

func TestLoadGeneSet_Column(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cancerGeneList.tsv")
	content := "Hugo Symbol\tGene Type\nTP53\tTSG\nKRAS\tONCOGENE\n\t\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	set, err := LoadGeneSet(path, "Hugo Symbol")
	require.NoError(t, err)
	assert.Equal(t, []string{"KRAS", "TP53"}, set.Genes())

	_, err = LoadGeneSet(path, "Entrez Gene ID")
	assert.Error(t, err)
}

func TestEnrichometer_Defaults(t *testing.T) {
	r := sampleRanking(t)
	l, err := Enrichometer(r, NewGeneSet("g2", "g4", "g6", "gX"), DefaultEnrichometerOptions())
	require.NoError(t, err)

	assert.Equal(t, 1.0, l.EventLength)
	assert.Equal(t, 1.4, l.R1)
	assert.Equal(t, 0.8, l.R2)
	assert.Equal(t, 1.0, l.Min)
	assert.Equal(t, 8.0, l.Max)

	require.Len(t, l.Events, 3)
	assert.Equal(t, "g2", l.Events[0].Gene)
	assert.InDelta(t, -11.4, l.Events[0].X, 1e-12)
	assert.InDelta(t, 10.0/7-11.4, l.Events[1].X, 1e-12)
	assert.InDelta(t, 30.0/7-11.4, l.Events[2].X, 1e-12)

	assert.Equal(t, 3, l.Overlap)
	assert.Equal(t, 4, l.SetSize)
	assert.InDelta(t, 2.1, l.EmptyWidth, 1e-12)

	xlo, xhi := l.XLim()
	assert.InDelta(t, -11.5, xlo, 1e-12)
	assert.InDelta(t, 1.5, xhi, 1e-12)
	ylo, yhi := l.YLim()
	assert.InDelta(t, -0.9, ylo, 1e-12)
	assert.InDelta(t, 0.9, yhi, 1e-12)
	assert.InDelta(t, -11.4, l.TubeLeft(), 1e-12)
	assert.InDelta(t, -1.4, l.TubeRight(), 1e-12)

	// Smallest sweep p-value is 0.071, above the 0.05 default.
	assert.Nil(t, l.LeadingEdge)
	assert.Len(t, l.Scores, 7)
	assert.Nil(t, l.Universe)
}

func TestEnrichometer_LeadingEdgeAndUniverse(t *testing.T) {
	opts := DefaultEnrichometerOptions()
	opts.FEMinPV = 0.1
	opts.Universe = 100

	l, err := Enrichometer(sampleRanking(t), NewGeneSet("g2", "g4", "g6", "gX"), opts)
	require.NoError(t, err)

	require.NotNil(t, l.LeadingEdge)
	assert.Equal(t, "g6", l.LeadingEdge.Gene)
	assert.InDelta(t, 30.0/7-11.4, l.LeadingEdge.X, 1e-12)
	assert.InDelta(t, 0.07142857142857142, l.LeadingEdge.PValue, 1e-12)

	require.NotNil(t, l.Universe)
	assert.InDelta(t, 0.0027363536537848465, l.Universe.PValue, 1e-12)
}

func TestEnrichometer_Radii(t *testing.T) {
	r := sampleRanking(t)
	set := NewGeneSet("g2", "g4", "g6", "gX")

	opts := DefaultEnrichometerOptions()
	opts.ReservoirR2 = 0.8
	l, err := Enrichometer(r, set, opts)
	require.NoError(t, err)
	assert.InDelta(t, 0.7037167544041136, l.EventLength, 1e-12)

	opts.ReservoirR1 = 0
	opts.ReservoirR2 = 0
	l, err = Enrichometer(r, set, opts)
	require.NoError(t, err)
	assert.InDelta(t, 1.9894367886486917, l.R1, 1e-12)
}

func TestEnrichometer_Errors(t *testing.T) {
	opts := DefaultEnrichometerOptions()

	_, err := Enrichometer(nil, NewGeneSet("a"), opts)
	assert.Error(t, err)

	_, err = Enrichometer(sampleRanking(t), NewGeneSet(), opts)
	assert.Error(t, err)

	flat, err := NewRanking([]string{"a", "b"}, []float64{1, 1})
	require.NoError(t, err)
	_, err = Enrichometer(flat, NewGeneSet("a"), opts)
	assert.Error(t, err)
}
