// Package expression loads gene expression tables, keeps them as dense
// matrices and mirrors them into DuckDB for querying.
package expression

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shenwei356/xopen"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultIndexColumn is the header of the gene identifier column.
const DefaultIndexColumn = "GeneID"

// Dataset is an expression table with genes as rows and samples as columns.
type Dataset struct {
	Name    string
	Genes   []string
	Samples []string
	Values  *mat.Dense

	// Annotations holds the non-numeric columns, one value per gene.
	Annotations map[string][]string

	geneIndex   map[string]int
	sampleIndex map[string]int
}

// NewDataset creates a dataset from a genes x samples matrix.
func NewDataset(name string, genes, samples []string, values *mat.Dense) (*Dataset, error) {
	r, c := values.Dims()
	if r != len(genes) || c != len(samples) {
		return nil, fmt.Errorf("dataset %s: matrix is %dx%d, want %dx%d",
			name, r, c, len(genes), len(samples))
	}
	ds := &Dataset{
		Name:        name,
		Genes:       genes,
		Samples:     samples,
		Values:      values,
		Annotations: make(map[string][]string),
		geneIndex:   make(map[string]int, len(genes)),
		sampleIndex: make(map[string]int, len(samples)),
	}
	for i, g := range genes {
		if _, dup := ds.geneIndex[g]; dup {
			return nil, fmt.Errorf("dataset %s: duplicate gene %q", name, g)
		}
		ds.geneIndex[g] = i
	}
	for j, s := range samples {
		if _, dup := ds.sampleIndex[s]; dup {
			return nil, fmt.Errorf("dataset %s: duplicate sample %q", name, s)
		}
		ds.sampleIndex[s] = j
	}
	return ds, nil
}

// Shape returns the number of genes and samples.
func (d *Dataset) Shape() (genes, samples int) {
	return d.Values.Dims()
}

// Row returns the expression of gene across all samples.
func (d *Dataset) Row(gene string) ([]float64, bool) {
	i, ok := d.geneIndex[gene]
	if !ok {
		return nil, false
	}
	return mat.Row(nil, i, d.Values), true
}

// Column returns the expression of all genes in sample.
func (d *Dataset) Column(sample string) ([]float64, bool) {
	j, ok := d.sampleIndex[sample]
	if !ok {
		return nil, false
	}
	return mat.Col(nil, j, d.Values), true
}

// Summary describes the expression of one gene, ignoring missing values.
type Summary struct {
	Gene    string
	N       int
	Mean    float64
	StdDev  float64
	Min     float64
	Max     float64
	Missing int
}

// Summarize returns the summary statistics of gene.
func (d *Dataset) Summarize(gene string) (Summary, bool) {
	row, ok := d.Row(gene)
	if !ok {
		return Summary{}, false
	}
	s := Summary{Gene: gene, Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	vals := make([]float64, 0, len(row))
	for _, v := range row {
		if math.IsNaN(v) {
			s.Missing++
			continue
		}
		vals = append(vals, v)
	}
	s.N = len(vals)
	if s.N == 0 {
		return s, true
	}
	s.Min, s.Max = vals[0], vals[0]
	for _, v := range vals[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if s.N == 1 {
		s.Mean, s.StdDev = vals[0], 0
		return s, true
	}
	s.Mean, s.StdDev = stat.MeanStdDev(vals, nil)
	return s, true
}

// LoadTable reads a tab-delimited expression table, optionally gzipped.
// The first line is the header and indexCol names the gene column. Columns
// whose values all parse as numbers (or are missing) become samples; the
// others are kept as annotations.
func LoadTable(path, indexCol string) (*Dataset, error) {
	rc, err := openTable(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := ParseTable(rc, indexCol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// ParseTable reads an expression table from r. See LoadTable.
func ParseTable(r io.Reader, indexCol string) (*Dataset, error) {
	if indexCol == "" {
		indexCol = DefaultIndexColumn
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	var (
		header []string
		index  = -1
		genes  []string
		cells  [][]string
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")

		if header == nil {
			header = fields
			for i, h := range header {
				if h == indexCol {
					index = i
					break
				}
			}
			if index < 0 {
				return nil, fmt.Errorf("index column %q not found in header", indexCol)
			}
			continue
		}

		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: %d fields, header has %d", lineNo, len(fields), len(header))
		}
		genes = append(genes, fields[index])
		cells = append(cells, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read expression table: %w", err)
	}
	if header == nil {
		return nil, fmt.Errorf("empty expression table")
	}
	if len(genes) == 0 {
		return nil, fmt.Errorf("expression table has no rows")
	}

	var numeric, other []int
	for j := range header {
		if j == index {
			continue
		}
		if numericColumn(cells, j) {
			numeric = append(numeric, j)
		} else {
			other = append(other, j)
		}
	}
	if len(numeric) == 0 {
		return nil, fmt.Errorf("expression table has no numeric columns")
	}

	values := mat.NewDense(len(genes), len(numeric), nil)
	samples := make([]string, len(numeric))
	for c, j := range numeric {
		samples[c] = header[j]
		for i, row := range cells {
			v, _ := parseValue(row[j])
			values.Set(i, c, v)
		}
	}

	ds, err := NewDataset("", genes, samples, values)
	if err != nil {
		return nil, err
	}
	for _, j := range other {
		col := make([]string, len(cells))
		for i, row := range cells {
			col[i] = row[j]
		}
		ds.Annotations[header[j]] = col
	}
	return ds, nil
}

func numericColumn(cells [][]string, j int) bool {
	for _, row := range cells {
		if _, ok := parseValue(row[j]); !ok {
			return false
		}
	}
	return true
}

// parseValue parses a numeric cell. Missing values parse as NaN.
func parseValue(s string) (float64, bool) {
	switch strings.TrimSpace(s) {
	case "", "NA", "NaN", "nan", "N/A":
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// openTable opens a plain or compressed table.
func openTable(path string) (io.ReadCloser, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open expression table: %w", err)
	}
	return r, nil
}
