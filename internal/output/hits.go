// Package output writes dot-plot and enrichment results as tab-delimited text.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/bidali/internal/dotplot"
	"github.com/inodb/bidali/internal/fasta"
)

// HitWriter writes dot-plot hits, one line per non-zero matrix cell.
type HitWriter struct {
	w       *bufio.Writer
	dp      *dotplot.DotPlot
	columns []string
}

// NewHitWriter creates a hit writer for the hits of dp.
func NewHitWriter(w io.Writer, dp *dotplot.DotPlot) *HitWriter {
	return &HitWriter{
		w:  bufio.NewWriter(w),
		dp: dp,
		columns: []string{
			"seq1_pos",
			"seq2_pos",
			"strand",
			"seq1_contig",
			"seq2_contig",
		},
	}
}

// WriteHeader writes the header line.
func (hw *HitWriter) WriteHeader() error {
	_, err := hw.w.WriteString(strings.Join(hw.columns, "\t") + "\n")
	return err
}

// Write writes a single hit. Positions are cell starts in bases.
func (hw *HitWriter) Write(p dotplot.Point) error {
	seq1Pos := p.Row * hw.dp.Window
	seq2Pos := p.Col * hw.dp.Window

	values := []string{
		strconv.Itoa(seq1Pos),
		strconv.Itoa(seq2Pos),
		strandSymbol(float64(p.Strand)),
		contigName(hw.dp.Seq1.ContigAt(seq1Pos)),
		contigName(hw.dp.Seq2.ContigAt(seq2Pos)),
	}
	_, err := hw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes the header and every hit in row order.
func (hw *HitWriter) WriteAll() error {
	if err := hw.WriteHeader(); err != nil {
		return err
	}
	for _, p := range hw.dp.Points() {
		if err := hw.Write(p); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (hw *HitWriter) Flush() error {
	return hw.w.Flush()
}

func contigName(c fasta.Contig, ok bool) string {
	if !ok {
		return "-"
	}
	return c.ID
}

func strandSymbol(s float64) string {
	switch {
	case s > 0:
		return "+"
	case s < 0:
		return "-"
	}
	return "."
}
