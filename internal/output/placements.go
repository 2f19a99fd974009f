package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/bidali/internal/dotplot"
)

// PlacementWriter writes the contig placements of a genome sorted against
// a reference.
type PlacementWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewPlacementWriter creates a placement writer.
func NewPlacementWriter(w io.Writer) *PlacementWriter {
	return &PlacementWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#contig",
			"seq1_pos",
			"seq2_pos",
			"strand",
			"hits",
			"orientation",
		},
	}
}

// WriteHeader writes the header line.
func (pw *PlacementWriter) WriteHeader() error {
	_, err := pw.w.WriteString(strings.Join(pw.columns, "\t") + "\n")
	return err
}

// Write writes a single placement.
func (pw *PlacementWriter) Write(p dotplot.ContigPlacement) error {
	orientation := "forward"
	if p.Reversed() {
		orientation = "reverse"
	}
	values := []string{
		p.Contig,
		formatFloat(p.Seq1Pos),
		formatFloat(p.Seq2Pos),
		formatFloat(p.Strand),
		strconv.Itoa(p.Hits),
		orientation,
	}
	_, err := pw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (pw *PlacementWriter) Flush() error {
	return pw.w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
