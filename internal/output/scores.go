package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/bidali/internal/enrich"
)

// ScoreWriter writes an enrichment sweep, one line per cut.
type ScoreWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewScoreWriter creates a score writer.
func NewScoreWriter(w io.Writer) *ScoreWriter {
	return &ScoreWriter{
		w:       bufio.NewWriter(w),
		columns: []string{"gene", "odds_ratio", "pvalue"},
	}
}

// WriteHeader writes the header line.
func (sw *ScoreWriter) WriteHeader() error {
	_, err := sw.w.WriteString(strings.Join(sw.columns, "\t") + "\n")
	return err
}

// Write writes a single score.
func (sw *ScoreWriter) Write(s enrich.Score) error {
	values := []string{s.Gene, formatFloat(s.OddsRatio), formatFloat(s.PValue)}
	_, err := sw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (sw *ScoreWriter) Flush() error {
	return sw.w.Flush()
}
