package fasta

import (
	"bufio"
	"io"
)

// Writer writes FASTA records.
type Writer struct {
	w     *bufio.Writer
	width int
}

// NewWriter creates a writer that emits each sequence on a single line.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// SetLineWidth wraps sequence lines at width bases. Zero disables wrapping.
func (fw *Writer) SetLineWidth(width int) {
	fw.width = width
}

// Write writes a single record.
func (fw *Writer) Write(r Record) error {
	if err := fw.w.WriteByte('>'); err != nil {
		return err
	}
	if _, err := fw.w.WriteString(r.Header()); err != nil {
		return err
	}
	if err := fw.w.WriteByte('\n'); err != nil {
		return err
	}

	if fw.width <= 0 {
		if _, err := fw.w.Write(r.Seq); err != nil {
			return err
		}
		return fw.w.WriteByte('\n')
	}

	for i := 0; i < len(r.Seq); i += fw.width {
		end := min(i+fw.width, len(r.Seq))
		if _, err := fw.w.Write(r.Seq[i:end]); err != nil {
			return err
		}
		if err := fw.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (fw *Writer) Flush() error {
	return fw.w.Flush()
}
