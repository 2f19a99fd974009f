// Package fasta reads and writes nucleotide FASTA files.
package fasta

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

func init() {
	// Genomes may carry any symbol; probes filter non-ACGT windows later.
	seq.ValidateSeq = false
}

// Record is a single FASTA entry.
type Record struct {
	ID          string
	Description string
	Seq         []byte
}

// Header returns the header line without the leading '>'.
func (r Record) Header() string {
	if r.Description == "" {
		return r.ID
	}
	return r.ID + " " + r.Description
}

// ParseError reports a malformed record. Record is the 1-based index of
// the record being read.
type ParseError struct {
	Record int
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("fasta parse error in record %d: %v", e.Record, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errEmptyID = errors.New("empty sequence identifier")

// Load reads all records from a FASTA file. Compressed input (gzip, xz,
// zstd, bzip2) is detected automatically and the path "-" reads stdin.
func Load(path string) ([]Record, error) {
	return LoadContext(context.Background(), path)
}

// LoadContext is Load with cancellation checked between records.
func LoadContext(ctx context.Context, path string) ([]Record, error) {
	r, err := fastx.NewReader(seq.Unlimit, path, "")
	if err != nil {
		return nil, fmt.Errorf("open fasta file: %w", err)
	}
	defer r.Close()

	records, err := readAll(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse reads all records from r.
func Parse(r io.Reader) ([]Record, error) {
	fr, err := fastx.NewReaderFromIO(seq.Unlimit, r, "")
	if err != nil {
		return nil, fmt.Errorf("open fasta stream: %w", err)
	}
	defer fr.Close()
	return readAll(context.Background(), fr)
}

func readAll(ctx context.Context, r *fastx.Reader) ([]Record, error) {
	var records []Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Record: len(records) + 1, Err: err}
		}
		if len(rec.ID) == 0 {
			return nil, &ParseError{Record: len(records) + 1, Err: errEmptyID}
		}
		records = append(records, newRecord(rec))
	}
	return records, nil
}

// newRecord copies a fastx record; the reader reuses its buffers.
func newRecord(rec *fastx.Record) Record {
	desc := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(rec.Name), rec.ID))
	r := Record{ID: string(rec.ID), Description: string(desc), Seq: []byte{}}
	if rec.Seq != nil {
		r.Seq = append(r.Seq, rec.Seq.Seq...)
	}
	return r
}
