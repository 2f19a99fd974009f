package fasta

import (
	"bytes"
	"context"
	"path/filepath"
	"sort"
)

// Contig locates one record inside a Genome's concatenated sequence.
// End is exclusive.
type Contig struct {
	ID    string
	Start int
	End   int
}

// Len returns the contig length.
func (c Contig) Len() int { return c.End - c.Start }

// Genome is the upper-cased concatenation of a FASTA file's records with an
// ordered table of where each record starts and ends.
type Genome struct {
	Name    string
	Path    string
	Seq     []byte
	Contigs []Contig
}

// NewGenome concatenates records in order.
func NewGenome(name string, records []Record) *Genome {
	total := 0
	for _, r := range records {
		total += len(r.Seq)
	}

	g := &Genome{
		Name:    name,
		Seq:     make([]byte, 0, total),
		Contigs: make([]Contig, 0, len(records)),
	}
	for _, r := range records {
		start := len(g.Seq)
		g.Seq = append(g.Seq, bytes.ToUpper(r.Seq)...)
		g.Contigs = append(g.Contigs, Contig{ID: r.ID, Start: start, End: len(g.Seq)})
	}
	return g
}

// LoadGenome reads a FASTA file into a Genome named after the file.
func LoadGenome(path string) (*Genome, error) {
	return LoadGenomeContext(context.Background(), path)
}

// LoadGenomeContext is LoadGenome with cancellation.
func LoadGenomeContext(ctx context.Context, path string) (*Genome, error) {
	records, err := LoadContext(ctx, path)
	if err != nil {
		return nil, err
	}
	g := NewGenome(filepath.Base(path), records)
	g.Path = path
	return g, nil
}

// Len returns the total sequence length.
func (g *Genome) Len() int { return len(g.Seq) }

// ContigAt returns the first contig, in file order, with Start <= pos <= End.
// The bounds are inclusive on both ends so a position on a boundary belongs
// to the earlier contig.
func (g *Genome) ContigAt(pos int) (Contig, bool) {
	// Contigs are contiguous and ordered, so the first contig whose End
	// reaches pos is the candidate.
	i := sort.Search(len(g.Contigs), func(i int) bool {
		return g.Contigs[i].End >= pos
	})
	if i < len(g.Contigs) && g.Contigs[i].Start <= pos {
		return g.Contigs[i], true
	}
	return Contig{}, false
}

// Contig returns the contig with the given ID.
func (g *Genome) Contig(id string) (Contig, bool) {
	for _, c := range g.Contigs {
		if c.ID == id {
			return c, true
		}
	}
	return Contig{}, false
}
