package enrich

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// GeneSet is a set of gene identifiers.
type GeneSet map[string]struct{}

// NewGeneSet creates a set from the given genes.
func NewGeneSet(genes ...string) GeneSet {
	s := make(GeneSet, len(genes))
	for _, g := range genes {
		s[g] = struct{}{}
	}
	return s
}

// Contains returns true if gene is in the set.
func (s GeneSet) Contains(gene string) bool {
	_, ok := s[gene]
	return ok
}

// Genes returns the members in sorted order.
func (s GeneSet) Genes() []string {
	out := make([]string, 0, len(s))
	for g := range s {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// LoadGeneSet loads a gene set. With an empty column the file holds one
// gene per line; otherwise it is a TSV whose header names column, e.g.
// "Hugo Symbol" in an OncoKB cancerGeneList.tsv.
func LoadGeneSet(path, column string) (GeneSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gene set: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	set := make(GeneSet)

	idx := 0
	if column != "" {
		// Read header to find the column index
		if !scanner.Scan() {
			return nil, fmt.Errorf("gene set: empty file")
		}
		idx = -1
		for i, col := range strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t") {
			if strings.TrimSpace(col) == column {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("gene set: missing %q column", column)
		}
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if column == "" && strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) <= idx {
			continue
		}
		gene := strings.TrimSpace(fields[idx])
		if gene == "" {
			continue
		}
		set[gene] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading gene set: %w", err)
	}

	return set, nil
}
