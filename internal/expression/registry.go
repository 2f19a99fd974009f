package expression

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Source describes a published expression dataset.
type Source struct {
	Name        string
	Description string
	Reference   string
	URL         string
	// RelPath is the location of the downloaded file below the data directory.
	RelPath  string
	IndexCol string
}

// Path returns the local path of the source below datadir.
func (s Source) Path(datadir string) string {
	return filepath.Join(datadir, filepath.FromSlash(s.RelPath))
}

var registry = map[string]Source{
	"NB39": {
		Name:        "NB39",
		Description: "39 neuroblastoma cell lines + RPE1 and HU.FETAL.BRAIN (STAR FPKM)",
		Reference:   "https://www.ncbi.nlm.nih.gov/geo/query/acc.cgi?acc=GSE89413",
		URL: "https://www.ncbi.nlm.nih.gov/geo/download/?acc=GSE89413&format=file&" +
			"file=GSE89413%5F2016%2D10%2D30%2DNBL%2Dcell%2Dline%2DSTAR%2Dfpkm%2Etxt%2Egz",
		RelPath:  "GEO/NB39_celllines_Maris/GSE89413_2016-10-30-NBL-cell-line-STAR-fpkm.txt.gz",
		IndexCol: DefaultIndexColumn,
	},
}

// Sources returns the registered datasets sorted by name.
func Sources() []Source {
	out := make([]Source, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a registered dataset by name, ignoring case.
func Lookup(name string) (Source, error) {
	for key, s := range registry {
		if strings.EqualFold(key, name) {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("unknown dataset %q", name)
}

// Get loads a registered dataset from datadir.
func Get(name, datadir string) (*Dataset, error) {
	src, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	path := src.Path(datadir)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s not found at %s (run: bidali dataset download %s): %w",
			src.Name, path, src.Name, err)
	}
	ds, err := LoadTable(path, src.IndexCol)
	if err != nil {
		return nil, err
	}
	ds.Name = src.Name
	return ds, nil
}
