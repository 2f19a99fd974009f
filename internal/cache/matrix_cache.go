package cache

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/inodb/bidali/internal/dotplot"
)

// Key identifies a cached dot-plot matrix.
type Key struct {
	Seq1   FileFingerprint
	Seq2   FileFingerprint
	Window int
	Spacer int
}

// name returns the cache file stem: readable base names plus a hash of the
// full paths and parameters.
func (k Key) name() string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%d", k.Seq1.Path, k.Seq2.Path, k.Window, k.Spacer)
	return fmt.Sprintf("%s_vs_%s.%016x", stem(k.Seq1.Path), stem(k.Seq2.Path), h.Sum64())
}

func stem(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".gz", ".fasta", ".fa", ".fna"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// MatrixCache manages gob-serialized dot-plot matrices on disk:
//
//	{dir}/{seq1}_vs_{seq2}.{hash}.gob       (serialized matrix)
//	{dir}/{seq1}_vs_{seq2}.{hash}.gob.meta  (source file fingerprints)
type MatrixCache struct {
	dir string
}

// NewMatrixCache creates a matrix cache in dir.
func NewMatrixCache(dir string) *MatrixCache {
	return &MatrixCache{dir: dir}
}

// Dir returns the cache directory.
func (mc *MatrixCache) Dir() string {
	return mc.dir
}

func (mc *MatrixCache) gobPath(k Key) string {
	return filepath.Join(mc.dir, k.name()+".gob")
}

func (mc *MatrixCache) metaPath(k Key) string {
	return filepath.Join(mc.dir, k.name()+".gob.meta")
}

// Valid checks whether a cached matrix exists for k and matches the current
// source files.
func (mc *MatrixCache) Valid(k Key) bool {
	meta, err := mc.readMeta(k)
	if err != nil {
		return false
	}

	for key, val := range metaFields(k) {
		if meta[key] != val {
			return false
		}
	}

	if _, err := os.Stat(mc.gobPath(k)); err != nil {
		return false
	}
	return true
}

// Load reads the cached matrix for k.
func (mc *MatrixCache) Load(k Key) (*dotplot.Matrix, error) {
	f, err := os.Open(mc.gobPath(k))
	if err != nil {
		return nil, fmt.Errorf("open matrix cache: %w", err)
	}
	defer f.Close()

	var m dotplot.Matrix
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode matrix cache: %w", err)
	}
	return &m, nil
}

// Write serializes m to disk under k.
func (mc *MatrixCache) Write(k Key, m *dotplot.Matrix) error {
	if err := os.MkdirAll(mc.dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	f, err := os.Create(mc.gobPath(k))
	if err != nil {
		return fmt.Errorf("create matrix cache: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(m); err != nil {
		f.Close()
		os.Remove(mc.gobPath(k))
		return fmt.Errorf("encode matrix cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close matrix cache: %w", err)
	}

	return mc.writeMeta(k)
}

// Clear removes the cached files for k.
func (mc *MatrixCache) Clear(k Key) {
	os.Remove(mc.gobPath(k))
	os.Remove(mc.metaPath(k))
}

func metaFields(k Key) map[string]string {
	return map[string]string{
		"seq1_path":    k.Seq1.Path,
		"seq1_size":    strconv.FormatInt(k.Seq1.Size, 10),
		"seq1_modtime": k.Seq1.ModTime.UTC().Format(time.RFC3339Nano),
		"seq2_path":    k.Seq2.Path,
		"seq2_size":    strconv.FormatInt(k.Seq2.Size, 10),
		"seq2_modtime": k.Seq2.ModTime.UTC().Format(time.RFC3339Nano),
		"window":       strconv.Itoa(k.Window),
		"spacer":       strconv.Itoa(k.Spacer),
	}
}

func (mc *MatrixCache) writeMeta(k Key) error {
	fields := metaFields(k)
	keys := []string{
		"seq1_path", "seq1_size", "seq1_modtime",
		"seq2_path", "seq2_size", "seq2_modtime",
		"window", "spacer",
	}
	lines := make([]string, 0, len(keys)+2)
	for _, key := range keys {
		lines = append(lines, key+"="+fields[key])
	}
	lines = append(lines, "created_at="+time.Now().UTC().Format(time.RFC3339), "")
	return os.WriteFile(mc.metaPath(k), []byte(strings.Join(lines, "\n")), 0644)
}

func (mc *MatrixCache) readMeta(k Key) (map[string]string, error) {
	data, err := os.ReadFile(mc.metaPath(k))
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		if key, v, ok := strings.Cut(line, "="); ok {
			meta[key] = v
		}
	}
	return meta, nil
}
