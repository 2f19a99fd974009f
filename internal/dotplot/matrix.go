package dotplot

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
)

// Strand values stored in the match matrix.
const (
	Forward int8 = 1
	Reverse int8 = -1
)

// Point is a non-zero matrix entry.
type Point struct {
	Row    int
	Col    int
	Strand int8
}

type cell struct{ row, col int }

// Matrix is a sparse rows x cols matrix holding strand markers.
type Matrix struct {
	rows, cols int
	cells      map[cell]int8
}

// NewMatrix creates an empty matrix of the given shape.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("dotplot: negative matrix shape %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, cells: make(map[cell]int8)}
}

// Shape returns the number of rows and columns.
func (m *Matrix) Shape() (rows, cols int) { return m.rows, m.cols }

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return len(m.cells) }

// Set stores v at (row, col). Setting zero removes the entry.
func (m *Matrix) Set(row, col int, v int8) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("dotplot: index (%d, %d) out of range for %dx%d matrix", row, col, m.rows, m.cols))
	}
	if v == 0 {
		delete(m.cells, cell{row, col})
		return
	}
	m.cells[cell{row, col}] = v
}

// At returns the value at (row, col), zero when unset.
func (m *Matrix) At(row, col int) int8 {
	return m.cells[cell{row, col}]
}

// Points returns all entries sorted by row, then column.
func (m *Matrix) Points() []Point {
	points := make([]Point, 0, len(m.cells))
	for c, v := range m.cells {
		points = append(points, Point{Row: c.row, Col: c.col, Strand: v})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Row != points[j].Row {
			return points[i].Row < points[j].Row
		}
		return points[i].Col < points[j].Col
	})
	return points
}

type matrixGob struct {
	Rows, Cols int
	Points     []Point
}

// GobEncode implements gob.GobEncoder.
func (m *Matrix) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(matrixGob{Rows: m.rows, Cols: m.cols, Points: m.Points()}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (m *Matrix) GobDecode(data []byte) error {
	var mg matrixGob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&mg); err != nil {
		return err
	}
	if mg.Rows < 0 || mg.Cols < 0 {
		return fmt.Errorf("invalid matrix shape %dx%d", mg.Rows, mg.Cols)
	}
	m.rows, m.cols = mg.Rows, mg.Cols
	m.cells = make(map[cell]int8, len(mg.Points))
	for _, p := range mg.Points {
		if p.Row < 0 || p.Row >= m.rows || p.Col < 0 || p.Col >= m.cols {
			return fmt.Errorf("point (%d, %d) out of range for %dx%d matrix", p.Row, p.Col, m.rows, m.cols)
		}
		m.cells[cell{p.Row, p.Col}] = p.Strand
	}
	return nil
}
