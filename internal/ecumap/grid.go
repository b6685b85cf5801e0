package ecumap

import (
	"encoding/json"
	"fmt"
)

// Grid is a rows x columns table of scaled map values stored row-major.
// Element i of the backing slice is at row i/columns, column i%columns.
type Grid struct {
	rows    int
	columns int
	values  []float64
}

// NewGrid wraps values (row-major) in a Grid. It takes ownership of values.
func NewGrid(rows, columns int, values []float64) (*Grid, error) {
	if rows <= 0 || columns <= 0 {
		return nil, fmt.Errorf("grid shape %dx%d: dimensions must be positive", rows, columns)
	}
	if len(values) != rows*columns {
		return nil, fmt.Errorf("grid shape %dx%d: got %d values", rows, columns, len(values))
	}
	return &Grid{rows: rows, columns: columns, values: values}, nil
}

func (g *Grid) Rows() int    { return g.rows }
func (g *Grid) Columns() int { return g.columns }

// At returns the value at row r, column c. It panics if either index is out
// of range, like a slice index would.
func (g *Grid) At(r, c int) float64 {
	if r < 0 || r >= g.rows || c < 0 || c >= g.columns {
		panic(fmt.Sprintf("ecumap: grid index [%d,%d] out of range [%d,%d]", r, c, g.rows, g.columns))
	}
	return g.values[r*g.columns+c]
}

// Row returns a copy of row r.
func (g *Grid) Row(r int) []float64 {
	if r < 0 || r >= g.rows {
		panic(fmt.Sprintf("ecumap: grid row %d out of range [0,%d)", r, g.rows))
	}
	row := make([]float64, g.columns)
	copy(row, g.values[r*g.columns:(r+1)*g.columns])
	return row
}

// Values returns a copy of the row-major backing slice.
func (g *Grid) Values() []float64 {
	out := make([]float64, len(g.values))
	copy(out, g.values)
	return out
}

// Nested returns the grid as one slice per row.
func (g *Grid) Nested() [][]float64 {
	out := make([][]float64, g.rows)
	for r := range out {
		out[r] = g.Row(r)
	}
	return out
}

// Min returns the smallest value in the grid.
func (g *Grid) Min() float64 {
	m := g.values[0]
	for _, v := range g.values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value in the grid.
func (g *Grid) Max() float64 {
	m := g.values[0]
	for _, v := range g.values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// MarshalJSON encodes the grid as a nested array of rows.
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Nested())
}
