package ecumap

import (
	"encoding/json"
	"testing"
)

func TestNewGrid(t *testing.T) {
	if _, err := NewGrid(2, 2, []float64{1, 2, 3}); err == nil {
		t.Error("expected error for value count mismatch")
	}
	if _, err := NewGrid(0, 2, nil); err == nil {
		t.Error("expected error for zero rows")
	}

	g, err := NewGrid(2, 3, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	if g.At(1, 0) != 4 || g.At(0, 2) != 3 {
		t.Errorf("At() does not follow row-major order")
	}
	if g.Min() != 1 || g.Max() != 6 {
		t.Errorf("Min/Max = %v/%v", g.Min(), g.Max())
	}
}

func TestGrid_CopiesAreIndependent(t *testing.T) {
	g, _ := NewGrid(1, 2, []float64{1, 2})

	row := g.Row(0)
	row[0] = 99
	vals := g.Values()
	vals[1] = 99

	if g.At(0, 0) != 1 || g.At(0, 1) != 2 {
		t.Error("mutating a returned copy changed the grid")
	}
}

func TestGrid_AtPanicsOutOfRange(t *testing.T) {
	g, _ := NewGrid(1, 2, []float64{1, 2})
	defer func() {
		if recover() == nil {
			t.Error("At(0, 2) should panic")
		}
	}()
	g.At(0, 2)
}

func TestGrid_MarshalJSON(t *testing.T) {
	g, _ := NewGrid(2, 2, []float64{10, 20, 2560, -1.5})
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `[[10,20],[2560,-1.5]]` {
		t.Errorf("Marshal() = %s", data)
	}

	wrapped, _ := json.Marshal(map[string]any{"map_data": g})
	if string(wrapped) != `{"map_data":[[10,20],[2560,-1.5]]}` {
		t.Errorf("Marshal(wrapped) = %s", wrapped)
	}
}
