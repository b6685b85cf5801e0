package ecumap

import (
	"context"
	"errors"
	"math"
	"testing"
)

func mustDefinition(t *testing.T, p DefinitionPayload) Definition {
	t.Helper()
	def, err := NewDefinition(p)
	if err != nil {
		t.Fatalf("NewDefinition(%+v) error = %v", p, err)
	}
	return def
}

func factor(f float64) *float64 { return &f }

func assertGrid(t *testing.T, g *Grid, want [][]float64) {
	t.Helper()
	if g.Rows() != len(want) || g.Columns() != len(want[0]) {
		t.Fatalf("grid shape = %dx%d, want %dx%d", g.Rows(), g.Columns(), len(want), len(want[0]))
	}
	for r := range want {
		for c := range want[r] {
			if got := g.At(r, c); got != want[r][c] {
				t.Errorf("At(%d,%d) = %v, want %v", r, c, got, want[r][c])
			}
		}
	}
}

func TestExtract_Scenarios(t *testing.T) {
	buf := []byte{0x00, 0x0A, 0x00, 0x14}

	t.Run("16-bit big-endian", func(t *testing.T) {
		def := mustDefinition(t, DefinitionPayload{Name: "a", Columns: 2, Rows: 1, DataType: "16bit_hi_lo"})
		g, err := Extract(buf, def)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		assertGrid(t, g, [][]float64{{10, 20}})
	})

	t.Run("16-bit little-endian", func(t *testing.T) {
		def := mustDefinition(t, DefinitionPayload{Name: "a", Columns: 2, Rows: 1, DataType: "16bit_lo_hi"})
		g, err := Extract(buf, def)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		assertGrid(t, g, [][]float64{{2560, 5120}})
	})

	t.Run("8-bit signed", func(t *testing.T) {
		def := mustDefinition(t, DefinitionPayload{Name: "a", Columns: 1, Rows: 1, DataType: "8bit", IsSigned: true})
		g, err := Extract([]byte{0xFF}, def)
		if err != nil {
			t.Fatalf("Extract() error = %v", err)
		}
		assertGrid(t, g, [][]float64{{-1}})
	})

	t.Run("out of bounds", func(t *testing.T) {
		def := mustDefinition(t, DefinitionPayload{Name: "a", StartAddress: 3, Columns: 2, Rows: 1, DataType: "8bit"})
		_, err := Extract(make([]byte, 4), def)
		if !errors.Is(err, ErrOutOfBoundsRead) {
			t.Fatalf("Extract() error = %v, want ErrOutOfBoundsRead", err)
		}
		var oob *OutOfBoundsError
		if !errors.As(err, &oob) {
			t.Fatalf("error is %T, want *OutOfBoundsError", err)
		}
		if oob.Address != 3 || oob.ByteCount != 2 || oob.BufferLen != 4 || oob.End() != 5 {
			t.Errorf("OutOfBoundsError = %+v", oob)
		}
	})

	t.Run("zero rows", func(t *testing.T) {
		_, err := NewDefinition(DefinitionPayload{Name: "a", Columns: 2, Rows: 0})
		if !errors.Is(err, ErrInvalidDefinition) {
			t.Fatalf("NewDefinition() error = %v, want ErrInvalidDefinition", err)
		}
	})
}

func TestExtract_ZeroDefinition(t *testing.T) {
	_, err := Extract([]byte{1, 2, 3, 4}, Definition{})
	if !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("Extract(zero Definition) error = %v, want ErrInvalidDefinition", err)
	}
}

func TestExtract_ScaledOverflow(t *testing.T) {
	tests := []struct {
		name    string
		image   []byte
		signed  bool
		factor  float64
		wantErr bool
	}{
		{"positive overflow", []byte{0x7F, 0xFF, 0x00, 0x01}, false, 1e308, true},
		{"negative overflow", []byte{0x80, 0x00, 0x00, 0x01}, true, 1e308, true},
		{"large but finite", []byte{0x7F, 0xFF, 0x00, 0x01}, false, 1e300, false},
		{"zero raw value", []byte{0x00, 0x00, 0x00, 0x00}, false, math.MaxFloat64, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := mustDefinition(t, DefinitionPayload{
				Name:             "scaled",
				Columns:          2,
				Rows:             1,
				DataType:         "16bit_hi_lo",
				IsSigned:         tt.signed,
				ConversionFactor: factor(tt.factor),
			})

			g, err := Extract(tt.image, def)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Extract() error = %v", err)
				}
				for _, v := range g.Values() {
					if math.IsInf(v, 0) || math.IsNaN(v) {
						t.Errorf("grid holds non-finite value %v", v)
					}
				}
				return
			}

			if !errors.Is(err, ErrInvalidDefinition) {
				t.Fatalf("Extract() error = %v, want ErrInvalidDefinition", err)
			}
			var de *DefinitionError
			if !errors.As(err, &de) || de.Field != "conversion_factor" {
				t.Errorf("error = %#v, want a conversion_factor DefinitionError", err)
			}
			if g != nil {
				t.Error("Extract() returned a partial grid on overflow")
			}
		})
	}
}

func TestExtract_BoundaryExactness(t *testing.T) {
	for _, enc := range []string{"8bit", "16bit_hi_lo", "16bit_lo_hi"} {
		t.Run(enc, func(t *testing.T) {
			def := mustDefinition(t, DefinitionPayload{Name: "b", StartAddress: 4, Columns: 3, Rows: 2, DataType: enc})
			exact := make([]byte, def.EndAddress())

			g, err := Extract(exact, def)
			if err != nil {
				t.Fatalf("end == len: Extract() error = %v", err)
			}
			if g.Rows() != 2 || g.Columns() != 3 {
				t.Errorf("grid shape = %dx%d, want 2x3", g.Rows(), g.Columns())
			}

			_, err = Extract(exact[:len(exact)-1], def)
			if !errors.Is(err, ErrOutOfBoundsRead) {
				t.Errorf("end == len+1: Extract() error = %v, want ErrOutOfBoundsRead", err)
			}
		})
	}
}

func TestExtract_RowMajor(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6}
	def := mustDefinition(t, DefinitionPayload{Name: "r", Columns: 3, Rows: 2, DataType: "8bit"})
	g, err := Extract(buf, def)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	assertGrid(t, g, [][]float64{{1, 2, 3}, {4, 5, 6}})
}

func TestExtract_ScalingLinearity(t *testing.T) {
	values := []int64{-300, -1, 0, 1, 77, 32767}
	buf, err := Encode(values, S16LE)
	if err != nil {
		t.Fatal(err)
	}

	base := mustDefinition(t, DefinitionPayload{Name: "s", Columns: 3, Rows: 2, DataType: "s16le"})
	raw, err := Extract(buf, base)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, k := range []float64{0.1, 0.75, -2, 1e-3, 0} {
		scaled := mustDefinition(t, DefinitionPayload{Name: "s", Columns: 3, Rows: 2, DataType: "s16le", ConversionFactor: factor(k)})
		g, err := Extract(buf, scaled)
		if err != nil {
			t.Fatalf("Extract(k=%v) error = %v", k, err)
		}
		rv, gv := raw.Values(), g.Values()
		for i := range rv {
			if gv[i] != k*rv[i] {
				t.Errorf("k=%v value[%d] = %v, want %v", k, i, gv[i], k*rv[i])
			}
		}
	}
}

func TestExtract_RoundTripIntegers(t *testing.T) {
	values := []int64{0, 100, 200, 300}
	for _, enc := range []Encoding{U16BE, S16BE, U16LE, S16LE} {
		buf, _ := Encode(values, enc)
		def := mustDefinition(t, DefinitionPayload{Name: "rt", Columns: 2, Rows: 2, DataType: enc.String()})
		g, err := Extract(buf, def)
		if err != nil {
			t.Fatalf("%v: Extract() error = %v", enc, err)
		}
		for i, v := range g.Values() {
			if v != float64(values[i]) {
				t.Errorf("%v: value[%d] = %v, want %d", enc, i, v, values[i])
			}
		}
	}
}

func TestExtract_DoesNotMutateBuffer(t *testing.T) {
	buf := []byte{9, 8, 7, 6}
	orig := append([]byte(nil), buf...)
	def := mustDefinition(t, DefinitionPayload{Name: "m", Columns: 2, Rows: 1, ConversionFactor: factor(3)})
	if _, err := Extract(buf, def); err != nil {
		t.Fatal(err)
	}
	for i := range buf {
		if buf[i] != orig[i] {
			t.Fatalf("buffer modified at %d", i)
		}
	}
}

func TestExtractAll(t *testing.T) {
	buf := []byte{0x00, 0x0A, 0x00, 0x14, 0xFF}
	defs := []Definition{
		mustDefinition(t, DefinitionPayload{Name: "be", Columns: 2, Rows: 1}),
		mustDefinition(t, DefinitionPayload{Name: "tail", StartAddress: 4, Columns: 1, Rows: 1, DataType: "8bit", IsSigned: true}),
		mustDefinition(t, DefinitionPayload{Name: "oob", StartAddress: 4, Columns: 2, Rows: 1, DataType: "8bit"}),
	}

	results, err := ExtractAll(context.Background(), buf, defs, 2)
	if err != nil {
		t.Fatalf("ExtractAll() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, r := range results {
		if r.Definition.Name() != defs[i].Name() {
			t.Errorf("result %d is %q, want %q", i, r.Definition.Name(), defs[i].Name())
		}
	}
	if results[0].Err != nil || results[0].Grid.At(0, 1) != 20 {
		t.Errorf("be: %+v", results[0])
	}
	if results[1].Err != nil || results[1].Grid.At(0, 0) != -1 {
		t.Errorf("tail: %+v", results[1])
	}
	if !errors.Is(results[2].Err, ErrOutOfBoundsRead) || results[2].Grid != nil {
		t.Errorf("oob: %+v", results[2])
	}
}

func TestExtractAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	def := mustDefinition(t, DefinitionPayload{Name: "c", Columns: 1, Rows: 1, DataType: "8bit"})
	_, err := ExtractAll(ctx, []byte{1}, []Definition{def}, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ExtractAll() error = %v, want context.Canceled", err)
	}
}
