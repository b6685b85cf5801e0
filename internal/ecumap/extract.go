package ecumap

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// Extract reads the map described by def out of image.
//
// The image is only read. A failed extraction returns no partial grid:
// definitions that fail validation yield ErrInvalidDefinition, and maps that
// extend past the end of the image yield an *OutOfBoundsError. A map ending
// exactly at len(image) is valid. A factor that scales any element beyond
// the float64 range is reported as an invalid definition, so every returned
// grid holds finite values.
func Extract(image []byte, def Definition) (*Grid, error) {
	if err := def.validate(); err != nil {
		return nil, err
	}

	count := def.ElementCount()
	byteCount := def.ByteCount()
	end := def.start + byteCount

	if end > len(image) {
		return nil, &OutOfBoundsError{
			Address:   def.start,
			ByteCount: byteCount,
			BufferLen: len(image),
		}
	}

	raw, err := Decode(image[def.start:end:end], def.encoding, count)
	if err != nil {
		return nil, err
	}

	values := make([]float64, count)
	for i, v := range raw {
		scaled := float64(v) * def.factor
		if math.IsInf(scaled, 0) {
			return nil, &DefinitionError{
				Name:   def.name,
				Field:  "conversion_factor",
				Reason: fmt.Sprintf("scaled value of element %d (raw %d) overflows", i, v),
			}
		}
		values[i] = scaled
	}

	return &Grid{rows: def.rows, columns: def.columns, values: values}, nil
}

// Result pairs a definition with the outcome of extracting it.
type Result struct {
	Definition Definition
	Grid       *Grid
	Err        error
}

// ExtractAll extracts every definition from image concurrently, running at
// most limit extractions at once (limit <= 0 means unbounded). Results are
// returned in the order of defs; per-map failures are reported in
// Result.Err rather than aborting the batch. The only error returned is the
// context's.
func ExtractAll(ctx context.Context, image []byte, defs []Definition, limit int) ([]Result, error) {
	results := make([]Result, len(defs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, def := range defs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			grid, err := Extract(image, def)
			results[i] = Result{Definition: def, Grid: grid, Err: err}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
