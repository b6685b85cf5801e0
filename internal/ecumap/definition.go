package ecumap

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultConversionFactor is applied when a payload omits conversion_factor.
const DefaultConversionFactor = 1.0

// Address is a byte offset into a firmware image. In JSON and YAML it may be
// written as a number or as a string ("6720", "0x1A40").
type Address int64

// ParseAddress parses a decimal or 0x-prefixed hexadecimal offset.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	var (
		v   int64
		err error
	)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		v, err = strconv.ParseInt(s[2:], 16, 64)
	} else {
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return Address(v), nil
}

// UnmarshalJSON accepts both numeric and string addresses.
func (a *Address) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := ParseAddress(s)
		if err != nil {
			return err
		}
		*a = v
		return nil
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid address %s", data)
	}
	*a = Address(v)
	return nil
}

func (a Address) String() string {
	return fmt.Sprintf("0x%X", int64(a))
}

// DefinitionPayload is the loosely typed definition record received from
// callers (JSON form fields, definition library files, CLI flags). It is
// turned into a Definition exactly once, by NewDefinition.
type DefinitionPayload struct {
	Name             string   `json:"name" yaml:"name"`
	StartAddress     Address  `json:"start_address" yaml:"start_address"`
	Columns          int      `json:"columns" yaml:"columns"`
	Rows             int      `json:"rows" yaml:"rows"`
	DataType         string   `json:"data_type,omitempty" yaml:"data_type,omitempty"`
	ElementEncoding  string   `json:"element_encoding,omitempty" yaml:"element_encoding,omitempty"`
	IsSigned         bool     `json:"is_signed" yaml:"is_signed"`
	ConversionFactor *float64 `json:"conversion_factor,omitempty" yaml:"conversion_factor,omitempty"`
	Description      string   `json:"description,omitempty" yaml:"description,omitempty"`
	Unit             string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// Definition is a validated, immutable description of one map. The zero
// value is not valid; build one with NewDefinition.
type Definition struct {
	name        string
	description string
	unit        string
	start       int
	columns     int
	rows        int
	encoding    Encoding
	factor      float64
}

// NewDefinition validates p and returns the corresponding Definition.
// All failures match ErrInvalidDefinition.
func NewDefinition(p DefinitionPayload) (Definition, error) {
	token := p.DataType
	if token == "" {
		token = p.ElementEncoding
	} else if p.ElementEncoding != "" && !strings.EqualFold(p.ElementEncoding, p.DataType) {
		return Definition{}, &DefinitionError{
			Name:   p.Name,
			Field:  "element_encoding",
			Reason: fmt.Sprintf("conflicts with data_type %q", p.DataType),
		}
	}

	enc, err := ParseEncoding(token, p.IsSigned)
	if err != nil {
		var de *DefinitionError
		if errors.As(err, &de) {
			de.Name = p.Name
		}
		return Definition{}, err
	}

	factor := DefaultConversionFactor
	if p.ConversionFactor != nil {
		factor = *p.ConversionFactor
	}

	if p.StartAddress < 0 {
		return Definition{}, &DefinitionError{Name: p.Name, Field: "start_address", Reason: "must not be negative"}
	}
	if int64(p.StartAddress) > math.MaxInt {
		return Definition{}, &DefinitionError{Name: p.Name, Field: "start_address", Reason: "exceeds addressable range"}
	}

	d := Definition{
		name:        p.Name,
		description: p.Description,
		unit:        p.Unit,
		start:       int(p.StartAddress),
		columns:     p.Columns,
		rows:        p.Rows,
		encoding:    enc,
		factor:      factor,
	}
	if err := d.validate(); err != nil {
		return Definition{}, err
	}
	return d, nil
}

// validate enforces the Definition invariants. Extract calls it again so a
// zero Definition never reaches the buffer.
func (d Definition) validate() error {
	fail := func(field, reason string) error {
		return &DefinitionError{Name: d.name, Field: field, Reason: reason}
	}

	switch {
	case d.rows <= 0:
		return fail("rows", fmt.Sprintf("must be positive, got %d", d.rows))
	case d.columns <= 0:
		return fail("columns", fmt.Sprintf("must be positive, got %d", d.columns))
	case d.start < 0:
		return fail("start_address", "must not be negative")
	case !d.encoding.Valid():
		return fail("data_type", "unrecognized encoding")
	case math.IsNaN(d.factor) || math.IsInf(d.factor, 0):
		return fail("conversion_factor", "must be a finite number")
	}

	if d.columns > math.MaxInt/d.rows {
		return fail("columns", "rows*columns overflows")
	}
	count := d.rows * d.columns
	if count > math.MaxInt/d.encoding.Width() {
		return fail("columns", "byte extent overflows")
	}
	if d.start > math.MaxInt-count*d.encoding.Width() {
		return fail("start_address", "end address overflows")
	}
	return nil
}

func (d Definition) Name() string              { return d.name }
func (d Definition) Description() string       { return d.description }
func (d Definition) Unit() string              { return d.unit }
func (d Definition) StartAddress() int         { return d.start }
func (d Definition) Columns() int              { return d.columns }
func (d Definition) Rows() int                 { return d.rows }
func (d Definition) Encoding() Encoding        { return d.encoding }
func (d Definition) ConversionFactor() float64 { return d.factor }

// ElementCount is rows * columns.
func (d Definition) ElementCount() int {
	return d.rows * d.columns
}

// ByteCount is the number of bytes the map occupies in the image.
func (d Definition) ByteCount() int {
	return d.ElementCount() * d.encoding.Width()
}

// EndAddress is the first offset past the map.
func (d Definition) EndAddress() int {
	return d.start + d.ByteCount()
}

// Payload converts d back to its wire representation.
func (d Definition) Payload() DefinitionPayload {
	factor := d.factor
	return DefinitionPayload{
		Name:             d.name,
		StartAddress:     Address(d.start),
		Columns:          d.columns,
		Rows:             d.rows,
		DataType:         d.encoding.Token(),
		IsSigned:         d.encoding.Signed(),
		ConversionFactor: &factor,
		Description:      d.description,
		Unit:             d.unit,
	}
}

func (d Definition) String() string {
	return fmt.Sprintf("%s@0x%X[%dx%d %s *%g]", d.name, d.start, d.rows, d.columns, d.encoding, d.factor)
}
