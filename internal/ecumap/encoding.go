package ecumap

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Encoding identifies how a single map element is stored: byte width,
// signedness and byte order.
type Encoding uint8

// Supported element encodings. The zero value is deliberately not one of
// them so an unset Encoding never validates.
const (
	encodingInvalid Encoding = iota
	U8
	S8
	U16BE
	S16BE
	U16LE
	S16LE
)

// Wire tokens accepted in definition payloads.
const (
	Token8Bit      = "8bit"
	Token16BitHiLo = "16bit_hi_lo"
	Token16BitLoHi = "16bit_lo_hi"

	// DefaultToken is used when a payload leaves data_type empty.
	DefaultToken = Token16BitHiLo
)

var encodingNames = [...]string{
	encodingInvalid: "invalid",
	U8:              "u8",
	S8:              "s8",
	U16BE:           "u16be",
	S16BE:           "s16be",
	U16LE:           "u16le",
	S16LE:           "s16le",
}

// Encodings returns all supported encodings in declaration order.
func Encodings() []Encoding {
	return []Encoding{U8, S8, U16BE, S16BE, U16LE, S16LE}
}

// Valid reports whether e is one of the supported encodings.
func (e Encoding) Valid() bool {
	return e >= U8 && e <= S16LE
}

// Width returns the element size in bytes, or 0 for an invalid encoding.
func (e Encoding) Width() int {
	switch e {
	case U8, S8:
		return 1
	case U16BE, S16BE, U16LE, S16LE:
		return 2
	default:
		return 0
	}
}

// Signed reports whether elements are two's complement.
func (e Encoding) Signed() bool {
	return e == S8 || e == S16BE || e == S16LE
}

// Order returns the byte order of multi-byte encodings. Single-byte
// encodings have no byte order and return nil.
func (e Encoding) Order() binary.ByteOrder {
	switch e {
	case U16BE, S16BE:
		return binary.BigEndian
	case U16LE, S16LE:
		return binary.LittleEndian
	default:
		return nil
	}
}

// Token returns the wire token for e (without signedness).
func (e Encoding) Token() string {
	switch e {
	case U8, S8:
		return Token8Bit
	case U16BE, S16BE:
		return Token16BitHiLo
	case U16LE, S16LE:
		return Token16BitLoHi
	default:
		return ""
	}
}

func (e Encoding) String() string {
	if int(e) < len(encodingNames) {
		return encodingNames[e]
	}
	return "invalid"
}

// ParseEncoding resolves a wire token and signedness flag to an Encoding.
//
// Wire tokens ("8bit", "16bit_hi_lo", "16bit_lo_hi") take their signedness
// from the flag. Canonical names ("u8", "s16le", ...) carry their own
// signedness and the flag is ignored. An empty token selects [DefaultToken].
func ParseEncoding(token string, signed bool) (Encoding, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		t = DefaultToken
	}

	switch t {
	case Token8Bit:
		if signed {
			return S8, nil
		}
		return U8, nil
	case Token16BitHiLo:
		if signed {
			return S16BE, nil
		}
		return U16BE, nil
	case Token16BitLoHi:
		if signed {
			return S16LE, nil
		}
		return U16LE, nil
	}

	for _, e := range Encodings() {
		if t == e.String() {
			return e, nil
		}
	}

	return encodingInvalid, &DefinitionError{
		Field:  "data_type",
		Reason: fmt.Sprintf("unrecognized encoding %q", token),
	}
}
