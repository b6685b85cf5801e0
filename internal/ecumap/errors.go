package ecumap

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package matches exactly one
// of them under errors.Is.
var (
	ErrInvalidDefinition   = errors.New("invalid map definition")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
	ErrOutOfBoundsRead     = errors.New("out-of-bounds read")
)

// DefinitionError reports a definition that failed validation.
type DefinitionError struct {
	Name   string // Map name, if known
	Field  string // Offending payload field
	Reason string
}

func (e *DefinitionError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid map definition %q: %s: %s", e.Name, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid map definition: %s: %s", e.Field, e.Reason)
}

func (e *DefinitionError) Is(target error) bool {
	return target == ErrInvalidDefinition
}

// UnsupportedEncodingError reports an Encoding value outside the enumeration.
// Reaching it means a Definition bypassed NewDefinition.
type UnsupportedEncodingError struct {
	Encoding Encoding
}

func (e *UnsupportedEncodingError) Error() string {
	return fmt.Sprintf("unsupported encoding: value %d", uint8(e.Encoding))
}

func (e *UnsupportedEncodingError) Is(target error) bool {
	return target == ErrUnsupportedEncoding
}

// OutOfBoundsError reports a map whose byte extent runs past the end of the
// firmware image.
type OutOfBoundsError struct {
	Address   int // Requested start offset
	ByteCount int // Bytes the map needs
	BufferLen int // Actual image length
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("out-of-bounds read: attempted to read %d bytes at 0x%X, file size is %d bytes",
		e.ByteCount, e.Address, e.BufferLen)
}

func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBoundsRead
}

// End returns the first offset past the attempted read.
func (e *OutOfBoundsError) End() int {
	return e.Address + e.ByteCount
}
