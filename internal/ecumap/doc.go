// Package ecumap extracts calibration maps from raw ECU firmware images.
//
// A map is a rectangular table of fixed-width integers stored at a known
// offset inside the image. Callers describe where a map lives with a
// [Definition] and pull it out with [Extract]:
//
//	def, err := ecumap.NewDefinition(ecumap.DefinitionPayload{
//	    Name:         "Boost target",
//	    StartAddress: 0x1A40,
//	    Columns:      16,
//	    Rows:         12,
//	    DataType:     "16bit_hi_lo",
//	})
//	if err != nil {
//	    return err
//	}
//	grid, err := ecumap.Extract(image, def)
//
// # Encodings
//
// Six element encodings are supported, see [Encoding]. The wire tokens
// "8bit", "16bit_hi_lo" and "16bit_lo_hi" are combined with an is_signed flag
// to select one of them.
//
// # Errors
//
// Every failure is reported through one of three sentinels, matched with
// errors.Is:
//
//   - [ErrInvalidDefinition]: bad dimensions, negative address, unknown token
//   - [ErrUnsupportedEncoding]: an Encoding value outside the enumeration
//   - [ErrOutOfBoundsRead]: the map extends past the end of the image
//
// The concrete types ([DefinitionError], [UnsupportedEncodingError],
// [OutOfBoundsError]) carry the details and can be retrieved with errors.As.
//
// Nothing in this package mutates the firmware buffer, so any number of
// extractions may run concurrently against the same image.
package ecumap
