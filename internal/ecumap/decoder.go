package ecumap

import "encoding/binary"

// Decode interprets data as count consecutive elements of the given
// encoding and returns their raw integer values, before any scaling.
//
// The caller guarantees len(data) == enc.Width()*count; Decode does not
// re-check the bounds. It never retains or modifies data.
func Decode(data []byte, enc Encoding, count int) ([]int64, error) {
	out := make([]int64, count)

	switch enc {
	case U8:
		for i := range out {
			out[i] = int64(data[i])
		}
	case S8:
		for i := range out {
			out[i] = int64(int8(data[i]))
		}
	case U16BE:
		for i := range out {
			out[i] = int64(binary.BigEndian.Uint16(data[2*i:]))
		}
	case S16BE:
		for i := range out {
			out[i] = int64(int16(binary.BigEndian.Uint16(data[2*i:])))
		}
	case U16LE:
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint16(data[2*i:]))
		}
	case S16LE:
		for i := range out {
			out[i] = int64(int16(binary.LittleEndian.Uint16(data[2*i:])))
		}
	default:
		return nil, &UnsupportedEncodingError{Encoding: enc}
	}

	return out, nil
}

// Encode is the inverse of Decode. Values are truncated to the element
// width. It is used to build test images and to write maps back out.
func Encode(values []int64, enc Encoding) ([]byte, error) {
	if !enc.Valid() {
		return nil, &UnsupportedEncodingError{Encoding: enc}
	}

	out := make([]byte, len(values)*enc.Width())
	for i, v := range values {
		switch enc {
		case U8, S8:
			out[i] = byte(v)
		case U16BE, S16BE:
			binary.BigEndian.PutUint16(out[2*i:], uint16(v))
		case U16LE, S16LE:
			binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
		}
	}
	return out, nil
}
