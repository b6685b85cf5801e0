package ecumap

import (
	"errors"
	"testing"
)

func TestDecode(t *testing.T) {
	data := []byte{0x00, 0x0A, 0xFF, 0xFE}

	tests := []struct {
		enc   Encoding
		count int
		want  []int64
	}{
		{U8, 4, []int64{0, 10, 255, 254}},
		{S8, 4, []int64{0, 10, -1, -2}},
		{U16BE, 2, []int64{10, 65534}},
		{S16BE, 2, []int64{10, -2}},
		{U16LE, 2, []int64{2560, 65279}},
		{S16LE, 2, []int64{2560, -257}},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			got, err := Decode(data[:tt.count*tt.enc.Width()], tt.enc, tt.count)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if len(got) != tt.count {
				t.Fatalf("len = %d, want %d", len(got), tt.count)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("value[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecode_UnsupportedEncoding(t *testing.T) {
	for _, enc := range []Encoding{0, 7, 255} {
		_, err := Decode([]byte{0x01}, enc, 1)
		if !errors.Is(err, ErrUnsupportedEncoding) {
			t.Errorf("Decode(enc=%d) error = %v, want ErrUnsupportedEncoding", enc, err)
		}
		var ue *UnsupportedEncodingError
		if !errors.As(err, &ue) || ue.Encoding != enc {
			t.Errorf("Decode(enc=%d) should return *UnsupportedEncodingError carrying the value", enc)
		}
	}
}

func TestDecode_SignSensitivity(t *testing.T) {
	u, _ := Decode([]byte{0xFF}, U8, 1)
	s, _ := Decode([]byte{0xFF}, S8, 1)
	if u[0] != 255 || s[0] != -1 {
		t.Errorf("0xFF decoded as %d/%d, want 255/-1", u[0], s[0])
	}

	// 0x8000 is the first value at half-range.
	u16, _ := Decode([]byte{0x80, 0x00}, U16BE, 1)
	s16, _ := Decode([]byte{0x80, 0x00}, S16BE, 1)
	if u16[0] != 32768 || s16[0] != -32768 {
		t.Errorf("0x8000 decoded as %d/%d, want 32768/-32768", u16[0], s16[0])
	}
}

func TestDecode_ByteOrderSensitivity(t *testing.T) {
	pair := []byte{0x12, 0x34}
	be, _ := Decode(pair, U16BE, 1)
	le, _ := Decode(pair, U16LE, 1)
	if be[0] == le[0] {
		t.Errorf("big- and little-endian decode agree (%d) for non-palindromic pair", be[0])
	}
	if be[0] != 0x1234 || le[0] != 0x3412 {
		t.Errorf("got be=0x%X le=0x%X", be[0], le[0])
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		enc    Encoding
		values []int64
	}{
		{U8, []int64{0, 1, 127, 128, 255}},
		{S8, []int64{-128, -1, 0, 1, 127}},
		{U16BE, []int64{0, 1, 255, 256, 32768, 65535}},
		{S16BE, []int64{-32768, -256, -1, 0, 1, 32767}},
		{U16LE, []int64{0, 1, 255, 256, 32768, 65535}},
		{S16LE, []int64{-32768, -256, -1, 0, 1, 32767}},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			data, err := Encode(tt.values, tt.enc)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if len(data) != len(tt.values)*tt.enc.Width() {
				t.Fatalf("encoded length = %d", len(data))
			}
			got, err := Decode(data, tt.enc, len(tt.values))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			for i, want := range tt.values {
				if got[i] != want {
					t.Errorf("value[%d] = %d, want %d", i, got[i], want)
				}
			}
		})
	}
}
