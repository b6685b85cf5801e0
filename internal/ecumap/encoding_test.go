package ecumap

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		token  string
		signed bool
		want   Encoding
	}{
		{"8bit", false, U8},
		{"8bit", true, S8},
		{"16bit_hi_lo", false, U16BE},
		{"16bit_hi_lo", true, S16BE},
		{"16bit_lo_hi", false, U16LE},
		{"16bit_lo_hi", true, S16LE},
		{"", false, U16BE},
		{"", true, S16BE},
		{"  16BIT_LO_HI ", false, U16LE},
		{"s16le", false, S16LE},
		{"U8", true, U8},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseEncoding(tt.token, tt.signed)
			if err != nil {
				t.Fatalf("ParseEncoding(%q, %v) error = %v", tt.token, tt.signed, err)
			}
			if got != tt.want {
				t.Errorf("ParseEncoding(%q, %v) = %v, want %v", tt.token, tt.signed, got, tt.want)
			}
		})
	}
}

func TestParseEncoding_Unknown(t *testing.T) {
	for _, token := range []string{"32bit", "float", "16bit", "invalid"} {
		_, err := ParseEncoding(token, false)
		if !errors.Is(err, ErrInvalidDefinition) {
			t.Errorf("ParseEncoding(%q) error = %v, want ErrInvalidDefinition", token, err)
		}
	}
}

func TestEncodingProperties(t *testing.T) {
	tests := []struct {
		enc    Encoding
		width  int
		signed bool
		order  binary.ByteOrder
	}{
		{U8, 1, false, nil},
		{S8, 1, true, nil},
		{U16BE, 2, false, binary.BigEndian},
		{S16BE, 2, true, binary.BigEndian},
		{U16LE, 2, false, binary.LittleEndian},
		{S16LE, 2, true, binary.LittleEndian},
	}

	for _, tt := range tests {
		t.Run(tt.enc.String(), func(t *testing.T) {
			if !tt.enc.Valid() {
				t.Fatal("Valid() = false")
			}
			if got := tt.enc.Width(); got != tt.width {
				t.Errorf("Width() = %d, want %d", got, tt.width)
			}
			if got := tt.enc.Signed(); got != tt.signed {
				t.Errorf("Signed() = %v, want %v", got, tt.signed)
			}
			if got := tt.enc.Order(); got != tt.order {
				t.Errorf("Order() = %v, want %v", got, tt.order)
			}

			back, err := ParseEncoding(tt.enc.Token(), tt.enc.Signed())
			if err != nil || back != tt.enc {
				t.Errorf("ParseEncoding(Token()) = %v, %v; want %v", back, err, tt.enc)
			}
		})
	}

	var zero Encoding
	if zero.Valid() || zero.Width() != 0 {
		t.Error("zero Encoding should be invalid with width 0")
	}
	if Encoding(200).Valid() {
		t.Error("Encoding(200) should be invalid")
	}
}
