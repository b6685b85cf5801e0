package core

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"invalid definition", &ecumap.DefinitionError{Field: "rows", Reason: "must be positive"}, "MAP001"},
		{"unsupported encoding", &ecumap.UnsupportedEncodingError{Encoding: 42}, "MAP002"},
		{"out of bounds", &ecumap.OutOfBoundsError{Address: 0x10, ByteCount: 32, BufferLen: 16}, "MAP003"},
		{"wrapped out of bounds", fmt.Errorf("extract fuel: %w", &ecumap.OutOfBoundsError{}), "MAP003"},
		{"file too large sentinel", fmt.Errorf("%w: 99 bytes", ErrFileTooLarge), "FILE001"},
		{"file too large text", errors.New("http: request body too large: file too large"), "FILE001"},
		{"invalid file type", ErrInvalidFileType, "FILE002"},
		{"library parse failure", errors.New("parse library: unexpected end of JSON input"), "FILE003"},
		{"no file", ErrNoFile, "FILE004"},
		{"empty file", ErrEmptyFile, "FILE005"},
		{"firmware not found", fmt.Errorf("%w: abc", ErrFirmwareNotFound), "FW001"},
		{"busy", ErrTooManyRequests, "BUSY001"},
		{"batch too large", ErrBatchTooLarge, "BUSY002"},
		{"cancelled", context.Canceled, "REQ001"},
		{"deadline", fmt.Errorf("extract: %w", context.DeadlineExceeded), "REQ002"},
		{"malformed request", errors.New("bad request: definition_json: unexpected EOF"), "REQ003"},
		{"rate limit case insensitive", errors.New("Rate Limit exceeded"), "RATE001"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Error("MapError() returned empty message")
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyFile)

	expected := "The uploaded file is empty (Code: FILE005). Please upload a complete firmware image"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"typed error is user facing", ErrFirmwareNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := &ecumap.OutOfBoundsError{Address: 0x100, ByteCount: 4, BufferLen: 0x80}
		userErr := NewUserError(techErr)

		if userErr.Error() != "The map extends past the end of the firmware image" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ecumap.ErrOutOfBoundsRead) {
			t.Error("Unwrap() should expose the original error")
		}

		var oob *ecumap.OutOfBoundsError
		if !errors.As(userErr, &oob) || oob.BufferLen != 0x80 {
			t.Errorf("errors.As() did not recover details: %+v", oob)
		}
	})
}
