package core

// # Error Codes Reference
//
// User-facing errors carry a code that users can quote to support.
// Typed errors are matched with errors.Is first; anything else falls back to
// case-insensitive substring patterns on the error text.
//
// # Map Errors (MAP001-MAP099)
//
//	MAP001 - Invalid definition: The map definition is not valid
//	         Matches: ecumap.ErrInvalidDefinition
//
//	MAP002 - Unsupported encoding: The element encoding is not supported
//	         Matches: ecumap.ErrUnsupportedEncoding
//
//	MAP003 - Out of bounds: The map extends past the end of the firmware image
//	         Matches: ecumap.ErrOutOfBoundsRead
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large       Matches: ErrFileTooLarge, "file too large"
//	FILE002 - Invalid file type    Matches: ErrInvalidFileType
//	FILE003 - Invalid library      Matches: "parse library"
//	FILE004 - No file              Matches: ErrNoFile, "no file provided"
//	FILE005 - Empty file           Matches: ErrEmptyFile
//
// # Firmware Errors (FW001-FW099)
//
//	FW001 - Firmware not found: the image expired or never existed
//	        Matches: ErrFirmwareNotFound
//
// # Capacity Errors
//
//	BUSY001 - All processing slots are taken    Matches: ErrTooManyRequests
//	BUSY002 - Batch names too many maps         Matches: ErrBatchTooLarge
//	RATE001 - Client exceeded its rate limit    Matches: "rate limit"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled    Matches: context.Canceled
//	REQ002 - Request timed out    Matches: context.DeadlineExceeded
//	REQ003 - Malformed request    Matches: "bad request"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: check application logs for the technical error.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorKind maps a sentinel to its user message.
type errorKind struct {
	target error
	msg    UserMessage
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum firmware size",
		Action:  "Upload only the flash image, without container data",
		Code:    "FILE001",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Please select a firmware file to upload",
		Code:    "FILE004",
	}
)

// errorKinds is checked in order with errors.Is.
var errorKinds = []errorKind{
	{ecumap.ErrInvalidDefinition, UserMessage{
		Message: "The map definition is not valid",
		Action:  "Check rows, columns, start address and encoding",
		Code:    "MAP001",
	}},
	{ecumap.ErrUnsupportedEncoding, UserMessage{
		Message: "The element encoding is not supported",
		Action:  "Use 8bit, 16bit_hi_lo or 16bit_lo_hi",
		Code:    "MAP002",
	}},
	{ecumap.ErrOutOfBoundsRead, UserMessage{
		Message: "The map extends past the end of the firmware image",
		Action:  "Check the start address and dimensions against the file size",
		Code:    "MAP003",
	}},
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrInvalidFileType, UserMessage{
		Message: "File type is not a recognised firmware image",
		Action:  "Upload a .bin, .ori, .mod or .hex file",
		Code:    "FILE002",
	}},
	{ErrNoFile, msgNoFile},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a complete firmware image",
		Code:    "FILE005",
	}},
	{ErrFirmwareNotFound, UserMessage{
		Message: "Firmware image not found",
		Action:  "The image may have expired. Please upload it again",
		Code:    "FW001",
	}},
	{ErrTooManyRequests, UserMessage{
		Message: "System is busy processing other requests",
		Action:  "Please wait a moment and try again",
		Code:    "BUSY001",
	}},
	{ErrBatchTooLarge, UserMessage{
		Message: "Too many maps requested at once",
		Action:  "Split the definition library into smaller batches",
		Code:    "BUSY002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try again or request fewer maps",
		Code:    "REQ002",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers errors that arrive without a sentinel, for example
// from middleware. The first match wins.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg:     msgFileTooLarge,
	},
	{
		pattern: "parse library",
		msg: UserMessage{
			Message: "The definition library could not be parsed",
			Action:  "Check the JSON or YAML syntax of the library",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg:     msgNoFile,
	},
	{
		pattern: "bad request",
		msg: UserMessage{
			Message: "The request is malformed",
			Action:  "Check the request fields and JSON syntax",
			Code:    "REQ003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Typed
// errors are matched first, then text patterns (case-insensitive). If
// nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	_, err := ecumap.Extract(image, def)
//	msg := MapError(err)
//	// msg.Code == "MAP003" for an out-of-bounds map
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-friendly message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
