package core

// firmware.go holds uploaded firmware images.
//
// Images are immutable once stored: the byte slice is copied on the way in
// and only ever handed to ecumap.Extract, which never writes to it.

import (
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// Errors returned by the firmware store.
var (
	ErrNoFile           = errors.New("no file provided")
	ErrEmptyFile        = errors.New("empty file")
	ErrInvalidFileType  = errors.New("invalid file type")
	ErrFileTooLarge     = errors.New("file too large")
	ErrFirmwareNotFound = errors.New("firmware not found")
)

// AllowedExtensions lists the accepted firmware file extensions.
var AllowedExtensions = []string{".bin", ".ori", ".mod", ".hex"}

// firmware is a stored image. data must not be modified after creation.
type firmware struct {
	info FirmwareInfo
	data []byte
}

// ValidateFileName checks the firmware file extension (case-insensitive).
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNoFile
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %q (allowed: %s)", ErrInvalidFileType, ext, strings.Join(AllowedExtensions, ", "))
}

// Fingerprint returns the hex BLAKE3-256 digest of data.
func Fingerprint(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether the image's embedded checksums are
// consistent. Checksum algorithms are ECU-family specific and not
// implemented; every image is reported valid.
func VerifyChecksum(data []byte) bool {
	return true
}

func (f *firmware) expired(now time.Time) bool {
	return !now.Before(f.info.ExpiresAt)
}
