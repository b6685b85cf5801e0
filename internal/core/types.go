package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/ecumap/internal/ecumap"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// FirmwareInfo is the metadata of a stored firmware image.
type FirmwareInfo struct {
	ID            string    `json:"id"`
	FileName      string    `json:"filename"`
	Size          int       `json:"size"`
	BLAKE3        string    `json:"blake3"`
	Status        string    `json:"status"`
	ChecksumValid bool      `json:"checksum_valid"`
	UploadedAt    time.Time `json:"uploaded_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Extraction is the outcome of extracting one map.
type Extraction struct {
	FirmwareID string
	Definition ecumap.Definition
	Grid       *ecumap.Grid
	Duration   time.Duration
}

// MapResult is one entry of a batch extraction. Exactly one of Grid and Err
// is set.
type MapResult struct {
	Name string
	Grid *ecumap.Grid
	Err  error
}

// UploadRecord is a row of the upload history.
type UploadRecord struct {
	ID            string    `json:"id"`
	FileName      string    `json:"filename"`
	SizeBytes     int64     `json:"size_bytes"`
	BLAKE3        string    `json:"blake3"`
	ChecksumValid bool      `json:"checksum_valid"`
	IPAddress     string    `json:"ip_address,omitempty"`
	UserAgent     string    `json:"user_agent,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}
