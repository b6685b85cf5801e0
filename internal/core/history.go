package core

// history.go records firmware uploads in PostgreSQL.
//
// History is optional: the server runs without a database and simply skips
// recording. Recording failures are logged by the caller and never fail the
// upload itself.

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// HistoryStore persists upload records.
type HistoryStore interface {
	Record(ctx context.Context, rec UploadRecord) error
	Recent(ctx context.Context, limit int) ([]UploadRecord, error)
}

const createUploadsTable = `
CREATE TABLE IF NOT EXISTS firmware_uploads (
	id             UUID PRIMARY KEY,
	filename       TEXT NOT NULL,
	size_bytes     BIGINT NOT NULL,
	blake3         TEXT NOT NULL,
	checksum_valid BOOLEAN NOT NULL,
	ip_address     TEXT,
	user_agent     TEXT,
	uploaded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS firmware_uploads_uploaded_at_idx
	ON firmware_uploads (uploaded_at DESC);`

const insertUpload = `
INSERT INTO firmware_uploads
	(id, filename, size_bytes, blake3, checksum_valid, ip_address, user_agent, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const selectRecentUploads = `
SELECT id, filename, size_bytes, blake3, checksum_valid, ip_address, user_agent, uploaded_at
FROM firmware_uploads
ORDER BY uploaded_at DESC
LIMIT $1`

// PostgresHistory is a HistoryStore backed by a pgx connection or pool.
type PostgresHistory struct {
	db DBTX
}

// NewPostgresHistory wraps db (typically a *pgxpool.Pool).
func NewPostgresHistory(db DBTX) *PostgresHistory {
	return &PostgresHistory{db: db}
}

// EnsureSchema creates the history table if it does not exist.
func (h *PostgresHistory) EnsureSchema(ctx context.Context) error {
	if _, err := h.db.Exec(ctx, createUploadsTable); err != nil {
		return fmt.Errorf("create firmware_uploads: %w", err)
	}
	return nil
}

// Record inserts one upload record.
func (h *PostgresHistory) Record(ctx context.Context, rec UploadRecord) error {
	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return fmt.Errorf("parse upload id: %w", err)
	}

	_, err = h.db.Exec(ctx, insertUpload,
		pgtype.UUID{Bytes: id, Valid: true},
		rec.FileName,
		rec.SizeBytes,
		rec.BLAKE3,
		rec.ChecksumValid,
		toPgText(rec.IPAddress),
		toPgText(rec.UserAgent),
		pgtype.Timestamptz{Time: rec.UploadedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert upload record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (h *PostgresHistory) Recent(ctx context.Context, limit int) ([]UploadRecord, error) {
	rows, err := h.db.Query(ctx, selectRecentUploads, limit)
	if err != nil {
		return nil, fmt.Errorf("query upload history: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanUploadRecord)
	if err != nil {
		return nil, fmt.Errorf("scan upload history: %w", err)
	}
	return records, nil
}

func scanUploadRecord(row pgx.CollectableRow) (UploadRecord, error) {
	var (
		id         pgtype.UUID
		rec        UploadRecord
		ip, ua     pgtype.Text
		uploadedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &rec.FileName, &rec.SizeBytes, &rec.BLAKE3, &rec.ChecksumValid, &ip, &ua, &uploadedAt)
	if err != nil {
		return UploadRecord{}, err
	}

	rec.ID = uuid.UUID(id.Bytes).String()
	rec.IPAddress = ip.String
	rec.UserAgent = ua.String
	rec.UploadedAt = uploadedAt.Time
	return rec, nil
}

// toPgText converts a string to pgtype.Text; empty strings become NULL.
func toPgText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
