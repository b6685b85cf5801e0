// Package core provides the service layer around the ecumap decoder.
//
// The decoder itself (package ecumap) is pure: bytes and a definition in,
// grid out. This package adds what a running service needs around it and
// can be used by the HTTP server, the CLI, or tests without modification.
//
// # Firmware Store
//
// Uploaded images are validated (extension, size, non-empty), fingerprinted
// with BLAKE3 and held in memory under a UUID for the configured TTL. An
// image is never modified after it is stored, so concurrent extractions
// share it without locking. A background sweep evicts expired images, see
// [Service.StartEvictionScheduler].
//
// # Extraction
//
// Definitions arrive as loosely typed payloads and are turned into
// validated ecumap.Definition values exactly once, at the service
// boundary. Every upload and extraction holds a slot from the
// [SlotLimiter] while it runs.
//
// # Upload History
//
// When a database is configured, stored images are recorded in the
// firmware_uploads table through a [HistoryStore]. History failures are
// logged and never fail an upload.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - MAP001-MAP003: Map definition and extraction errors
//   - FILE001-FILE005: Uploaded file errors
//   - FW001: Unknown or expired firmware ID
//   - BUSY001-BUSY002, REQ001-REQ003, RATE001: Capacity and request errors
package core
