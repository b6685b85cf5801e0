package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ecumap/internal/core"
	"github.com/JonMunkholm/ecumap/internal/web/templates"
)

// multipartOverhead is allowed on top of the firmware size for form
// boundaries and the other fields.
const multipartOverhead = 1 << 20

// handleUpload stores a firmware image sent as multipart field "file".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	fileName, data, err := s.readFormFile(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	info, err := s.service.StoreFirmware(ctx, fileName, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.render(w, r, templates.FirmwareCard(info))
		return
	}
	writeJSON(w, info)
}

// readFormFile parses a multipart form bounded by the firmware size limit
// and returns the "file" field's name and content.
func (s *Server) readFormFile(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	if err := s.parseMultipart(w, r); err != nil {
		return "", nil, err
	}
	maxSize := s.cfg.Upload.MaxFileSize

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, core.ErrNoFile
	}
	defer file.Close()

	if header.Size > maxSize {
		return "", nil, fmt.Errorf("%w: %d bytes exceeds %d", core.ErrFileTooLarge, header.Size, maxSize)
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return header.Filename, data, nil
}

// parseMultipart parses a multipart form whose body is bounded by the
// firmware size limit. A body over the limit yields ErrFileTooLarge.
func (s *Server) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: invalid multipart form: %v", errBadRequest, err)
	}
	return nil
}

// handleGetFirmware returns the metadata of a stored image.
func (s *Server) handleGetFirmware(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.Firmware(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, info)
}

// handleListFirmware returns the stored images, newest first.
func (s *Server) handleListFirmware(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"firmware": s.service.ListFirmware(),
	})
}

// handleRecentUploads returns the upload history. The list is empty when
// no database is configured.
func (s *Server) handleRecentUploads(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	records, err := s.service.RecentUploads(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"history_enabled": s.service.HistoryEnabled(),
		"uploads":         records,
	})
}
