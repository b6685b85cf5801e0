package web

// handlers_common.go holds the page, health and tool handlers and the
// helpers shared across handlers.

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/ecumap/internal/core"
	"github.com/JonMunkholm/ecumap/internal/ecumap"
	"github.com/JonMunkholm/ecumap/internal/web/templates"
)

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// render writes an HTML component with a 200 status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("template render error", "path", r.URL.Path, "error", err)
	}
}

// handleIndex serves the landing page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, templates.Index(templates.IndexData{
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		Firmware:    s.service.ListFirmware(),
		Strategies:  core.Strategies(),
	}))
}

// handleHealth reports liveness and current load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":          "ok",
		"stored_images":   s.service.StoredCount(),
		"history_enabled": s.service.HistoryEnabled(),
		"limiter":         s.service.LimiterStatus(),
	})
}

// handleSafeLimit scores current_value against a tuning strategy.
func (s *Server) handleSafeLimit(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("current_value")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		s.respondError(w, r, fmt.Errorf("%w: current_value %q is not a number", errBadRequest, raw))
		return
	}

	res := core.CalculateSafeLimit(value, r.URL.Query().Get("strategy"))
	if isHTMX(r) {
		s.render(w, r, templates.SafeLimitResult(res))
		return
	}
	writeJSON(w, res)
}

// EncodingInfo describes one supported element encoding.
type EncodingInfo struct {
	Name   string `json:"name"`
	Token  string `json:"data_type"`
	Signed bool   `json:"is_signed"`
	Width  int    `json:"width"`
}

// handleListEncodings lists the supported element encodings.
func (s *Server) handleListEncodings(w http.ResponseWriter, r *http.Request) {
	encs := ecumap.Encodings()
	infos := make([]EncodingInfo, len(encs))
	for i, e := range encs {
		infos[i] = EncodingInfo{
			Name:   e.String(),
			Token:  e.Token(),
			Signed: e.Signed(),
			Width:  e.Width(),
		}
	}
	writeJSON(w, map[string]interface{}{"encodings": infos})
}
