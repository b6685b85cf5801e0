package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/ecumap/internal/core"
	"github.com/JonMunkholm/ecumap/internal/ecumap"
	"github.com/JonMunkholm/ecumap/internal/web/templates"
)

// maxDefinitionBody bounds JSON definition and library request bodies.
const maxDefinitionBody = 4 << 20

// MapResponse is the JSON form of an extracted map.
type MapResponse struct {
	Name         string       `json:"name"`
	FirmwareID   string       `json:"firmware_id,omitempty"`
	StartAddress string       `json:"start_address"`
	Encoding     string       `json:"encoding"`
	Rows         int          `json:"rows"`
	Columns      int          `json:"columns"`
	Unit         string       `json:"unit,omitempty"`
	Min          float64      `json:"min"`
	Max          float64      `json:"max"`
	DurationUS   int64        `json:"duration_us"`
	MapData      *ecumap.Grid `json:"map_data"`
}

func toMapResponse(ext *core.Extraction) MapResponse {
	def := ext.Definition
	return MapResponse{
		Name:         def.Name(),
		FirmwareID:   ext.FirmwareID,
		StartAddress: ecumap.Address(def.StartAddress()).String(),
		Encoding:     def.Encoding().String(),
		Rows:         ext.Grid.Rows(),
		Columns:      ext.Grid.Columns(),
		Unit:         def.Unit(),
		Min:          ext.Grid.Min(),
		Max:          ext.Grid.Max(),
		DurationUS:   ext.Duration.Microseconds(),
		MapData:      ext.Grid,
	}
}

// BatchMapResponse is one entry of a batch extraction response.
type BatchMapResponse struct {
	Name    string       `json:"name"`
	MapData *ecumap.Grid `json:"map_data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Code    string       `json:"code,omitempty"`
}

// handleExtract extracts one map from a multipart request. The image is
// either the "file" field or a previously uploaded "firmware_id"; the map is
// described by the "definition_json" field.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := s.parseMultipart(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}

	payload, err := decodePayload(strings.NewReader(r.FormValue("definition_json")))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var ext *core.Extraction
	if id := strings.TrimSpace(r.FormValue("firmware_id")); id != "" {
		ext, err = s.service.ExtractFromFirmware(r.Context(), id, payload)
	} else {
		var data []byte
		data, err = readMultipartFile(r)
		if err == nil {
			ext, err = s.service.ExtractBytes(r.Context(), data, payload)
		}
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeExtraction(w, r, ext)
}

// handleExtractFromFirmware extracts one map from a stored image. The body
// is a JSON definition.
func (s *Server) handleExtractFromFirmware(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(http.MaxBytesReader(w, r.Body, maxDefinitionBody))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ext, err := s.service.ExtractFromFirmware(r.Context(), chi.URLParam(r, "id"), payload)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeExtraction(w, r, ext)
}

// handleExtractBatch extracts every map of a definition library from a
// stored image. The body is a JSON or YAML library document.
func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDefinitionBody))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: read body: %v", errBadRequest, err))
		return
	}

	lib, err := ecumap.ParseLibrary(data, libraryFormat(r))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: parse library: %w", errBadRequest, err))
		return
	}

	id := chi.URLParam(r, "id")
	results, err := s.service.ExtractBatch(r.Context(), id, lib)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.render(w, r, templates.BatchResults(results, lib.Definitions()))
		return
	}

	maps := make([]BatchMapResponse, len(results))
	for i, res := range results {
		maps[i] = BatchMapResponse{Name: res.Name, MapData: res.Grid}
		if res.Err != nil {
			maps[i].Error = res.Err.Error()
			maps[i].Code = core.MapError(res.Err).Code
		}
	}
	writeJSON(w, map[string]interface{}{
		"firmware_id": id,
		"ecu":         lib.ECU,
		"maps":        maps,
	})
}

// writeExtraction renders ext as CSV (?format=csv), an HTML table for HTMX,
// or JSON.
func (s *Server) writeExtraction(w http.ResponseWriter, r *http.Request, ext *core.Extraction) {
	switch {
	case strings.EqualFold(r.URL.Query().Get("format"), "csv"):
		writeMapCSV(w, ext)
	case isHTMX(r):
		s.render(w, r, templates.MapTable(ext.Definition, ext.Grid))
	default:
		writeJSON(w, toMapResponse(ext))
	}
}

// writeMapCSV writes the grid one map row per CSV record.
func writeMapCSV(w http.ResponseWriter, ext *core.Extraction) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": csvFileName(ext.Definition.Name()),
	}))

	cw := csv.NewWriter(w)
	record := make([]string, ext.Grid.Columns())
	for r := 0; r < ext.Grid.Rows(); r++ {
		for c, v := range ext.Grid.Row(r) {
			record[c] = templates.FormatCell(v)
		}
		if err := cw.Write(record); err != nil {
			slog.Error("csv write error", "error", err)
			return
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		slog.Error("csv flush error", "error", err)
	}
}

// csvFileName derives a safe download name from a map name.
func csvFileName(name string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, name)
	if safe == "" {
		safe = "map"
	}
	return safe + ".csv"
}

// decodePayload reads one JSON definition.
func decodePayload(r io.Reader) (ecumap.DefinitionPayload, error) {
	var payload ecumap.DefinitionPayload
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		if err == io.EOF {
			return payload, fmt.Errorf("%w: definition is required", errBadRequest)
		}
		return payload, fmt.Errorf("%w: definition: %v", errBadRequest, err)
	}
	return payload, nil
}

// readMultipartFile returns the content of the "file" field of an already
// parsed multipart form.
func readMultipartFile(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, core.ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return data, nil
}

// libraryFormat picks the library format from the request Content-Type.
func libraryFormat(r *http.Request) ecumap.Format {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return ecumap.FormatYAML
	default:
		return ecumap.FormatJSON
	}
}
