package inventory

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"chemstock/docs/schema"
	"chemstock/internal/report"
)

// Handler provides HTTP access to inventory conversion and exports.
type Handler struct {
	Converter Converter
	Exports   ExportScheduler
	Artifacts ObjectStore
}

// NewHandler constructs an inventory HTTP handler.
func NewHandler(converter Converter) *Handler {
	return &Handler{Converter: converter}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Converter == nil {
		writeError(w, http.StatusInternalServerError, "inventory converter not configured")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case path == "/api/v1/inventory/convert":
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleConvert(w, r)
	case path == "/api/v1/inventory/schema":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		h.handleSchema(w)
	case strings.HasPrefix(path, "/api/v1/inventory/exports"):
		if h.Exports == nil {
			http.NotFound(w, r)
			return
		}
		h.handleExports(w, r, path)
	default:
		http.NotFound(w, r)
	}
}

// handleSchema serves the embedded report contract so clients can discover
// the column order without downloading a report.
func (h *Handler) handleSchema(w http.ResponseWriter) {
	doc, err := schema.ReportColumns()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report schema unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": doc})
}

func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read request body failed")
		return
	}

	format, ok := negotiateFormat(r)
	if !ok {
		writeError(w, http.StatusNotAcceptable, "requested format not supported")
		return
	}

	rep, err := h.Converter.Convert(r.Context(), raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	if format == report.FormatCSV {
		filename := fmt.Sprintf("chemical-inventory-%s.csv", time.Now().UTC().Format("20060102T150405Z"))
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	_ = report.Encode(w, format, rep.Rows)
}

func (h *Handler) handleExports(w http.ResponseWriter, r *http.Request, path string) {
	if path == "/api/v1/inventory/exports" {
		switch r.Method {
		case http.MethodPost:
			h.handleExportCreate(w, r)
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"exports": h.Exports.ListExports()})
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
		return
	}

	if !strings.HasPrefix(path, "/api/v1/inventory/exports/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	remainder := strings.TrimPrefix(path, "/api/v1/inventory/exports/")
	segments := strings.Split(remainder, "/")
	switch {
	case len(segments) == 1 && segments[0] != "":
		h.handleExportGet(w, segments[0])
	case len(segments) == 3 && segments[1] == "artifacts" && segments[2] != "":
		h.handleArtifactDownload(w, r, segments[0], segments[2])
	default:
		http.NotFound(w, r)
	}
}

type exportRequest struct {
	Document    json.RawMessage `json:"document"`
	Formats     []string        `json:"formats"`
	Source      string          `json:"source"`
	RequestedBy string          `json:"requested_by"`
}

const emptyBodySentinel = "EOF"

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != emptyBodySentinel {
		writeError(w, http.StatusBadRequest, "invalid export request payload")
		return
	}

	formats := make([]report.Format, 0, len(req.Formats))
	for _, name := range req.Formats {
		format, ok := report.ParseFormat(name)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported export format %q", name))
			return
		}
		formats = append(formats, format)
	}

	record, err := h.Exports.EnqueueExport(r.Context(), ExportInput{
		Document:    req.Document,
		Formats:     formats,
		Source:      req.Source,
		RequestedBy: req.RequestedBy,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"export": record})
}

func (h *Handler) handleExportGet(w http.ResponseWriter, id string) {
	record, ok := h.Exports.GetExport(id)
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"export": record})
}

func (h *Handler) handleArtifactDownload(w http.ResponseWriter, r *http.Request, id, formatName string) {
	record, ok := h.Exports.GetExport(id)
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	format, ok := report.ParseFormat(formatName)
	if !ok {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}

	var artifact *ExportArtifact
	for i := range record.Artifacts {
		if record.Artifacts[i].Format == format {
			artifact = &record.Artifacts[i]
			break
		}
	}
	if artifact == nil {
		writeError(w, http.StatusNotFound, "artifact not found")
		return
	}
	if h.Artifacts == nil {
		writeError(w, http.StatusInternalServerError, "artifact storage not configured")
		return
	}

	stored, payload, err := h.Artifacts.Get(r.Context(), artifact.Key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	contentType := stored.ContentType
	if contentType == "" {
		contentType = format.ContentType()
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(artifact.Key)))
	_, _ = w.Write(payload)
}

// negotiateFormat picks the response encoding from the format query
// parameter, falling back to the Accept header, then to CSV.
func negotiateFormat(r *http.Request) (report.Format, bool) {
	wanted := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if wanted == "" {
		accept := r.Header.Get("Accept")
		switch {
		case strings.Contains(accept, "application/json"):
			wanted = string(report.FormatJSON)
		case strings.Contains(accept, "text/html"):
			wanted = string(report.FormatHTML)
		default:
			wanted = string(report.FormatCSV)
		}
	}
	return report.ParseFormat(wanted)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
