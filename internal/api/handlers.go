package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/outlined/internal/engine"
	"github.com/dgallion1/outlined/internal/extract"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extract.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	ex, err := extract.ForFile(filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if pdf, ok := ex.(*extract.PDFExtractor); ok {
		pdf.FallbackPdftotext = s.cfg.PDFFallbackPdftotext
	}

	doc, err := ex.Extract(bytes.NewReader(data), filename)
	if err != nil {
		s.log.Error("extraction failed", "filename", filename, "error", err)
		jsonError(w, "failed to extract document: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	if err := s.engine.SetOutline(doc.Entries); err != nil {
		jsonError(w, "invalid outline: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.SetDocumentInfo(doc.Title, len(doc.Text))

	s.log.Info("document installed", "filename", filename, "title", doc.Title, "headings", len(doc.Entries))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"title":    doc.Title,
		"headings": len(doc.Entries),
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	title, textLen := s.docTitle, s.docLen
	s.mu.Unlock()

	snap := s.engine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"title":    title,
		"text_len": textLen,
		"headings": snap.Headings,
	})
}

// itemJSON is the wire form of one outline item, children nested.
type itemJSON struct {
	ID          int        `json:"id"`
	Label       string     `json:"label"`
	Level       int        `json:"level"`
	Pos         int        `json:"pos"`
	SectionEnd  int        `json:"section_end"`
	State       string     `json:"state"`
	Expanded    bool       `json:"expanded"`
	HasChildren bool       `json:"has_children"`
	Children    []itemJSON `json:"children,omitempty"`
}

func (s *Server) itemTree(parent *engine.Item) []itemJSON {
	var out []itemJSON
	for _, it := range s.engine.Children(parent) {
		out = append(out, itemJSON{
			ID:          it.ID(),
			Label:       it.Label,
			Level:       it.Level(),
			Pos:         it.Pos(),
			SectionEnd:  it.Node().SectionEnd,
			State:       it.State().String(),
			Expanded:    it.Expanded,
			HasChildren: it.HasChildren(),
			Children:    s.itemTree(it),
		})
	}
	return out
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	roots := s.itemTree(nil)
	if roots == nil {
		roots = []itemJSON{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"outline": roots})
}

func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Offset *int `json:"offset"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Offset == nil {
		jsonError(w, "offset is required", http.StatusBadRequest)
		return
	}
	s.engine.SetActiveSelection(*req.Offset)

	snap := s.engine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"active_id": snap.ActiveID})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Term string `json:"term"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.engine.SetFilter(req.Term)

	snap := s.engine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"term":    strings.TrimSpace(req.Term),
		"visible": snap.Visible,
	})
}

func (s *Server) handleClearFilter(w http.ResponseWriter, r *http.Request) {
	s.engine.ClearFilter()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil {
		jsonError(w, "invalid item id", http.StatusBadRequest)
		return
	}
	item := s.engine.ItemByID(id)
	if item == nil {
		jsonError(w, "item not found", http.StatusNotFound)
		return
	}
	s.engine.Activate(item)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":     item.ID(),
		"offset": item.Pos(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"headings":    snap.Headings,
		"visible":     snap.Visible,
		"filter_term": snap.FilterTerm,
		"active_id":   snap.ActiveID,
		"sse_clients": s.broker.ClientCount(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
