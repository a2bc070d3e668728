package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"
	"github.com/dgallion1/docoutline/internal/version"
)

// spansRequest is the body of POST /api/outlines/spans.
type spansRequest struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Spans []doctree.Span `json:"spans"`
}

// handleBuildSpans builds an outline synchronously from posted spans.
func (s *Server) handleBuildSpans(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req spansRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Spans) == 0 {
		jsonError(w, "spans are required", http.StatusBadRequest)
		return
	}
	for i, sp := range req.Spans {
		if sp.Page < 1 {
			jsonError(w, fmt.Sprintf("span %d: page must be >= 1", i), http.StatusBadRequest)
			return
		}
	}
	if req.ID == "" {
		req.ID = "inline"
	}

	res := s.orchestrator.Engine().Build(req.Spans)
	s.orchestrator.Stats().Record(res.Duration, res.Pages, res.Forest.Count())
	doc := hierarchy.NewDocument(req.ID, req.Title, res, version.Parser)

	if r.URL.Query().Get("format") == "flat" {
		writeJSON(w, http.StatusOK, doc.Flat())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// rebuildRequest is the body of POST /api/outlines/rebuild.
type rebuildRequest struct {
	Nodes []hierarchy.FlatRecord `json:"nodes"`
}

// handleRebuild turns flattened records back into a nested outline.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Nodes == nil {
		jsonError(w, "nodes are required", http.StatusBadRequest)
		return
	}

	forest, stats := hierarchy.Reconstruct(req.Nodes)
	warnings := hierarchy.Validate(forest)
	if warnings == nil {
		warnings = []doctree.Warning{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sections":    hierarchy.ToRecords(forest),
		"warnings":    warnings,
		"reconstruct": stats,
	})
}
