package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/docoutline/internal/chunker"
	"github.com/dgallion1/docoutline/internal/hierarchy"
	"github.com/dgallion1/docoutline/internal/store"
	"github.com/go-chi/chi/v5"
)

// outlineResponse is the nested form of a stored outline.
type outlineResponse struct {
	hierarchy.Document
	Filename    string                     `json:"filename,omitempty"`
	ContentHash string                     `json:"content_hash,omitempty"`
	Reconstruct hierarchy.ReconstructStats `json:"reconstruct"`
}

func (s *Server) handleListOutlines(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 100)
	if err != nil {
		jsonError(w, "limit: "+err.Error(), http.StatusBadRequest)
		return
	}
	docs, err := s.orchestrator.Store().List(r.Context(), limit)
	if err != nil {
		s.log.Error("list outlines", "error", err)
		jsonError(w, "failed to list outlines", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetOutline(w http.ResponseWriter, r *http.Request) {
	out, ok := s.loadOutline(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("format") == "flat" {
		writeJSON(w, http.StatusOK, hierarchy.FlatDocument{
			ID:         out.Info.ID,
			Title:      out.Info.Title,
			Nodes:      out.Records,
			Warnings:   out.Warnings,
			Processing: out.Processing,
		})
		return
	}
	writeJSON(w, http.StatusOK, outlineResponse{
		Document: hierarchy.Document{
			ID:         out.Info.ID,
			Title:      out.Info.Title,
			Sections:   hierarchy.ToRecords(out.Forest),
			Warnings:   out.Warnings,
			Processing: out.Processing,
		},
		Filename:    out.Info.Filename,
		ContentHash: out.Info.ContentHash,
		Reconstruct: out.Stats,
	})
}

func (s *Server) handleOutlineChunks(w http.ResponseWriter, r *http.Request) {
	cfg := chunker.DefaultConfig()
	cfg.ChunkSize = s.cfg.DefaultChunkSize
	cfg.ChunkOverlap = s.cfg.DefaultChunkOverlap

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"chunk_size", &cfg.ChunkSize},
		{"overlap", &cfg.ChunkOverlap},
		{"min_chunk", &cfg.MinChunk},
	} {
		n, err := queryInt(r, p.name, *p.dst)
		if err != nil {
			jsonError(w, p.name+": "+err.Error(), http.StatusBadRequest)
			return
		}
		*p.dst = n
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		jsonError(w, "overlap must be smaller than chunk_size", http.StatusBadRequest)
		return
	}

	out, ok := s.loadOutline(w, r)
	if !ok {
		return
	}
	chunks := chunker.ChunkTree(out.Forest, cfg)
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id": out.Info.ID,
		"count":  len(chunks),
		"chunks": chunks,
	})
}

func (s *Server) handleDeleteOutline(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	ctx := r.Context()

	err := s.orchestrator.Store().Delete(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "outline not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete outline", "doc_id", docID, "error", err)
		jsonError(w, "failed to delete outline", http.StatusInternalServerError)
		return
	}

	unpublished := false
	if pub := s.orchestrator.Publisher(); pub != nil {
		if err := pub.Unpublish(ctx, docID); err != nil {
			s.log.Warn("unpublish outline", "doc_id", docID, "error", err)
		} else {
			unpublished = true
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":      docID,
		"deleted":     true,
		"unpublished": unpublished,
	})
}

func (s *Server) loadOutline(w http.ResponseWriter, r *http.Request) (*store.Outline, bool) {
	docID := chi.URLParam(r, "docID")
	out, err := s.orchestrator.Store().Load(r.Context(), docID)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "outline not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		s.log.Error("load outline", "doc_id", docID, "error", err)
		jsonError(w, "failed to load outline", http.StatusInternalServerError)
		return nil, false
	}
	return out, true
}

var errBadQuery = errors.New("must be a positive integer")

// queryInt reads a positive integer query parameter, returning def when absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, errBadQuery
	}
	return n, nil
}
