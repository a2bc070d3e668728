package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"
	"github.com/dgallion1/docoutline/internal/pipeline"
	"github.com/dgallion1/docoutline/internal/store"
)

const testKey = "test-key"

const contractMD = `# SECTION 1 General

The parties agree.

1. Hours of work
2. Overtime

# SECTION 2 Wages

Wage text.
`

func testServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Config{
		APIKey:              testKey,
		WorkerCount:         1,
		MaxQueueSize:        4,
		MaxUploadBytes:      1 << 20,
		DefaultChunkSize:    1500,
		DefaultChunkOverlap: 200,
		JobTTL:              time.Hour,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := pipeline.NewOrchestrator(cfg, hierarchy.NewEngine(hierarchy.DefaultConfig(), log), st, nil, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg)
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func upload(t *testing.T, s *Server, filename, content string) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()

	rec := do(t, s, http.MethodPost, "/api/outlines", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload: expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	decode(t, rec, &resp)
	return resp
}

func waitJob(t *testing.T, s *Server, pollURL string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		rec := do(t, s, http.MethodGet, pollURL, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("poll: expected 200, got %d", rec.Code)
		}
		var snap pipeline.JobSnapshot
		decode(t, rec, &snap)
		if snap.Status.Done() {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish")
	return pipeline.JobSnapshot{}
}

func TestHealth_IsPublic(t *testing.T) {
	s := testServer(t)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]any
	decode(t, rec, &resp)
	if resp["status"] != "ok" || resp["publishing"] != false {
		t.Errorf("unexpected health body %v", resp)
	}
}

func TestAuth(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + testKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/outlines", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestOutlineLifecycle(t *testing.T) {
	s := testServer(t)

	accepted := upload(t, s, "../contract.md", contractMD)
	pollURL, _ := accepted["poll_url"].(string)
	docID, _ := accepted["doc_id"].(string)
	if pollURL != "/api/outlines/jobs/"+accepted["job_id"].(string) {
		t.Fatalf("unexpected poll url %q", pollURL)
	}

	snap := waitJob(t, s, pollURL)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q (%v)", snap.Status, snap.Progress.Errors)
	}
	if snap.Filename != "contract.md" {
		t.Errorf("expected sanitized filename, got %q", snap.Filename)
	}

	t.Run("list", func(t *testing.T) {
		var resp struct {
			Documents []store.DocumentInfo `json:"documents"`
		}
		decode(t, do(t, s, http.MethodGet, "/api/outlines", nil, ""), &resp)
		if len(resp.Documents) != 1 || resp.Documents[0].ID != docID {
			t.Fatalf("unexpected documents %+v", resp.Documents)
		}
	})

	t.Run("nested", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/outlines/"+docID, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var doc outlineResponse
		decode(t, rec, &doc)
		if len(doc.Sections) != 2 {
			t.Fatalf("expected 2 sections, got %d", len(doc.Sections))
		}
		if got := len(doc.Sections[0].Children); got != 2 {
			t.Errorf("expected 2 items under section 1, got %d", got)
		}
		if doc.Processing.Nodes != 4 {
			t.Errorf("expected 4 nodes, got %d", doc.Processing.Nodes)
		}
		if doc.Reconstruct.Orphans != 0 {
			t.Errorf("expected no orphans, got %d", doc.Reconstruct.Orphans)
		}
	})

	t.Run("flat", func(t *testing.T) {
		var doc hierarchy.FlatDocument
		decode(t, do(t, s, http.MethodGet, "/api/outlines/"+docID+"?format=flat", nil, ""), &doc)
		if len(doc.Nodes) != 4 {
			t.Fatalf("expected 4 flat nodes, got %d", len(doc.Nodes))
		}
		if doc.Nodes[1].Level != 1 || doc.Nodes[1].ParentPath == nil {
			t.Errorf("expected nested item, got %+v", doc.Nodes[1])
		}
	})

	t.Run("chunks", func(t *testing.T) {
		var resp struct {
			Count  int             `json:"count"`
			Chunks []doctree.Chunk `json:"chunks"`
		}
		decode(t, do(t, s, http.MethodGet, "/api/outlines/"+docID+"/chunks?chunk_size=500&overlap=50&min_chunk=1", nil, ""), &resp)
		if resp.Count == 0 || resp.Count != len(resp.Chunks) {
			t.Fatalf("unexpected chunk count %d/%d", resp.Count, len(resp.Chunks))
		}
	})

	t.Run("bad chunk params", func(t *testing.T) {
		for _, q := range []string{"chunk_size=abc", "chunk_size=0", "chunk_size=100&overlap=100"} {
			rec := do(t, s, http.MethodGet, "/api/outlines/"+docID+"/chunks?"+q, nil, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, rec.Code)
			}
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		again := upload(t, s, "copy.md", contractMD)
		snap := waitJob(t, s, again["poll_url"].(string))
		if snap.Status != pipeline.StatusDupSkipped || snap.Progress.DuplicateOf != docID {
			t.Errorf("expected duplicate of %s, got %q %q", docID, snap.Status, snap.Progress.DuplicateOf)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if rec := do(t, s, http.MethodDelete, "/api/outlines/"+docID, nil, ""); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if rec := do(t, s, http.MethodGet, "/api/outlines/"+docID, nil, ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", rec.Code)
		}
		if rec := do(t, s, http.MethodDelete, "/api/outlines/"+docID, nil, ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404 on second delete, got %d", rec.Code)
		}
	})
}

func TestSubmit_Rejects(t *testing.T) {
	s := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "data.csv")
	fw.Write([]byte("a,b\n"))
	mw.Close()
	if rec := do(t, s, http.MethodPost, "/api/outlines", &buf, mw.FormDataContentType()); rec.Code != http.StatusBadRequest {
		t.Errorf("csv: expected 400, got %d", rec.Code)
	}

	if rec := do(t, s, http.MethodPost, "/api/outlines", bytes.NewBufferString("x"), "text/plain"); rec.Code != http.StatusBadRequest {
		t.Errorf("non-multipart: expected 400, got %d", rec.Code)
	}

	if rec := do(t, s, http.MethodGet, "/api/outlines/jobs/nope", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown job: expected 404, got %d", rec.Code)
	}
}

func TestBatchSubmit(t *testing.T) {
	s := testServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range []string{"one.md", "two.csv"} {
		fw, _ := mw.CreateFormFile("files", name)
		fw.Write([]byte(contractMD))
	}
	mw.Close()

	rec := do(t, s, http.MethodPost, "/api/outlines/batch", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	decode(t, rec, &resp)
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Jobs))
	}
	if resp.Jobs[0]["job_id"] == nil {
		t.Errorf("expected job for one.md, got %v", resp.Jobs[0])
	}
	if resp.Jobs[1]["error"] == nil {
		t.Errorf("expected error for two.csv, got %v", resp.Jobs[1])
	}
}

func contractSpans(pages int) []doctree.Span {
	bold := func(text string, x0, y, x1 float64, p int) doctree.Span {
		return doctree.Span{Text: text, BBox: doctree.BBox{X0: x0, Y0: y, X1: x1, Y1: y + 12}, FontSize: 12, Bold: true, Page: p}
	}
	plain := func(text string, x0, y, x1 float64, p int) doctree.Span {
		return doctree.Span{Text: text, BBox: doctree.BBox{X0: x0, Y0: y, X1: x1, Y1: y + 11}, FontSize: 11, Page: p}
	}
	var spans []doctree.Span
	for p := 1; p <= pages; p++ {
		spans = append(spans,
			bold(fmt.Sprintf("SECTION %d", p), 72, 72, 140, p),
			bold("General", 144, 72, 200, p),
			plain("The parties agree to the terms below.", 72, 102, 300, p),
			plain("A.", 92, 127, 102, p),
			plain("Scope of work", 106, 127, 200, p),
			plain("1. Hourly rates", 112, 152, 220, p),
		)
	}
	return spans
}

func TestBuildSpans(t *testing.T) {
	s := testServer(t)
	body, _ := json.Marshal(spansRequest{ID: "cba", Title: "Contract", Spans: contractSpans(2)})

	rec := do(t, s, http.MethodPost, "/api/outlines/spans", bytes.NewReader(body), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var doc hierarchy.Document
	decode(t, rec, &doc)
	if doc.ID != "cba" || len(doc.Sections) != 2 {
		t.Fatalf("unexpected document %q with %d sections", doc.ID, len(doc.Sections))
	}
	if doc.Processing.Pages != 2 || doc.Processing.Nodes != 6 {
		t.Errorf("unexpected processing info %+v", doc.Processing)
	}

	rec = do(t, s, http.MethodPost, "/api/outlines/spans?format=flat", bytes.NewReader(body), "application/json")
	var flat hierarchy.FlatDocument
	decode(t, rec, &flat)
	if len(flat.Nodes) != 6 || flat.Nodes[2].Level != 2 {
		t.Fatalf("unexpected flat nodes %+v", flat.Nodes)
	}

	// Feeding the flat form back through rebuild gives the same nesting.
	rebuildBody, _ := json.Marshal(rebuildRequest{Nodes: flat.Nodes})
	rec = do(t, s, http.MethodPost, "/api/outlines/rebuild", bytes.NewReader(rebuildBody), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("rebuild: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rebuilt struct {
		Sections    []hierarchy.Record         `json:"sections"`
		Reconstruct hierarchy.ReconstructStats `json:"reconstruct"`
	}
	decode(t, rec, &rebuilt)
	if len(rebuilt.Sections) != 2 || len(rebuilt.Sections[1].Children) != 1 {
		t.Fatalf("unexpected rebuilt sections %+v", rebuilt.Sections)
	}
	if rebuilt.Reconstruct != (hierarchy.ReconstructStats{}) {
		t.Errorf("expected clean reconstruction, got %+v", rebuilt.Reconstruct)
	}

	var stats struct {
		Stats pipeline.StatsSnapshot `json:"stats"`
	}
	decode(t, do(t, s, http.MethodGet, "/api/stats/build", nil, ""), &stats)
	if stats.Stats.Count != 2 {
		t.Errorf("expected 2 recorded builds, got %d", stats.Stats.Count)
	}
}

func TestBuildSpans_BadInput(t *testing.T) {
	s := testServer(t)
	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed", "/api/outlines/spans", "{"},
		{"no spans", "/api/outlines/spans", `{"spans":[]}`},
		{"page zero", "/api/outlines/spans", `{"spans":[{"text":"x","page":0,"font_size":11}]}`},
		{"unknown tier", "/api/outlines/rebuild", `{"nodes":[{"id":"n","tier":"chapter","level":0,"page_start":1}]}`},
		{"missing nodes", "/api/outlines/rebuild", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, bytes.NewBufferString(tt.body), "application/json")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"contract.pdf":        "contract.pdf",
		"../../etc/passwd":    "passwd",
		`C:\docs\contract.md`: "contract.md",
		"..":                  "_",
		"":                    "unnamed",
		"a..b.txt":            "a_b.txt",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRebuild_RecordsWithoutTier(t *testing.T) {
	s := testServer(t)
	body := `{"nodes":[{"id":"a","level":0,"page_start":1,"content":"x"},{"id":"b","level":1,"page_start":1,"content":"y"}]}`

	rec := do(t, s, http.MethodPost, "/api/outlines/rebuild", bytes.NewBufferString(body), "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rebuilt struct {
		Sections []hierarchy.Record `json:"sections"`
		Warnings []doctree.Warning  `json:"warnings"`
	}
	decode(t, rec, &rebuilt)
	if len(rebuilt.Sections) != 1 || len(rebuilt.Sections[0].Children) != 1 {
		t.Fatalf("expected one root with one child, got %+v", rebuilt.Sections)
	}
	if rebuilt.Sections[0].Children[0].Content != "y" {
		t.Errorf("unexpected child %+v", rebuilt.Sections[0].Children[0])
	}
	if len(rebuilt.Warnings) != 0 {
		t.Errorf("expected no warnings, got %+v", rebuilt.Warnings)
	}
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"tier": doctree.Tier(99)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
	if body["error"] == "" {
		t.Error("expected error message")
	}
}
