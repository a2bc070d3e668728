package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/chunker"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"
)

const contractMD = `# SECTION 1 General

The parties agree to the terms below.

1. Hours of work
2. Overtime

# SECTION 2 Wages

Wage text.
`

// run executes the CLI with fresh flag values and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	profilePath, verbose, usePdftotext = "", false, false
	parseFormat, parseContent, rebuildFormat, validateStrict = "json", false, "json", false
	chunkCfg = chunker.DefaultConfig()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParse_JSON(t *testing.T) {
	path := writeFile(t, "contract.md", contractMD)
	out, err := run(t, "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var doc hierarchy.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Title != "contract" || len(doc.ID) != 16 {
		t.Errorf("unexpected envelope id=%q title=%q", doc.ID, doc.Title)
	}
	if len(doc.Sections) != 2 || len(doc.Sections[0].Children) != 2 {
		t.Fatalf("unexpected sections %+v", doc.Sections)
	}
	if doc.Processing.Source != "contract.md" || doc.Processing.ParserVersion == "" {
		t.Errorf("unexpected processing %+v", doc.Processing)
	}
}

func TestParse_Formats(t *testing.T) {
	path := writeFile(t, "contract.md", contractMD)
	tests := []struct {
		format string
		want   []string
	}{
		{"flat", []string{`"level": 1`, `"has_children": true`}},
		{"yaml", []string{"tier: section", "identifier: \"1\"", "parent_path: SECTION 1"}},
		{"tree", []string{"SECTION 1 General  p.1", "├── 1 Hours of work", "└── 2 Overtime", "Nodes: 4"}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out, err := run(t, "parse", "--format", tt.format, path)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output missing %q:\n%s", w, out)
				}
			}
		})
	}

	if _, err := run(t, "parse", "--format", "xml", path); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParse_Errors(t *testing.T) {
	if _, err := run(t, "parse", writeFile(t, "data.csv", "a,b\n")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := run(t, "parse", writeFile(t, "blank.txt", "\n\n")); err == nil {
		t.Error("expected error for empty document")
	}
	if _, err := run(t, "parse", filepath.Join(t.TempDir(), "missing.md")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := run(t, "parse", "--profile", writeFile(t, "p.yaml", "bogus: 1\n"), writeFile(t, "c.md", contractMD)); err == nil {
		t.Error("expected error for bad profile")
	}
}

func TestRebuild_FromParseFlat(t *testing.T) {
	flat, err := run(t, "parse", "--format", "flat", writeFile(t, "contract.md", contractMD))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	for _, input := range []string{flat, nodesArray(t, flat)} {
		out, err := run(t, "rebuild", writeFile(t, "flat.json", input))
		if err != nil {
			t.Fatalf("rebuild: %v", err)
		}
		var res struct {
			Sections    []hierarchy.Record         `json:"sections"`
			Reconstruct hierarchy.ReconstructStats `json:"reconstruct"`
		}
		if err := json.Unmarshal([]byte(out), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(res.Sections) != 2 || len(res.Sections[0].Children) != 2 {
			t.Errorf("unexpected rebuilt sections %+v", res.Sections)
		}
		if res.Reconstruct != (hierarchy.ReconstructStats{}) {
			t.Errorf("expected clean reconstruction, got %+v", res.Reconstruct)
		}
	}
}

func TestRebuild_RecordsWithoutTier(t *testing.T) {
	in := writeFile(t, "flat.json",
		`[{"id":"a","level":0,"page_start":1,"content":"wages clause"},{"id":"b","level":1,"page_start":1,"content":"overtime clause"}]`)

	out, err := run(t, "rebuild", in)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	var res struct {
		Sections []hierarchy.Record `json:"sections"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Sections) != 1 || len(res.Sections[0].Children) != 1 {
		t.Fatalf("expected one root with one child, got %+v", res.Sections)
	}

	for _, format := range []string{"yaml", "tree"} {
		out, err := run(t, "rebuild", "--format", format, in)
		if err != nil {
			t.Fatalf("rebuild --format %s: %v", format, err)
		}
		if !strings.Contains(out, "overtime clause") {
			t.Errorf("%s output missing child content:\n%s", format, out)
		}
	}
}

func nodesArray(t *testing.T, flat string) string {
	t.Helper()
	var doc hierarchy.FlatDocument
	if err := json.Unmarshal([]byte(flat), &doc); err != nil {
		t.Fatal(err)
	}
	b, _ := json.Marshal(doc.Nodes)
	return string(b)
}

func TestChunks(t *testing.T) {
	path := writeFile(t, "contract.md", contractMD)
	out, err := run(t, "chunks", "--min-chunk", "1", "--chunk-size", "200", "--overlap", "20", path)
	if err != nil {
		t.Fatalf("chunks: %v", err)
	}
	var chunks []doctree.Chunk
	if err := json.Unmarshal([]byte(out), &chunks); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Breadcrumb[0] != "SECTION 1" || !strings.HasPrefix(chunks[0].Text, "SECTION 1 General") {
		t.Errorf("unexpected first chunk %+v", chunks[0])
	}

	if _, err := run(t, "chunks", "--chunk-size", "100", "--overlap", "100", path); err == nil {
		t.Error("expected error when overlap is not smaller than chunk size")
	}
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", "--strict", writeFile(t, "contract.md", contractMD))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "0 warnings") {
		t.Errorf("unexpected output %q", out)
	}

	bad := `[
	  {"id":"node_000001","tier":"section","identifier":"1","title":null,"content":"","level":0,"page_start":2,"page_end":1}
	]`
	out, err = run(t, "validate", "--strict", writeFile(t, "bad.json", bad))
	if err == nil {
		t.Fatal("expected strict failure")
	}
	if !strings.Contains(out, hierarchy.RulePageRange) {
		t.Errorf("expected page_range warning, got %q", out)
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "outline dev") {
		t.Errorf("unexpected version output %q", out)
	}
}
