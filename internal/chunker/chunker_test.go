package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dgallion1/docoutline/internal/doctree"
)

func section(id, title, content string, children ...*doctree.Node) *doctree.Node {
	return &doctree.Node{
		ID:         "node_" + id,
		Tier:       doctree.TierSection,
		Keyword:    "SECTION",
		Identifier: id,
		Title:      title,
		Content:    content,
		PageStart:  1,
		PageEnd:    1,
		Children:   children,
	}
}

func item(tier doctree.Tier, id, content string, pages [2]int, children ...*doctree.Node) *doctree.Node {
	return &doctree.Node{
		ID:         "node_" + id,
		Tier:       tier,
		Identifier: id,
		Content:    content,
		PageStart:  pages[0],
		PageEnd:    pages[1],
		Children:   children,
	}
}

func TestChunkTree_SmallNodeFitsOneChunk(t *testing.T) {
	forest := doctree.Forest{section("1", "General", strings.Repeat("word ", 200))}

	cfg := Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     50,
	}
	chunks := ChunkTree(forest, cfg)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	if c.Index != 0 {
		t.Errorf("expected index 0, got %d", c.Index)
	}
	if !strings.HasPrefix(c.Text, "SECTION 1 General\n\n") {
		t.Errorf("expected heading line first, got %q", c.Text[:40])
	}
	if c.NodeID != "node_1" {
		t.Errorf("expected node id node_1, got %q", c.NodeID)
	}
}

func TestChunkTree_LargeNodeRequiresSplitting(t *testing.T) {
	// ~3000 words -> ~3990 tokens at 1.33 tokens/word.
	largeText := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 300)
	forest := doctree.Forest{section("4", "Wages", strings.TrimSpace(largeText))}

	cfg := Config{
		ChunkSize:    500,
		ChunkOverlap: 50,
		MinChunk:     10,
	}
	chunks := ChunkTree(forest, cfg)

	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks for large text, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, c.Index)
		}
		// Sentence boundaries allow slight overflow.
		if tokens := EstimateTokens(c.Text); tokens > cfg.ChunkSize*2 {
			t.Errorf("chunk %d: %d tokens exceeds 2x target %d", i, tokens, cfg.ChunkSize)
		}
		if c.NodeID != "node_4" {
			t.Errorf("chunk %d: expected node_4, got %q", i, c.NodeID)
		}
	}
}

func TestChunkTree_BreadcrumbAndPages(t *testing.T) {
	leaf := item(doctree.TierNumberItem, "3", strings.Repeat("content ", 200), [2]int{4, 5})
	forest := doctree.Forest{
		section("1", "General", "",
			item(doctree.TierCapitalItem, "A", "", [2]int{3, 5}, leaf)),
	}

	cfg := Config{
		ChunkSize:    2000,
		ChunkOverlap: 100,
		MinChunk:     10,
	}
	chunks := ChunkTree(forest, cfg)

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	c := chunks[0]
	want := []string{"SECTION 1", "A", "3"}
	if strings.Join(c.Breadcrumb, "|") != strings.Join(want, "|") {
		t.Errorf("expected breadcrumb %v, got %v", want, c.Breadcrumb)
	}
	if c.PageStart != 4 || c.PageEnd != 5 {
		t.Errorf("expected pages 4-5, got %d-%d", c.PageStart, c.PageEnd)
	}
}

func TestChunkTree_BreadcrumbIsolation(t *testing.T) {
	forest := doctree.Forest{
		section("1", "Alpha", strings.Repeat("alpha ", 200)),
		section("2", "Beta", strings.Repeat("beta ", 200)),
	}

	cfg := Config{
		ChunkSize:    2000,
		ChunkOverlap: 100,
		MinChunk:     10,
	}
	chunks := ChunkTree(forest, cfg)

	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Breadcrumb) != 1 || chunks[0].Breadcrumb[0] != "SECTION 1" {
		t.Errorf("chunk 0 breadcrumb: expected [SECTION 1], got %v", chunks[0].Breadcrumb)
	}
	if len(chunks[1].Breadcrumb) != 1 || chunks[1].Breadcrumb[0] != "SECTION 2" {
		t.Errorf("chunk 1 breadcrumb: expected [SECTION 2], got %v", chunks[1].Breadcrumb)
	}
}

func TestChunkTree_ParagraphRootHasNoHeading(t *testing.T) {
	forest := doctree.Forest{{
		ID:        "node_000001",
		Tier:      doctree.TierParagraph,
		Content:   strings.Repeat("preamble ", 50),
		PageStart: 1,
		PageEnd:   1,
	}}
	chunks := ChunkTree(forest, Config{MinChunk: 10})
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.HasPrefix(chunks[0].Text, "preamble") {
		t.Errorf("expected content only, got %q", chunks[0].Text[:20])
	}
}

func TestChunkTree_MinChunkFiltering(t *testing.T) {
	forest := doctree.Forest{section("1", "Short", "Hi")}

	cfg := Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
	if chunks := ChunkTree(forest, cfg); len(chunks) != 0 {
		t.Errorf("expected 0 chunks (below MinChunk), got %d", len(chunks))
	}
}

func TestChunkTree_EmptyForest(t *testing.T) {
	if chunks := ChunkTree(nil, DefaultConfig()); len(chunks) != 0 {
		t.Errorf("expected 0 chunks, got %d", len(chunks))
	}
}

func TestChunkTree_DefaultConfigFallback(t *testing.T) {
	forest := doctree.Forest{section("1", "", strings.Repeat("word ", 200))}
	// Zero-value config is replaced with defaults.
	if chunks := ChunkTree(forest, Config{}); len(chunks) < 1 {
		t.Errorf("expected at least 1 chunk with zero config, got %d", len(chunks))
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"x", 1},
		{"one two three", 3},
		{strings.Repeat("w ", 100), 133},
	}
	for _, tt := range tests {
		if got := EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestChunkTree_SplitPartsRepeatHeading(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "Clause %d applies to every shift worked. ", i)
	}
	forest := doctree.Forest{section("7", "Overtime", strings.TrimSpace(b.String()))}

	chunks := ChunkTree(forest, Config{ChunkSize: 100, ChunkOverlap: 10, MinChunk: 1})
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if !strings.HasPrefix(c.Text, "SECTION 7 Overtime\n\n") {
			t.Errorf("chunk %d: missing heading line: %q", i, c.Text[:30])
		}
	}
	// The second body opens with the tail of the first.
	first := strings.TrimPrefix(chunks[0].Text, "SECTION 7 Overtime\n\n")
	second := strings.TrimPrefix(chunks[1].Text, "SECTION 7 Overtime\n\n")
	tail := tailWords(first, 10)
	if tail == "" || !strings.HasPrefix(second, tail) {
		t.Errorf("expected overlap %q at start of %q", tail, second[:40])
	}
	if !strings.Contains(chunks[len(chunks)-1].Text, "Clause 59 applies") {
		t.Error("last clause missing from chunks")
	}
}

func TestSplitClauses(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"One. Two!", []string{"One.", "Two!"}},
		{"Pay rates apply; overtime is extra.", []string{"Pay rates apply;", "overtime is extra."}},
		{"See A. Scope and Sec. 4 here.", []string{"See A. Scope and Sec. 4 here."}},
		{"Wages ... 3. Hours.", []string{"Wages ... 3. Hours."}},
		{"Paid on day 12. Then", []string{"Paid on day 12.", "Then"}},
		{"(a) first. (b) second", []string{"(a) first.", "(b) second"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := splitClauses(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
			t.Errorf("splitClauses(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.TrimSpace(strings.Repeat("word ", maxClauseWords+5))
	if got := splitClauses(long); len(got) != 2 {
		t.Errorf("expected long run cut in 2, got %d", len(got))
	}
}

func TestPack_AlwaysProgresses(t *testing.T) {
	clauses := []string{"alpha beta gamma.", "delta epsilon zeta.", "eta theta iota."}
	// Overlap larger than the budget must not stall.
	got := pack(clauses, 2, 50)
	if len(got) != 3 {
		t.Fatalf("expected one body per clause, got %q", got)
	}
	if !strings.HasSuffix(got[2], "eta theta iota.") {
		t.Errorf("unexpected last body %q", got[2])
	}
}
