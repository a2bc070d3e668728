package chunker

import (
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
	MinChunk     int // Minimum chunk size to emit.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// ChunkTree walks an outline forest and produces structure-aware chunks. Each
// chunk carries the labels of its node's ancestors and the node's page range.
func ChunkTree(forest doctree.Forest, cfg Config) []doctree.Chunk {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1500
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = 200
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = 100
	}

	var chunks []doctree.Chunk
	index := 0

	for _, root := range forest {
		index = walkNode(root, nil, cfg, &chunks, index)
	}

	return chunks
}

// walkNode visits nodes depth-first, splitting each node's own text into chunks.
func walkNode(node *doctree.Node, breadcrumb []string, cfg Config, chunks *[]doctree.Chunk, index int) int {
	bc := append(copyBreadcrumb(breadcrumb), node.Label())

	for _, part := range nodeParts(node, cfg) {
		if EstimateTokens(part) < cfg.MinChunk {
			continue
		}
		*chunks = append(*chunks, doctree.Chunk{
			Text:       part,
			Index:      index,
			NodeID:     node.ID,
			Breadcrumb: copyBreadcrumb(bc),
			PageStart:  node.PageStart,
			PageEnd:    node.PageEnd,
		})
		index++
	}

	for _, child := range node.Children {
		index = walkNode(child, bc, cfg, chunks, index)
	}
	return index
}

// nodeParts renders a node's own content as one or more chunk texts. Every
// part of a headed node opens with the heading line.
func nodeParts(node *doctree.Node, cfg Config) []string {
	if node.Content == "" {
		return nil
	}
	heading := ""
	if node.Tier != doctree.TierParagraph {
		heading = node.Heading()
	}

	budget := cfg.ChunkSize - EstimateTokens(heading)
	if budget < cfg.ChunkSize/2 {
		budget = cfg.ChunkSize / 2
	}
	var bodies []string
	if EstimateTokens(node.Content) <= budget {
		bodies = []string{node.Content}
	} else {
		bodies = pack(splitClauses(node.Content), budget, cfg.ChunkOverlap)
	}

	if heading == "" {
		return bodies
	}
	parts := make([]string, len(bodies))
	for i, b := range bodies {
		parts[i] = heading + "\n\n" + b
	}
	return parts
}

// pack joins clauses greedily into bodies of about budget tokens. Each body
// after the first starts with the trailing words of the previous one and adds
// at least one new clause.
func pack(clauses []string, budget, overlap int) []string {
	var out, cur []string
	tokens, fresh := 0, 0

	for _, c := range clauses {
		n := EstimateTokens(c)
		if fresh > 0 && tokens+n > budget {
			body := strings.Join(cur, " ")
			out = append(out, body)
			cur, tokens, fresh = nil, 0, 0
			if tail := tailWords(body, overlap); tail != "" {
				cur = append(cur, tail)
				tokens = EstimateTokens(tail)
			}
		}
		cur = append(cur, c)
		tokens += n
		fresh += n
	}
	if fresh > 0 {
		out = append(out, strings.Join(cur, " "))
	}
	return out
}

// splitClauses breaks content at sentence and clause ends. Single-character
// enumerators such as "A." or "3.", common abbreviations and ellipses do not
// end a clause. Clauses longer than maxClauseWords are cut into word runs.
func splitClauses(text string) []string {
	words := strings.Fields(text)
	var out []string
	start := 0
	for i, w := range words {
		if i-start+1 >= maxClauseWords || endsClause(w) {
			out = append(out, strings.Join(words[start:i+1], " "))
			start = i + 1
		}
	}
	if start < len(words) {
		out = append(out, strings.Join(words[start:], " "))
	}
	return out
}

const maxClauseWords = 120

func endsClause(word string) bool {
	if strings.HasSuffix(word, "...") {
		return false
	}
	last := word[len(word)-1]
	switch last {
	case ';', '!', '?':
		return true
	case '.':
		stem := strings.TrimLeft(word[:len(word)-1], "(")
		return len([]rune(stem)) > 1 && !abbreviations[strings.ToLower(stem)]
	}
	return false
}

var abbreviations = map[string]bool{
	"no": true, "nos": true, "sec": true, "art": true, "e.g": true, "i.e": true,
	"etc": true, "vs": true, "inc": true, "co": true, "st": true, "mr": true, "ms": true, "dr": true,
}

// tailWords returns the last words of text worth about tokens tokens.
func tailWords(text string, tokens int) string {
	words := strings.Fields(text)
	n := int(float64(tokens) / 1.33)
	if n <= 0 || len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}

func copyBreadcrumb(bc []string) []string {
	if len(bc) == 0 {
		return nil
	}
	out := make([]string, len(bc))
	copy(out, bc)
	return out
}
