package hierarchy

import (
	"github.com/dgallion1/docoutline/internal/doctree"
)

// Record is the nested persisted form of a node.
type Record struct {
	ID         string       `json:"id" yaml:"id"`
	Tier       doctree.Tier `json:"tier,omitempty" yaml:"tier,omitempty"`
	Identifier *string      `json:"identifier" yaml:"identifier"`
	Keyword    string       `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Title      *string      `json:"title" yaml:"title"`
	Content    string       `json:"content" yaml:"content"`
	PageStart  int          `json:"page_start" yaml:"page_start"`
	PageEnd    int          `json:"page_end" yaml:"page_end"`
	ParentPath *string      `json:"parent_path" yaml:"parent_path"`
	Children   []Record     `json:"children" yaml:"children,omitempty"`
}

// FlatRecord is one node of the flattened form: depth instead of children.
type FlatRecord struct {
	ID          string       `json:"id" yaml:"id"`
	Tier        doctree.Tier `json:"tier,omitempty" yaml:"tier,omitempty"`
	Identifier  *string      `json:"identifier" yaml:"identifier"`
	Keyword     string       `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Title       *string      `json:"title" yaml:"title"`
	Content     string       `json:"content" yaml:"content"`
	Level       int          `json:"level" yaml:"level"`
	PageStart   int          `json:"page_start" yaml:"page_start"`
	PageEnd     int          `json:"page_end" yaml:"page_end"`
	ParentPath  *string      `json:"parent_path" yaml:"parent_path"`
	HasChildren bool         `json:"has_children" yaml:"has_children"`
}

// ProcessingInfo describes how an outline was produced.
type ProcessingInfo struct {
	ParserVersion string         `json:"parser_version" yaml:"parser_version"`
	Source        string         `json:"source,omitempty" yaml:"source,omitempty"`
	Pages         int            `json:"pages" yaml:"pages"`
	Blocks        int            `json:"blocks" yaml:"blocks"`
	Nodes         int            `json:"nodes" yaml:"nodes"`
	TierCounts    map[string]int `json:"tier_counts" yaml:"tier_counts"`
	Margin        float64        `json:"margin" yaml:"margin"`
	BodyFontSize  float64        `json:"body_font_size" yaml:"body_font_size"`
	DurationMS    int64          `json:"duration_ms" yaml:"duration_ms"`
}

// Document is the envelope emitted for one processed document.
type Document struct {
	ID         string            `json:"id" yaml:"id"`
	Title      string            `json:"title" yaml:"title"`
	Sections   []Record          `json:"sections" yaml:"sections"`
	Warnings   []doctree.Warning `json:"warnings" yaml:"warnings"`
	Processing ProcessingInfo    `json:"processing" yaml:"processing"`
}

// FlatDocument is the envelope of the flattened form.
type FlatDocument struct {
	ID         string            `json:"id" yaml:"id"`
	Title      string            `json:"title" yaml:"title"`
	Nodes      []FlatRecord      `json:"nodes" yaml:"nodes"`
	Warnings   []doctree.Warning `json:"warnings" yaml:"warnings"`
	Processing ProcessingInfo    `json:"processing" yaml:"processing"`
}

// Flat converts the envelope to its flattened form.
func (d Document) Flat() FlatDocument {
	return FlatDocument{
		ID:         d.ID,
		Title:      d.Title,
		Nodes:      Flatten(FromRecords(d.Sections)),
		Warnings:   d.Warnings,
		Processing: d.Processing,
	}
}

// ToRecords converts a forest into nested records.
func ToRecords(f doctree.Forest) []Record {
	out := make([]Record, 0, len(f))
	for _, n := range f {
		out = append(out, toRecord(n))
	}
	return out
}

func toRecord(n *doctree.Node) Record {
	r := Record{
		ID:         n.ID,
		Tier:       n.Tier,
		Identifier: optional(n.Identifier),
		Keyword:    n.Keyword,
		Title:      optional(n.Title),
		Content:    n.Content,
		PageStart:  n.PageStart,
		PageEnd:    n.PageEnd,
		ParentPath: optional(n.ParentPath),
		Children:   make([]Record, 0, len(n.Children)),
	}
	for _, c := range n.Children {
		r.Children = append(r.Children, toRecord(c))
	}
	return r
}

// FromRecords rebuilds a forest from nested records.
func FromRecords(recs []Record) doctree.Forest {
	out := make(doctree.Forest, 0, len(recs))
	for _, r := range recs {
		out = append(out, fromRecord(r))
	}
	return out
}

func fromRecord(r Record) *doctree.Node {
	n := &doctree.Node{
		ID:         r.ID,
		Tier:       r.Tier,
		Identifier: deref(r.Identifier),
		Keyword:    r.Keyword,
		Title:      deref(r.Title),
		Content:    r.Content,
		PageStart:  r.PageStart,
		PageEnd:    r.PageEnd,
		ParentPath: deref(r.ParentPath),
	}
	for _, c := range r.Children {
		n.Children = append(n.Children, fromRecord(c))
	}
	return n
}

// Flatten lists the forest in document order with each node's depth as level.
func Flatten(f doctree.Forest) []FlatRecord {
	var out []FlatRecord
	f.Walk(func(n *doctree.Node, depth int) {
		out = append(out, FlatOf(n, depth))
	})
	return out
}

// FlatOf is the flat record of a single node at the given depth.
func FlatOf(n *doctree.Node, depth int) FlatRecord {
	return FlatRecord{
		ID:          n.ID,
		Tier:        n.Tier,
		Identifier:  optional(n.Identifier),
		Keyword:     n.Keyword,
		Title:       optional(n.Title),
		Content:     n.Content,
		Level:       depth,
		PageStart:   n.PageStart,
		PageEnd:     n.PageEnd,
		ParentPath:  optional(n.ParentPath),
		HasChildren: len(n.Children) > 0,
	}
}

// NewDocument wraps a build result in the output envelope.
func NewDocument(id, title string, res *Result, parserVersion string) Document {
	counts := make(map[string]int)
	for tier, n := range res.Forest.TierCounts() {
		counts[tier.String()] = n
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []doctree.Warning{}
	}
	return Document{
		ID:       id,
		Title:    title,
		Sections: ToRecords(res.Forest),
		Warnings: warnings,
		Processing: ProcessingInfo{
			ParserVersion: parserVersion,
			Pages:         res.Pages,
			Blocks:        res.Blocks,
			Nodes:         res.Forest.Count(),
			TierCounts:    counts,
			Margin:        res.Margin,
			BodyFontSize:  res.BodyFont,
			DurationMS:    res.Duration.Milliseconds(),
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
