package doctree

import "strings"

// BBox is a rectangle in page coordinates. Y grows downward from the top of the page.
type BBox struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// Union returns the smallest box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		X0: min(b.X0, o.X0),
		Y0: min(b.Y0, o.Y0),
		X1: max(b.X1, o.X1),
		Y1: max(b.Y1, o.Y1),
	}
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 { return b.Y1 - b.Y0 }

// Span is a raw positioned text fragment as delivered by a layout extractor.
// Spans may be split anywhere, even mid-word.
type Span struct {
	Text     string  `json:"text"`
	BBox     BBox    `json:"bbox"`
	FontName string  `json:"font_name,omitempty"`
	FontSize float64 `json:"font_size"`
	Bold     bool    `json:"bold,omitempty"`
	Italic   bool    `json:"italic,omitempty"`
	Page     int     `json:"page"`
}

// TextBlock is a normalized unit of classification: one heading or paragraph opening.
type TextBlock struct {
	Text        string
	BBox        BBox
	Indentation float64 // left edge of the first line
	FontSize    float64
	FontName    string
	Bold        bool
	Italic      bool
	Page        int
	Spans       int // number of raw spans merged into this block
}

// Document is the span stream of one source file.
type Document struct {
	Title string
	Pages int
	Spans []Span
}

// Node is one node of the reconstructed outline.
type Node struct {
	ID         string
	Tier       Tier
	Identifier string // captured marker, e.g. "1", "A", "3"; empty for Paragraph
	Keyword    string // lead keyword of the marker, e.g. "SECTION", "LOA"
	Title      string
	Content    string
	PageStart  int
	PageEnd    int
	ParentPath string
	Children   []*Node

	// Header traits of the block that opened the node.
	Indentation float64
	FontSize    float64
	Bold        bool
	Italic      bool
}

// Label is the short human-readable name used in breadcrumbs.
func (n *Node) Label() string {
	switch {
	case n.Keyword != "" && n.Identifier != "":
		return n.Keyword + " " + n.Identifier
	case n.Identifier != "":
		return n.Identifier
	case n.Title != "":
		return n.Title
	}
	return "unknown"
}

// Heading renders the marker and title the way they read in the document.
func (n *Node) Heading() string {
	var parts []string
	if n.Keyword != "" {
		parts = append(parts, n.Keyword)
	}
	if n.Identifier != "" {
		parts = append(parts, n.Identifier)
	}
	if n.Title != "" {
		parts = append(parts, n.Title)
	}
	return strings.Join(parts, " ")
}

// Walk visits n and its descendants depth-first; depth starts at 0 for n.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(*Node, int), depth int) {
	fn(n, depth)
	for _, c := range n.Children {
		c.walk(fn, depth+1)
	}
}

// Forest is the ordered list of root nodes for one document.
type Forest []*Node

// Walk visits every node of the forest in document order.
func (f Forest) Walk(fn func(node *Node, depth int)) {
	for _, r := range f {
		r.Walk(fn)
	}
}

// Count returns the total number of nodes.
func (f Forest) Count() int {
	n := 0
	f.Walk(func(*Node, int) { n++ })
	return n
}

// TierCounts tallies nodes per tier.
func (f Forest) TierCounts() map[Tier]int {
	out := make(map[Tier]int)
	f.Walk(func(n *Node, _ int) { out[n.Tier]++ })
	return out
}

// Warning is a non-fatal finding about the outline.
type Warning struct {
	NodeID string `json:"node_id" yaml:"node_id"`
	Rule   string `json:"rule" yaml:"rule"`
	Detail string `json:"detail" yaml:"detail"`
}

// Chunk is a sized text segment with structural context.
type Chunk struct {
	Text       string   `json:"text"`
	Index      int      `json:"index"`
	NodeID     string   `json:"node_id"`
	Breadcrumb []string `json:"breadcrumb"` // e.g. ["SECTION 1", "A", "3"]
	PageStart  int      `json:"page_start"`
	PageEnd    int      `json:"page_end"`
}
