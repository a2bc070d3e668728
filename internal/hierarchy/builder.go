package hierarchy

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Warning rules raised while building.
const (
	RuleAmbiguity = "classification_ambiguity"
	RuleDangling  = "dangling_content"
	RuleDedent    = "dedent_closed"
)

// frame is an open node and the raw text of the block that opened it.
type frame struct {
	node       *doctree.Node
	heading    string
	hasContent bool
}

// Builder turns a page-ordered stream of classified blocks into a forest using
// an explicit stack of open ancestors. Nodes leave the stack exactly once and
// are never reopened. A Builder is not safe for concurrent use.
type Builder struct {
	cfg      Config
	stack    []*frame
	roots    doctree.Forest
	warnings []doctree.Warning
	seq      int
	done     bool
}

func NewBuilder(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

// Stack returns a snapshot of the open ancestors, bottom first.
func (b *Builder) Stack() []OpenEntry {
	out := make([]OpenEntry, len(b.stack))
	for i, f := range b.stack {
		out[i] = OpenEntry{ID: f.node.ID, Tier: f.node.Tier, Indentation: f.node.Indentation}
	}
	return out
}

// Context returns the classification context for the current stack.
func (b *Builder) Context(margin, bodyFont float64) Context {
	return Context{Open: b.Stack(), Margin: margin, BodyFont: bodyFont}
}

// Add consumes one block with its classifier decision.
func (b *Builder) Add(block doctree.TextBlock, d Decision) {
	if b.done {
		return
	}
	if d.Heading != nil {
		b.openHeading(block, *d.Heading)
		return
	}
	n := b.addContent(block)
	if d.Ambiguous() {
		r := d.Rejected[0]
		b.warn(n.ID, RuleAmbiguity, fmt.Sprintf("page %d: %q reads as %s %q but indentation %.1f fits no open ancestor",
			block.Page, truncate(block.Text, 40), r.Tier, r.Identifier, block.Indentation))
	}
}

// Finish closes every open node and returns the forest with build warnings.
func (b *Builder) Finish() (doctree.Forest, []doctree.Warning) {
	for len(b.stack) > 0 {
		b.pop()
	}
	b.done = true
	return b.roots, b.warnings
}

func (b *Builder) openHeading(block doctree.TextBlock, cand Candidate) {
	rank := cand.Tier.Rank()
	for len(b.stack) > 0 && b.top().node.Tier.Rank() >= rank {
		b.pop()
	}

	n := b.newNode(cand.Tier, block)
	n.Identifier = cand.Identifier
	n.Keyword = cand.Keyword
	n.Title = CleanText(cand.Title)
	b.attach(n)
	b.stack = append(b.stack, &frame{node: n, heading: block.Text})
}

func (b *Builder) addContent(block doctree.TextBlock) *doctree.Node {
	text := CleanText(block.Text)

	if len(b.stack) == 0 {
		n := b.newNode(doctree.TierParagraph, block)
		b.attach(n)
		b.stack = append(b.stack, &frame{node: n})
		b.warn(n.ID, RuleDangling, fmt.Sprintf("page %d: content before any heading", block.Page))
	} else if block.Indentation < b.top().node.Indentation-b.cfg.DedentThreshold {
		var closed []string
		for len(b.stack) > 1 && b.top().node.Indentation > block.Indentation+b.cfg.IndentationTolerance {
			closed = append(closed, b.top().node.ID)
			b.pop()
		}
		if len(closed) > 0 {
			b.warn(b.top().node.ID, RuleDedent, fmt.Sprintf("page %d: de-indented text closed %s",
				block.Page, strings.Join(closed, ", ")))
		}
	}

	f := b.top()
	if !f.hasContent {
		text = stripHeadingEcho(f.heading, text)
	}
	appendContent(f.node, text)
	f.hasContent = true
	f.node.PageEnd = max(f.node.PageEnd, block.Page)
	return f.node
}

func (b *Builder) newNode(tier doctree.Tier, block doctree.TextBlock) *doctree.Node {
	b.seq++
	return &doctree.Node{
		ID:          fmt.Sprintf("node_%06d", b.seq),
		Tier:        tier,
		PageStart:   block.Page,
		PageEnd:     block.Page,
		Indentation: block.Indentation,
		FontSize:    block.FontSize,
		Bold:        block.Bold,
		Italic:      block.Italic,
	}
}

// attach appends n to the top of the stack, or to the roots.
func (b *Builder) attach(n *doctree.Node) {
	if len(b.stack) == 0 {
		b.roots = append(b.roots, n)
		return
	}
	parent := b.top().node
	n.ParentPath = JoinPath(parent.ParentPath, parent.Label())
	parent.Children = append(parent.Children, n)
}

func (b *Builder) top() *frame { return b.stack[len(b.stack)-1] }

// pop closes the top node, extending its page range over its children.
func (b *Builder) pop() {
	f := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	for _, c := range f.node.Children {
		f.node.PageEnd = max(f.node.PageEnd, c.PageEnd)
	}
}

func (b *Builder) warn(nodeID, rule, detail string) {
	b.warnings = append(b.warnings, doctree.Warning{NodeID: nodeID, Rule: rule, Detail: detail})
}

// JoinPath extends a breadcrumb with one more label.
func JoinPath(path, label string) string {
	if path == "" {
		return label
	}
	return path + " > " + label
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
