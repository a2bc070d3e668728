package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// prominent lines at the margin; list nesting becomes indentation and ordered
// list items keep their numbers as markers.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	l := newLayout(baseTitle(filename))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		emitMarkdown(l, n, src, 0, "")
	}
	return l.document(), nil
}

// emitMarkdown lays out one block node. prefix is a list marker to put in
// front of the block's first line.
func emitMarkdown(l *layout, n ast.Node, src []byte, depth int, prefix string) {
	indent := float64(depth) * indentStep
	switch node := n.(type) {
	case *ast.Heading:
		st := style{size: headingSize(node.Level), bold: true}
		for _, ln := range inlineLines(node, src) {
			l.line(ln, indent, st)
		}
		l.gap()

	case *ast.List:
		for i, item := 0, node.FirstChild(); item != nil; i, item = i+1, item.NextSibling() {
			marker := ""
			if node.IsOrdered() {
				marker = fmt.Sprintf("%d%c ", node.Start+i, node.Marker)
			}
			first := true
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if first {
					emitMarkdown(l, c, src, depth+1, marker)
					first = false
					continue
				}
				emitMarkdown(l, c, src, depth+1, "")
			}
		}

	case *ast.Paragraph, *ast.TextBlock:
		st := bodyStyle
		if isStrongOnly(node) {
			st.bold = true
		}
		for i, ln := range inlineLines(node, src) {
			if i == 0 {
				ln = prefix + ln
			}
			l.line(ln, indent, st)
		}
		l.gap()

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := node.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			l.line(strings.TrimRight(string(seg.Value(src)), "\r\n"), indent+indentStep, bodyStyle)
		}
		l.gap()

	case *ast.ThematicBreak:
		l.gap()

	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			emitMarkdown(l, c, src, depth, prefix)
			prefix = ""
		}
	}
}

// inlineLines collects the text of a block's inline children, split at soft
// and hard line breaks.
func inlineLines(n ast.Node, src []byte) []string {
	var lines []string
	var buf bytes.Buffer
	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			lines = append(lines, s)
		}
		buf.Reset()
	}
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					flush()
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)
	flush()
	return lines
}

// isStrongOnly reports whether a paragraph is entirely bold.
func isStrongOnly(n ast.Node) bool {
	if n.ChildCount() != 1 {
		return false
	}
	em, ok := n.FirstChild().(*ast.Emphasis)
	return ok && em.Level == 2
}
