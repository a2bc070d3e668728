package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Heading tags become prominent lines, list
// depth becomes indentation, <ol type> decides the marker style and CSS page
// breaks start new pages.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := baseTitle(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}
	l := newLayout(title)
	w := &htmlWalker{l: l}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		w.walk(body, 0)
	} else {
		w.walk(doc, 0)
	}
	return l.document(), nil
}

type htmlWalker struct {
	l *layout
}

func (w *htmlWalker) walk(n *html.Node, depth int) {
	if n.Type == html.ElementNode {
		if breaksBefore(n) {
			w.l.pageBreak()
		}
		defer func() {
			if breaksAfter(n) {
				w.l.pageBreak()
			}
		}()

		if level := headingLevel(n.Data); level > 0 {
			w.l.line(textContent(n), float64(depth)*indentStep, style{size: headingSize(level), bold: true})
			w.l.gap()
			return
		}

		// Skip non-content elements.
		switch n.Data {
		case "script", "style", "nav", "footer", "header":
			return
		case "ol", "ul":
			w.list(n, depth+1)
			return
		case "p", "td", "blockquote", "pre":
			w.paragraph(n, depth, "")
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, depth)
	}
}

func (w *htmlWalker) list(n *html.Node, depth int) {
	ordered := n.Data == "ol"
	kind := attr(n, "type")
	next := 1
	if s, err := strconv.Atoi(attr(n, "start")); err == nil {
		next = s
	}
	for li := n.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		if v, err := strconv.Atoi(attr(li, "value")); err == nil {
			next = v
		}
		marker := ""
		if ordered {
			marker = listMarker(kind, next) + " "
		}
		next++
		w.paragraph(li, depth, marker)
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ol" || c.Data == "ul") {
				w.list(c, depth+1)
			}
		}
	}
}

// paragraph emits the inline text of n, excluding nested lists.
func (w *htmlWalker) paragraph(n *html.Node, depth int, prefix string) {
	t := inlineText(n)
	if t == "" {
		return
	}
	st := bodyStyle
	if isBoldOnly(n) {
		st.bold = true
	}
	w.l.line(prefix+t, float64(depth)*indentStep, st)
	w.l.gap()
}

// listMarker renders item number i in the style of an <ol type> attribute.
func listMarker(kind string, i int) string {
	switch kind {
	case "A":
		return letterMarker('A', i) + "."
	case "a":
		return letterMarker('a', i) + "."
	case "I":
		return romanMarker(i) + "."
	case "i":
		return strings.ToLower(romanMarker(i)) + "."
	}
	return strconv.Itoa(i) + "."
}

func letterMarker(base rune, i int) string {
	if i < 1 {
		i = 1
	}
	return string(base + rune((i-1)%26))
}

func romanMarker(n int) string {
	vals := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	syms := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}

func breaksBefore(n *html.Node) bool {
	s := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(s, "page-break-before:always") || strings.Contains(s, "break-before:page")
}

func breaksAfter(n *html.Node) bool {
	s := strings.ReplaceAll(strings.ToLower(attr(n, "style")), " ", "")
	return strings.Contains(s, "page-break-after:always") || strings.Contains(s, "break-after:page")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// inlineText is textContent without nested lists.
func inlineText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ol" || c.Data == "ul") {
				continue
			}
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// isBoldOnly reports whether every non-blank text child sits inside <b> or <strong>.
func isBoldOnly(n *html.Node) bool {
	found := false
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
		case c.Type == html.ElementNode && (c.Data == "b" || c.Data == "strong"):
			found = true
		case c.Type == html.ElementNode && (c.Data == "ol" || c.Data == "ul"):
		default:
			return false
		}
	}
	return found
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
