package parser

import (
	"unicode/utf8"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Synthetic page geometry for formats that carry structure but no positions.
// Values mimic a letter-size page set in 11pt type.
const (
	pageMargin   = 72.0
	pageWidth    = 612.0
	bodySize     = 11.0
	lineHeight   = 14.0
	indentStep   = 20.0
	charWidth    = 6.0
	linesPerPage = 50
)

// headingSize maps heading levels 1..6 to font sizes.
func headingSize(level int) float64 {
	switch level {
	case 1:
		return 18
	case 2:
		return 16
	case 3:
		return 14
	case 4:
		return 13
	}
	return 12
}

// layout places lines of text on synthetic pages, top to bottom.
type layout struct {
	doc   *doctree.Document
	page  int
	y     float64
	lines int
}

func newLayout(title string) *layout {
	return &layout{doc: &doctree.Document{Title: title}, page: 1, y: pageMargin}
}

type style struct {
	size   float64
	bold   bool
	italic bool
}

var bodyStyle = style{size: bodySize}

// line emits one visual line at the given indentation from the margin.
func (l *layout) line(text string, indent float64, st style) {
	if text == "" {
		return
	}
	if l.lines >= linesPerPage {
		l.pageBreak()
	}
	if st.size == 0 {
		st.size = bodySize
	}
	x0 := pageMargin + indent
	width := float64(utf8.RuneCountInString(text)) * charWidth * st.size / bodySize
	font := "Body"
	if st.bold {
		font = "Body-Bold"
	}
	l.doc.Spans = append(l.doc.Spans, doctree.Span{
		Text:     text,
		BBox:     doctree.BBox{X0: x0, Y0: l.y, X1: min(x0+width, pageWidth), Y1: l.y + st.size},
		FontName: font,
		FontSize: st.size,
		Bold:     st.bold,
		Italic:   st.italic,
		Page:     l.page,
	})
	l.y += max(lineHeight, st.size+3)
	l.lines++
}

// gap ends a paragraph.
func (l *layout) gap() {
	if l.lines > 0 {
		l.y += lineHeight
	}
}

func (l *layout) pageBreak() {
	if l.lines == 0 {
		return
	}
	l.page++
	l.y = pageMargin
	l.lines = 0
}

func (l *layout) document() *doctree.Document {
	l.doc.Pages = l.page
	return l.doc
}
