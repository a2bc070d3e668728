package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// TextParser handles plain text files. Leading whitespace becomes indentation,
// blank lines separate paragraphs and form feeds start a new page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	l := newLayout(baseTitle(filename))
	for scanner.Scan() {
		for i, part := range strings.Split(scanner.Text(), "\f") {
			if i > 0 {
				l.pageBreak()
			}
			text := strings.TrimSpace(part)
			if text == "" {
				if i == 0 {
					l.gap()
				}
				continue
			}
			l.line(text, leadingWidth(part)*charWidth, bodyStyle)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return l.document(), nil
}

// leadingWidth counts leading whitespace in columns; a tab is four columns.
func leadingWidth(s string) float64 {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return float64(n)
		}
	}
	return float64(n)
}
