package parser

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Heading styles become prominent lines,
// paragraph indentation, list levels and leading tabs become indentation, and
// explicit page breaks start new pages.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docoutline-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	l := newLayout(baseTitle(filename))
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		dp := readParagraph(para)
		if dp.pageBreak {
			l.pageBreak()
		}
		if dp.text == "" {
			continue
		}
		st := style{size: dp.size, bold: dp.bold, italic: dp.italic}
		if level := docxHeadingLevel(para); level > 0 {
			st = style{size: headingSize(level), bold: true}
		}
		l.line(dp.text, dp.indent, st)
		l.gap()
	}
	return l.document(), nil
}

type docxPara struct {
	text         string
	indent       float64
	size         float64
	bold, italic bool
	pageBreak    bool
}

// readParagraph collects a paragraph's text and typographic traits. Bold and
// italic are majority votes over characters.
func readParagraph(para *docx.Paragraph) docxPara {
	var dp docxPara
	var buf strings.Builder
	leading := true
	tabs := 0
	chars, boldChars, italicChars := 0, 0, 0
	var sizeSum float64

	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		size, bold, italic := runTraits(run.RunProperties)
		for _, rc := range run.Children {
			switch t := rc.(type) {
			case *docx.Text:
				if leading && strings.TrimSpace(t.Text) == "" {
					continue
				}
				leading = false
				buf.WriteString(t.Text)
				n := len([]rune(strings.TrimSpace(t.Text)))
				chars += n
				sizeSum += size * float64(n)
				if bold {
					boldChars += n
				}
				if italic {
					italicChars += n
				}
			case *docx.Tab:
				if leading {
					tabs++
				} else {
					buf.WriteByte(' ')
				}
			case *docx.BarterRabbet:
				if t.Type == "page" {
					dp.pageBreak = true
				}
			}
		}
	}

	dp.text = strings.TrimSpace(buf.String())
	dp.indent = float64(tabs)*indentStep + paragraphIndent(para)
	dp.size = bodySize
	if chars > 0 {
		dp.size = sizeSum / float64(chars)
		dp.bold = boldChars*2 > chars
		dp.italic = italicChars*2 > chars
	}
	return dp
}

// runTraits reads size (half-points in the XML) and weight of a run.
func runTraits(rp *docx.RunProperties) (size float64, bold, italic bool) {
	size = bodySize
	if rp == nil {
		return size, false, false
	}
	if rp.Size != nil {
		if hp, err := strconv.Atoi(rp.Size.Val); err == nil && hp > 0 {
			size = float64(hp) / 2
		}
	}
	return size, rp.Bold != nil, rp.Italic != nil
}

// paragraphIndent converts w:ind (twentieths of a point) and list levels to points.
func paragraphIndent(para *docx.Paragraph) float64 {
	props := para.Properties
	if props == nil {
		return 0
	}
	var indent float64
	if props.Ind != nil && props.Ind.Left > 0 {
		indent = float64(props.Ind.Left) / 20
	} else if props.NumProperties != nil && props.NumProperties.Ilvl != nil {
		if lvl, err := strconv.Atoi(props.NumProperties.Ilvl.Val); err == nil {
			indent = float64(lvl+1) * indentStep
		}
	} else if props.Style != nil && strings.EqualFold(props.Style.Val, "ListParagraph") {
		indent = indentStep
	}
	return indent
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if strings.HasPrefix(style, "heading") {
		if n, err := strconv.Atoi(strings.TrimPrefix(style, "heading")); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	if style == "title" {
		return 1
	}
	return 0
}
