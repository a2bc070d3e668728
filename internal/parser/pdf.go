package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It reads positioned glyphs with the Go library
// and falls back to pdftotext -layout when enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*doctree.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docoutline-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := extractPDFSpans(tmpPath)
	if (err != nil || len(doc.Spans) == 0) && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(tmpPath)
		if err == nil {
			doc, err = (&TextParser{}).Parse(strings.NewReader(text), filename)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	doc.Title = baseTitle(filename)
	return doc, nil
}

func extractPDFSpans(path string) (doc *doctree.Document, err error) {
	// The library panics on some malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("read pdf: %v", rec)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc = &doctree.Document{}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		doc.Spans = append(doc.Spans, pageSpans(page.Content().Text, pageHeight(page), i)...)
	}
	doc.Pages = numPages
	return doc, nil
}

// pageHeight reads the inherited MediaBox, defaulting to US letter.
func pageHeight(page pdflib.Page) float64 {
	for v := page.V; !v.IsNull(); v = v.Key("Parent") {
		if box := v.Key("MediaBox"); !box.IsNull() && box.Len() == 4 {
			if h := box.Index(3).Float64() - box.Index(1).Float64(); h > 0 {
				return h
			}
		}
	}
	return 792
}

// lineGlyph is a glyph tagged with the text line it was assigned to.
type lineGlyph struct {
	pdflib.Text
	line int
}

// orderGlyphs drops empty glyphs and returns the rest in reading order. A
// line opens at the highest remaining baseline and takes every glyph within
// 1pt below it, so slightly skewed baselines stay on one line and the order
// does not depend on input order.
func orderGlyphs(glyphs []pdflib.Text) []lineGlyph {
	out := make([]lineGlyph, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			out = append(out, lineGlyph{Text: g})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Y > out[j].Y })

	line, top := -1, 0.0
	for i := range out {
		if line < 0 || top-out[i].Y > 1 {
			line++
			top = out[i].Y
		}
		out[i].line = line
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].line != out[j].line {
			return out[i].line < out[j].line
		}
		return out[i].X < out[j].X
	})
	return out
}

// pageSpans groups glyphs into runs sharing a line and font, and flips
// coordinates so y grows downward.
func pageSpans(glyphs []pdflib.Text, height float64, page int) []doctree.Span {
	sorted := orderGlyphs(glyphs)

	var spans []doctree.Span
	var buf bytes.Buffer
	var run *lineGlyph
	var x1 float64

	flush := func() {
		if run == nil {
			return
		}
		if strings.TrimSpace(buf.String()) != "" {
			top := height - run.Y - run.FontSize*0.8
			bold, italic := fontTraits(run.Font)
			spans = append(spans, doctree.Span{
				Text:     buf.String(),
				BBox:     doctree.BBox{X0: run.X, Y0: top, X1: x1, Y1: top + run.FontSize},
				FontName: run.Font,
				FontSize: run.FontSize,
				Bold:     bold,
				Italic:   italic,
				Page:     page,
			})
		}
		buf.Reset()
		run = nil
	}

	for i := range sorted {
		g := sorted[i]
		if run != nil {
			sameRun := g.line == run.line && g.Font == run.Font && g.FontSize == run.FontSize &&
				g.X >= x1-1 && g.X-x1 < 0.1*g.FontSize
			if !sameRun {
				flush()
			}
		}
		if run == nil {
			run = &sorted[i]
		}
		buf.WriteString(g.S)
		x1 = g.X + g.W
	}
	flush()
	return spans
}

// fontTraits guesses weight and slant from a PostScript font name such as
// "ABCDEF+TimesNewRoman-BoldItalic".
func fontTraits(font string) (bold, italic bool) {
	f := strings.ToLower(font)
	bold = strings.Contains(f, "bold") || strings.Contains(f, "black") ||
		strings.Contains(f, "heavy") || strings.Contains(f, "semibold")
	italic = strings.Contains(f, "italic") || strings.Contains(f, "oblique")
	return bold, italic
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
