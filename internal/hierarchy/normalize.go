package hierarchy

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// line is one visual line: spans sharing a baseline band, left to right.
type line struct {
	text  string
	box   doctree.BBox
	spans []doctree.Span
	size  float64 // char-weighted mean font size
	bold  bool
}

// GroupPages splits a span stream into per-page slices in ascending page order.
// Order within a page is preserved.
func GroupPages(spans []doctree.Span) [][]doctree.Span {
	byPage := make(map[int][]doctree.Span)
	for _, s := range spans {
		p := s.Page
		if p < 1 {
			p = 1
			s.Page = 1
		}
		byPage[p] = append(byPage[p], s)
	}
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	out := make([][]doctree.Span, 0, len(pages))
	for _, p := range pages {
		out = append(out, byPage[p])
	}
	return out
}

// NormalizePage merges the spans of one page into text blocks. Text is never
// dropped; whitespace-only spans only influence spacing.
func NormalizePage(spans []doctree.Span, cfg Config) []doctree.TextBlock {
	lines := groupLines(spans, cfg)
	if len(lines) == 0 {
		return nil
	}

	var blocks []doctree.TextBlock
	cur := []*line{lines[0]}
	for _, ln := range lines[1:] {
		if continues(cur, ln, cfg) {
			cur = append(cur, ln)
			continue
		}
		blocks = appendBlocks(blocks, cur)
		cur = []*line{ln}
	}
	return appendBlocks(blocks, cur)
}

func groupLines(spans []doctree.Span, cfg Config) []*line {
	var lines []*line
	var cur *line
	for _, s := range spans {
		if strings.TrimSpace(s.Text) == "" {
			continue
		}
		if cur != nil && sameLine(cur.box, s.BBox) && s.BBox.X0 >= cur.box.X0 {
			cur.add(s, cfg)
			continue
		}
		cur = &line{text: s.Text, box: s.BBox, spans: []doctree.Span{s}}
		lines = append(lines, cur)
	}
	for _, ln := range lines {
		ln.text = strings.TrimSpace(ln.text)
		ln.size, ln.bold, _, _ = spanTraits(ln.spans)
	}
	return lines
}

func (l *line) add(s doctree.Span, cfg Config) {
	prev := l.spans[len(l.spans)-1]
	size := math.Max(prev.FontSize, s.FontSize)
	gap := s.BBox.X0 - prev.BBox.X1
	switch {
	case strings.HasSuffix(l.text, " ") || strings.HasPrefix(s.Text, " "):
		l.text += s.Text
	case gap < cfg.WordGapFactor*size:
		// Extractors split words into glyph runs; close gaps rejoin them.
		l.text += s.Text
	default:
		l.text += " " + s.Text
	}
	l.box = l.box.Union(s.BBox)
	l.spans = append(l.spans, s)
}

// sameLine reports whether two boxes share most of their vertical extent.
func sameLine(a, b doctree.BBox) bool {
	ha, hb := a.Height(), b.Height()
	if ha <= 0 || hb <= 0 {
		return math.Abs(a.Y0-b.Y0) < 1
	}
	overlap := math.Min(a.Y1, b.Y1) - math.Max(a.Y0, b.Y0)
	return overlap > 0.5*math.Min(ha, hb)
}

// continues decides whether ln extends the block made of cur.
func continues(cur []*line, ln *line, cfg Config) bool {
	first, last := cur[0], cur[len(cur)-1]
	if ln.box.Y0 < last.box.Y0 {
		return false // moved up the page: new column or out-of-order text
	}
	size := math.Max(last.size, 1)
	if ln.box.Y0-last.box.Y1 > cfg.GapFactor*size {
		return false
	}
	delta := ln.box.X0 - first.box.X0
	if delta < -cfg.IndentationTolerance || delta > cfg.ContinuationIndent {
		return false
	}
	if math.Abs(ln.size-last.size) > cfg.FontSizeTolerance {
		return false
	}

	leadIn := isBareLeadIn(joinLines(cur))
	if ln.bold != last.bold && !leadIn {
		return false
	}
	if startsWithMarker(ln.text) && !leadIn {
		return false
	}
	return true
}

// appendBlocks emits cur as one or more blocks. A bare lead-in followed by a
// line carrying a marker of a different tier is split back apart, so that
// "A." over "1. Wages" stays two headings while "LOA" over "3. Scheduling"
// stays one.
func appendBlocks(blocks []doctree.TextBlock, cur []*line) []doctree.TextBlock {
	for i := 1; i < len(cur); i++ {
		head := joinLines(cur[:i])
		if !isBareLeadIn(head) {
			continue
		}
		hc := MatchMarkers(head)
		tc := MatchMarkers(joinLines(cur[i:]))
		if len(hc) > 0 && len(tc) > 0 && !sharesTier(hc, tc) {
			blocks = append(blocks, makeBlock(cur[:i]))
			return appendBlocks(blocks, cur[i:])
		}
	}
	return append(blocks, makeBlock(cur))
}

func joinLines(lines []*line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.text
	}
	return strings.Join(parts, " ")
}

func makeBlock(lines []*line) doctree.TextBlock {
	var spans []doctree.Span
	box := lines[0].box
	for _, l := range lines {
		spans = append(spans, l.spans...)
		box = box.Union(l.box)
	}
	size, bold, italic, font := spanTraits(spans)
	return doctree.TextBlock{
		Text:        joinLines(lines),
		BBox:        box,
		Indentation: lines[0].box.X0,
		FontSize:    size,
		FontName:    font,
		Bold:        bold,
		Italic:      italic,
		Page:        spans[0].Page,
		Spans:       len(spans),
	}
}

// spanTraits summarizes spans weighted by character count: mean font size,
// majority bold and italic, and the font name covering the most characters.
func spanTraits(spans []doctree.Span) (size float64, bold, italic bool, font string) {
	var chars, boldChars, italicChars int
	var sizeSum float64
	fonts := make(map[string]int)
	for _, s := range spans {
		n := len([]rune(strings.TrimSpace(s.Text)))
		if n == 0 {
			n = 1
		}
		chars += n
		sizeSum += s.FontSize * float64(n)
		if s.Bold {
			boldChars += n
		}
		if s.Italic {
			italicChars += n
		}
		if s.FontName != "" {
			fonts[s.FontName] += n
		}
	}
	if chars == 0 {
		return 0, false, false, ""
	}
	best := 0
	for name, n := range fonts {
		if n > best || (n == best && name < font) {
			font, best = name, n
		}
	}
	return sizeSum / float64(chars), boldChars*2 > chars, italicChars*2 > chars, font
}
