package hierarchy

import (
	"math"
	"sort"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// OpenEntry describes one node on the construction stack.
type OpenEntry struct {
	ID          string
	Tier        doctree.Tier
	Indentation float64
}

// Context is the structural state a block is resolved against.
type Context struct {
	Open     []OpenEntry // bottom of the stack first
	Margin   float64
	BodyFont float64
}

// topLevelOpen reports whether a Section or Addendum is open.
func (c Context) topLevelOpen() bool {
	for _, e := range c.Open {
		if e.Tier.TopLevel() {
			return true
		}
	}
	return false
}

// topLevelIndent returns the header indentation of the innermost open
// Section or Addendum.
func (c Context) topLevelIndent() (float64, bool) {
	for i := len(c.Open) - 1; i >= 0; i-- {
		if c.Open[i].Tier.TopLevel() {
			return c.Open[i].Indentation, true
		}
	}
	return 0, false
}

// parentIndent returns the header indentation of the node a block of tier t
// would attach to: the nearest open entry of a strictly shallower rank.
func (c Context) parentIndent(t doctree.Tier) (float64, bool) {
	for i := len(c.Open) - 1; i >= 0; i-- {
		if c.Open[i].Tier.Rank() < t.Rank() {
			return c.Open[i].Indentation, true
		}
	}
	return 0, false
}

// Decision is the classifier verdict for one block.
type Decision struct {
	Heading  *Candidate  // nil when the block is content
	Rejected []Candidate // marker readings no tier accepted
}

// Ambiguous reports whether a marker matched but was refused on structure.
func (d Decision) Ambiguous() bool { return d.Heading == nil && len(d.Rejected) > 0 }

// Classifier decides heading tiers. Match is stack-independent and safe for
// concurrent use; Resolve depends on the construction stack.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Match returns the marker readings of a block in priority order.
func (c *Classifier) Match(b doctree.TextBlock) []Candidate {
	return MatchMarkers(b.Text)
}

// Resolve accepts the first candidate whose structural signals agree with ctx.
func (c *Classifier) Resolve(b doctree.TextBlock, cands []Candidate, ctx Context) Decision {
	for i := range cands {
		if c.accepts(b, cands[i], ctx) {
			cand := cands[i]
			return Decision{Heading: &cand}
		}
	}
	return Decision{Rejected: cands}
}

// Classify is Match followed by Resolve.
func (c *Classifier) Classify(b doctree.TextBlock, ctx Context) Decision {
	return c.Resolve(b, c.Match(b), ctx)
}

func (c *Classifier) accepts(b doctree.TextBlock, cand Candidate, ctx Context) bool {
	if cand.Tier.TopLevel() {
		if b.Indentation >= ctx.Margin+c.cfg.MarginSlack {
			return false
		}
		prominent := c.prominent(b, ctx)
		switch cand.Form {
		case FormKeyword:
			return cand.UpperKeyword || prominent
		case FormRoman:
			// Roman letters double as capital item markers: indented past an
			// open section, only a prominent line reads as a new section.
			if top, ok := ctx.topLevelIndent(); ok && b.Indentation > top+c.cfg.IndentationTolerance {
				return prominent
			}
			return prominent || len(b.Text) <= c.cfg.MaxHeadingLength
		case FormNumeral:
			// A bare numeral at the margin is a section number unless a
			// section is already open and the line looks like body text.
			return prominent || !ctx.topLevelOpen()
		}
		return false
	}

	if ctx.BodyFont > 0 && b.FontSize < ctx.BodyFont-c.cfg.FontSizeTolerance {
		return false
	}
	parent, ok := ctx.parentIndent(cand.Tier)
	if !ok {
		return true
	}
	return b.Indentation > parent+c.cfg.IndentationTolerance
}

func (c *Classifier) prominent(b doctree.TextBlock, ctx Context) bool {
	if b.Bold || b.FontSize >= c.cfg.SectionFontSize {
		return true
	}
	return ctx.BodyFont > 0 && b.FontSize > ctx.BodyFont+c.cfg.FontSizeTolerance
}

// DetectMargin returns the document's left margin: the smallest indentation
// shared by at least 5% of blocks, or the smallest indentation overall.
func DetectMargin(blocks []doctree.TextBlock) float64 {
	if len(blocks) == 0 {
		return 0
	}
	counts := make(map[float64]int)
	least := math.Inf(1)
	for _, b := range blocks {
		x := math.Round(b.Indentation/2) * 2
		counts[x]++
		least = math.Min(least, b.Indentation)
	}
	keys := make([]float64, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	need := max(1, int(math.Ceil(float64(len(blocks))*0.05)))
	for _, k := range keys {
		if counts[k] >= need {
			return math.Max(k, least)
		}
	}
	return least
}

// BodyFontSize returns the most common font size by character count.
func BodyFontSize(blocks []doctree.TextBlock) float64 {
	counts := make(map[float64]int)
	for _, b := range blocks {
		counts[math.Round(b.FontSize*2)/2] += len(strings.TrimSpace(b.Text))
	}
	var best float64
	bestN := -1
	for size, n := range counts {
		if n > bestN || (n == bestN && size < best) {
			best, bestN = size, n
		}
	}
	return best
}
