package hierarchy

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Result is the outcome of building one document.
type Result struct {
	Forest   doctree.Forest
	Warnings []doctree.Warning
	Pages    int
	Blocks   int
	Margin   float64
	BodyFont float64
	Duration time.Duration
}

// Engine runs normalization, classification and stack building for a document.
// An Engine holds no per-document state and may be shared across goroutines.
type Engine struct {
	cfg        Config
	classifier *Classifier
	log        *slog.Logger
}

func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, classifier: NewClassifier(cfg), log: log}
}

// Config returns the engine thresholds.
func (e *Engine) Config() Config { return e.cfg }

// Build normalizes raw spans page by page and builds the outline.
func (e *Engine) Build(spans []doctree.Span) *Result {
	start := time.Now()
	pages := GroupPages(spans)
	perPage := make([][]doctree.TextBlock, len(pages))
	e.parallel(len(pages), func(i int) {
		perPage[i] = NormalizePage(pages[i], e.cfg)
	})

	var blocks []doctree.TextBlock
	for _, p := range perPage {
		blocks = append(blocks, p...)
	}
	res := e.BuildBlocks(blocks)
	res.Pages = len(pages)
	res.Duration = time.Since(start)
	return res
}

// BuildBlocks builds the outline from already normalized blocks. Marker
// matching runs concurrently; the stack reduction runs in document order.
func (e *Engine) BuildBlocks(blocks []doctree.TextBlock) *Result {
	start := time.Now()
	margin := e.cfg.BaseLeftMargin
	if margin <= 0 {
		margin = DetectMargin(blocks)
	}
	body := BodyFontSize(blocks)

	cands := make([][]Candidate, len(blocks))
	e.parallel(len(blocks), func(i int) {
		cands[i] = e.classifier.Match(blocks[i])
	})

	b := NewBuilder(e.cfg)
	pages := make(map[int]bool)
	for i, blk := range blocks {
		if CleanText(blk.Text) == "" {
			continue
		}
		pages[blk.Page] = true
		d := e.classifier.Resolve(blk, cands[i], b.Context(margin, body))
		if d.Ambiguous() {
			e.log.Debug("classification ambiguity",
				"page", blk.Page,
				"text", truncate(blk.Text, 60),
				"indentation", blk.Indentation,
				"candidate", d.Rejected[0].Tier.String(),
			)
		}
		b.Add(blk, d)
	}

	forest, warnings := b.Finish()
	warnings = append(warnings, Validate(forest)...)
	return &Result{
		Forest:   forest,
		Warnings: warnings,
		Pages:    len(pages),
		Blocks:   len(blocks),
		Margin:   margin,
		BodyFont: body,
		Duration: time.Since(start),
	}
}

// parallel runs fn for every index in [0, n) on at most cfg.Workers goroutines.
func (e *Engine) parallel(n int, fn func(i int)) {
	workers := min(e.cfg.workers(), n)
	if workers <= 1 {
		for i := range n {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i := range n {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(i)
		}(i)
	}
	wg.Wait()
}
