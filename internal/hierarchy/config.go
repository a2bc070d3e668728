package hierarchy

import (
	"fmt"
	"runtime"
)

// Config holds the geometric and typographic thresholds of the engine.
// Distances are in page units (points for PDF input).
type Config struct {
	// Normalizer.
	GapFactor          float64 `json:"gap_factor" yaml:"gap_factor"`                   // max vertical gap between merged lines, × font size
	WordGapFactor      float64 `json:"word_gap_factor" yaml:"word_gap_factor"`         // horizontal gap below which same-line spans join without a space, × font size
	ContinuationIndent float64 `json:"continuation_indent" yaml:"continuation_indent"` // max indent growth of a wrapped line
	FontSizeTolerance  float64 `json:"font_size_tolerance" yaml:"font_size_tolerance"`

	// Classifier.
	BaseLeftMargin       float64 `json:"base_left_margin" yaml:"base_left_margin"` // 0 = detect from the document
	MarginSlack          float64 `json:"margin_slack" yaml:"margin_slack"`
	IndentationTolerance float64 `json:"indentation_tolerance" yaml:"indentation_tolerance"`
	SectionFontSize      float64 `json:"section_font_size" yaml:"section_font_size"`   // at or above this size a line reads as a heading
	MaxHeadingLength     int     `json:"max_heading_length" yaml:"max_heading_length"` // longer roman-numbered lines need prominence

	// Builder.
	DedentThreshold float64 `json:"dedent_threshold" yaml:"dedent_threshold"`

	// Workers bounds per-document page and block parallelism. 0 = GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultConfig returns thresholds tuned for letter-size contract PDFs.
func DefaultConfig() Config {
	return Config{
		GapFactor:            0.8,
		WordGapFactor:        0.15,
		ContinuationIndent:   24,
		FontSizeTolerance:    1.0,
		MarginSlack:          10,
		IndentationTolerance: 5,
		SectionFontSize:      14,
		MaxHeadingLength:     100,
		DedentThreshold:      15,
	}
}

// Validate checks that thresholds are usable.
func (c Config) Validate() error {
	if c.GapFactor <= 0 {
		return fmt.Errorf("gap_factor must be positive")
	}
	if c.WordGapFactor < 0 {
		return fmt.Errorf("word_gap_factor must not be negative")
	}
	if c.ContinuationIndent < 0 || c.FontSizeTolerance < 0 || c.MarginSlack < 0 ||
		c.IndentationTolerance < 0 || c.DedentThreshold < 0 {
		return fmt.Errorf("indentation and font tolerances must not be negative")
	}
	if c.BaseLeftMargin < 0 {
		return fmt.Errorf("base_left_margin must not be negative")
	}
	if c.MaxHeadingLength <= 0 {
		return fmt.Errorf("max_heading_length must be positive")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
