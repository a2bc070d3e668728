// Package render draws outlines for terminal output.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/hierarchy"
)

var (
	accent = lipgloss.Color("160")
	muted  = lipgloss.Color("240")

	tierColors = map[doctree.Tier]lipgloss.Color{
		doctree.TierSection:       lipgloss.Color("160"),
		doctree.TierAddendum:      lipgloss.Color("208"),
		doctree.TierCapitalItem:   lipgloss.Color("81"),
		doctree.TierNumberItem:    lipgloss.Color("42"),
		doctree.TierLowercaseItem: lipgloss.Color("220"),
		doctree.TierParagraph:     lipgloss.Color("250"),
	}
)

// Options controls tree output.
type Options struct {
	// Content prints a one-line preview of each node's content.
	Content bool
	// MaxContent truncates previews; 0 means 72 characters.
	MaxContent int
}

// Printer renders outlines with styles bound to one output.
type Printer struct {
	w    io.Writer
	opts Options

	dim   lipgloss.Style
	warn  lipgloss.Style
	box   lipgloss.Style
	title lipgloss.Style
	tiers map[doctree.Tier]lipgloss.Style
}

// NewPrinter creates a printer for w. Colors are dropped when w is not a terminal.
func NewPrinter(w io.Writer, opts Options) *Printer {
	if opts.MaxContent <= 0 {
		opts.MaxContent = 72
	}
	r := lipgloss.NewRenderer(w)
	p := &Printer{
		w:     w,
		opts:  opts,
		dim:   r.NewStyle().Foreground(muted),
		warn:  r.NewStyle().Foreground(lipgloss.Color("196")),
		title: r.NewStyle().Bold(true).Foreground(accent),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		tiers: make(map[doctree.Tier]lipgloss.Style, len(tierColors)),
	}
	for t, c := range tierColors {
		s := r.NewStyle().Foreground(c)
		if t.TopLevel() {
			s = s.Bold(true)
		}
		p.tiers[t] = s
	}
	return p
}

// Tree prints the forest with box-drawing connectors, one node per line.
func (p *Printer) Tree(forest doctree.Forest) {
	for _, root := range forest {
		p.node(root, "", "")
	}
}

func (p *Printer) node(n *doctree.Node, lead, indent string) {
	fmt.Fprintf(p.w, "%s%s  %s\n", lead, p.tiers[n.Tier].Render(heading(n)), p.dim.Render(pages(n)))
	if p.opts.Content && n.Content != "" {
		bar := "    "
		if len(n.Children) > 0 {
			bar = "│   "
		}
		fmt.Fprintf(p.w, "%s%s%s\n", indent, bar, p.dim.Render(preview(n.Content, p.opts.MaxContent)))
	}
	for i, c := range n.Children {
		if i == len(n.Children)-1 {
			p.node(c, indent+"└── ", indent+"    ")
		} else {
			p.node(c, indent+"├── ", indent+"│   ")
		}
	}
}

// Summary prints a boxed overview of a built document.
func (p *Printer) Summary(doc hierarchy.Document) {
	proc := doc.Processing
	lines := []string{
		p.title.Render(doc.Title),
		fmt.Sprintf("%s %d  %s %d  %s %d  %s %d",
			p.dim.Render("Pages:"), proc.Pages,
			p.dim.Render("Blocks:"), proc.Blocks,
			p.dim.Render("Nodes:"), proc.Nodes,
			p.dim.Render("Warnings:"), len(doc.Warnings),
		),
	}
	if len(proc.TierCounts) > 0 {
		names := make([]string, 0, len(proc.TierCounts))
		for name := range proc.TierCounts {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return tierRank(names[i]) < tierRank(names[j]) })
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%d", name, proc.TierCounts[name]))
		}
		lines = append(lines, p.dim.Render(strings.Join(parts, " ")))
	}
	fmt.Fprintln(p.w, p.box.Render(strings.Join(lines, "\n")))
}

// Warnings prints one line per warning.
func (p *Printer) Warnings(ws []doctree.Warning) {
	for _, w := range ws {
		fmt.Fprintf(p.w, "%s %s %s\n", p.warn.Render(w.Rule), p.dim.Render(w.NodeID), w.Detail)
	}
}

func heading(n *doctree.Node) string {
	if n.Tier == doctree.TierParagraph {
		return "¶ " + preview(n.Content, 40)
	}
	if h := n.Heading(); h != "" {
		return h
	}
	if !n.Tier.Known() {
		return preview(n.Content, 40)
	}
	return n.Tier.String()
}

func pages(n *doctree.Node) string {
	if n.PageEnd > n.PageStart {
		return fmt.Sprintf("p.%d-%d", n.PageStart, n.PageEnd)
	}
	return fmt.Sprintf("p.%d", n.PageStart)
}

func preview(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}

func tierRank(name string) int {
	t, err := doctree.ParseTier(name)
	if err != nil {
		return 99
	}
	return int(t)
}
