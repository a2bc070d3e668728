package hierarchy

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Ellipsis replaces table-of-contents dot leaders.
const Ellipsis = "..."

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	leaderRe = regexp.MustCompile(`(?:\s*\.){3,}|…+`)
)

// CleanText collapses dot leaders to an ellipsis and whitespace runs to one space.
func CleanText(s string) string {
	s = leaderRe.ReplaceAllString(s, Ellipsis)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// appendContent adds cleaned text to a node's body.
func appendContent(n *doctree.Node, text string) {
	if text == "" {
		return
	}
	if n.Content == "" {
		n.Content = text
		return
	}
	n.Content += " " + text
}

// stripHeadingEcho removes a copy of the heading line from the start of the
// first content block. Some extractors emit the heading twice.
func stripHeadingEcho(heading, text string) string {
	h := CleanText(heading)
	if h == "" || isBareLeadIn(h) || !strings.HasPrefix(text, h) {
		return text
	}
	rest := text[len(h):]
	if rest != "" && rest[0] != ' ' {
		return text
	}
	return strings.TrimSpace(rest)
}
