package hierarchy

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Form is the lexical shape of a matched marker.
type Form int

const (
	FormKeyword Form = iota + 1 // "SECTION 4", "LOA 3"
	FormRoman                   // "IV. Wages"
	FormNumeral                 // "3." at the margin, read as a section number
	FormMarker                  // "A.", "(3)", "a)"
)

// Candidate is one marker reading of a block, independent of any stack state.
type Candidate struct {
	Tier       doctree.Tier
	Form       Form
	Keyword    string
	Identifier string
	Title      string
	// UpperKeyword is set when the lead keyword was written in capitals.
	UpperKeyword bool
}

var (
	sectionKeywordRe = regexp.MustCompile(`^(?i:(SECTION|ARTICLE|PART))\s+(\d+[A-Z]?|[IVXLCDM]+)\b[.:)\-]?\s*(.*)$`)
	sectionRomanRe   = regexp.MustCompile(`^([IVXLCDM]{1,4})\.\s+(.+)$`)
	addendumRe       = regexp.MustCompile(`^(?i:(LETTER OF AGREEMENT|MEMORANDUM OF UNDERSTANDING|LOA|MOU|APPENDIX|ADDENDUM))(?:\s+((?i:NO)\.))?(?:\s*#\s*|\s+)(\d+[A-Z]?|[A-Z]{1,3})\b[.:)\-]?\s*(.*)$`)

	capitalRe        = regexp.MustCompile(`^([A-Z])[.)](?:\s+(.*))?$`)
	capitalParenRe   = regexp.MustCompile(`^\(([A-Z])\)\s*(.*)$`)
	numberRe         = regexp.MustCompile(`^(\d{1,3})[.)](?:\s+(.*))?$`)
	numberParenRe    = regexp.MustCompile(`^\((\d{1,3})\)\s*(.*)$`)
	lowercaseRe      = regexp.MustCompile(`^([a-z])[.)](?:\s+(.*))?$`)
	lowercaseParenRe = regexp.MustCompile(`^\(([a-z])\)\s*(.*)$`)

	// A keyword written without its number, e.g. "LOA" on its own line above "3. Scheduling Changes".
	bareKeywordRe = regexp.MustCompile(`^(?i:SECTION|ARTICLE|PART|LETTER OF AGREEMENT|MEMORANDUM OF UNDERSTANDING|LOA|MOU|APPENDIX|ADDENDUM)\s*(?:(?i:NO)\.?|#)?$`)
	bareMarkerRe  = regexp.MustCompile(`^(?:[A-Za-z][.)]|\d{1,3}[.)]|[IVXLCDM]{1,4}\.|\([A-Za-z]\)|\(\d{1,3}\))$`)
)

// MatchMarkers returns every marker reading of text in the fixed priority order
// Section, Addendum, CapitalItem, NumberItem, LowercaseItem.
func MatchMarkers(text string) []Candidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []Candidate

	if m := sectionKeywordRe.FindStringSubmatch(text); m != nil {
		out = append(out, Candidate{
			Tier:         doctree.TierSection,
			Form:         FormKeyword,
			Keyword:      strings.ToUpper(m[1]),
			Identifier:   m[2],
			Title:        m[3],
			UpperKeyword: m[1] == strings.ToUpper(m[1]),
		})
	}
	if m := sectionRomanRe.FindStringSubmatch(text); m != nil && isRoman(m[1]) {
		out = append(out, Candidate{Tier: doctree.TierSection, Form: FormRoman, Identifier: m[1], Title: m[2]})
	}
	if m := numberRe.FindStringSubmatch(text); m != nil {
		out = append(out, Candidate{Tier: doctree.TierSection, Form: FormNumeral, Identifier: m[1], Title: m[2]})
	}
	if m := addendumRe.FindStringSubmatch(text); m != nil {
		kw := strings.ToUpper(m[1])
		upper := m[1] == kw
		if m[2] != "" {
			kw += " NO."
		}
		out = append(out, Candidate{
			Tier:         doctree.TierAddendum,
			Form:         FormKeyword,
			Keyword:      kw,
			Identifier:   m[3],
			Title:        m[4],
			UpperKeyword: upper,
		})
	}
	out = appendMarker(out, doctree.TierCapitalItem, text, capitalRe, capitalParenRe)
	out = appendMarker(out, doctree.TierNumberItem, text, numberRe, numberParenRe)
	out = appendMarker(out, doctree.TierLowercaseItem, text, lowercaseRe, lowercaseParenRe)
	return out
}

func appendMarker(out []Candidate, tier doctree.Tier, text string, res ...*regexp.Regexp) []Candidate {
	for _, re := range res {
		if m := re.FindStringSubmatch(text); m != nil {
			return append(out, Candidate{Tier: tier, Form: FormMarker, Identifier: m[1], Title: m[2]})
		}
	}
	return out
}

// isBareLeadIn reports whether text is only a keyword or only a marker, i.e. a
// heading whose title continues on the following line.
func isBareLeadIn(text string) bool {
	text = strings.TrimSpace(text)
	return bareKeywordRe.MatchString(text) || bareMarkerRe.MatchString(text)
}

// startsWithMarker reports whether a line opens with any heading marker.
func startsWithMarker(text string) bool {
	return len(MatchMarkers(text)) > 0 || isBareLeadIn(text)
}

// sharesTier reports whether two candidate lists have a tier in common.
func sharesTier(a, b []Candidate) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Tier == y.Tier {
				return true
			}
		}
	}
	return false
}

var romanValues = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// isRoman accepts canonical roman numerals only, so "IC" or "VV" are rejected.
func isRoman(s string) bool {
	if s == "" {
		return false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v := romanValues[s[i]]
		if i+1 < len(s) && romanValues[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total > 0 && toRoman(total) == s
}

func toRoman(n int) string {
	vals := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	syms := []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}
	var b strings.Builder
	for i, v := range vals {
		for n >= v {
			b.WriteString(syms[i])
			n -= v
		}
	}
	return b.String()
}
