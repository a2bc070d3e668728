package hierarchy

import (
	"fmt"

	"github.com/dgallion1/docoutline/internal/doctree"
)

// Validator rules.
const (
	RulePageRange         = "page_range"
	RulePageContainment   = "page_containment"
	RuleMissingIdentifier = "missing_identifier"
	RuleTierOrder         = "tier_order"
	RuleParagraphNotLeaf  = "paragraph_not_leaf"
	RuleDuplicateID       = "duplicate_id"
)

// Validate checks structural invariants of a finished forest. Findings are
// returned as warnings; the forest is never modified.
func Validate(f doctree.Forest) []doctree.Warning {
	v := &validator{seen: make(map[string]bool)}
	for _, root := range f {
		v.check(root, nil)
	}
	return v.warnings
}

type validator struct {
	seen     map[string]bool
	warnings []doctree.Warning
}

func (v *validator) add(n *doctree.Node, rule, format string, args ...any) {
	v.warnings = append(v.warnings, doctree.Warning{NodeID: n.ID, Rule: rule, Detail: fmt.Sprintf(format, args...)})
}

func (v *validator) check(n, parent *doctree.Node) {
	if v.seen[n.ID] {
		v.add(n, RuleDuplicateID, "id %s appears more than once", n.ID)
	}
	v.seen[n.ID] = true

	if n.PageEnd < n.PageStart {
		v.add(n, RulePageRange, "page_end %d before page_start %d", n.PageEnd, n.PageStart)
	}
	if n.Tier.TopLevel() && n.Identifier == "" {
		v.add(n, RuleMissingIdentifier, "%s without identifier", n.Tier)
	}
	if len(n.Children) > 0 && n.Tier == doctree.TierParagraph {
		v.add(n, RuleParagraphNotLeaf, "paragraph has %d children", len(n.Children))
	}

	if parent != nil {
		if n.PageStart < parent.PageStart || n.PageEnd > parent.PageEnd {
			v.add(n, RulePageContainment, "pages %d-%d outside parent %s pages %d-%d",
				n.PageStart, n.PageEnd, parent.ID, parent.PageStart, parent.PageEnd)
		}
		if n.Tier.Known() && parent.Tier.Known() && n.Tier.Rank() <= parent.Tier.Rank() {
			v.add(n, RuleTierOrder, "%s nested under %s %s", n.Tier, parent.Tier, parent.ID)
		}
	}

	for _, c := range n.Children {
		v.check(c, n)
	}
}
