package doctree

import "fmt"

// Tier is the structural level of an outline node.
type Tier int

const (
	TierSection Tier = iota + 1
	TierAddendum
	TierCapitalItem
	TierNumberItem
	TierLowercaseItem
	TierParagraph
)

// HeadingTiers lists the five classifiable tiers in matching priority order.
var HeadingTiers = []Tier{TierSection, TierAddendum, TierCapitalItem, TierNumberItem, TierLowercaseItem}

// Rank orders tiers by depth. Section and Addendum share the top rank.
func (t Tier) Rank() int {
	switch t {
	case TierSection, TierAddendum:
		return 1
	case TierCapitalItem:
		return 2
	case TierNumberItem:
		return 3
	case TierLowercaseItem:
		return 4
	}
	return 5
}

// TopLevel reports whether the tier opens at the document margin.
func (t Tier) TopLevel() bool { return t.Rank() == 1 }

// Known reports whether t is one of the six defined tiers. Records
// supplied without a tier decode to the zero Tier.
func (t Tier) Known() bool { return t >= TierSection && t <= TierParagraph }

func (t Tier) String() string {
	switch t {
	case TierSection:
		return "section"
	case TierAddendum:
		return "addendum"
	case TierCapitalItem:
		return "capital_letter_item"
	case TierNumberItem:
		return "number_item"
	case TierLowercaseItem:
		return "lowercase_letter_item"
	case TierParagraph:
		return "paragraph"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// ParseTier is the inverse of String.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "section":
		return TierSection, nil
	case "addendum", "loa":
		return TierAddendum, nil
	case "capital_letter_item":
		return TierCapitalItem, nil
	case "number_item":
		return TierNumberItem, nil
	case "lowercase_letter_item":
		return TierLowercaseItem, nil
	case "paragraph":
		return TierParagraph, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Known() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
