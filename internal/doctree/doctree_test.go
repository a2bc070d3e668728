package doctree

import (
	"encoding/json"
	"testing"
)

func TestTier_RankOrdering(t *testing.T) {
	if TierSection.Rank() != TierAddendum.Rank() {
		t.Errorf("section and addendum should share a rank")
	}
	order := []Tier{TierSection, TierCapitalItem, TierNumberItem, TierLowercaseItem, TierParagraph}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("expected %s to rank above %s", order[i-1], order[i])
		}
	}
}

func TestTier_TextRoundTrip(t *testing.T) {
	for _, tier := range append(HeadingTiers, TierParagraph) {
		b, err := json.Marshal(tier)
		if err != nil {
			t.Fatalf("marshal %v: %v", tier, err)
		}
		var got Tier
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if got != tier {
			t.Errorf("expected %v, got %v", tier, got)
		}
	}
}

func TestTier_UnknownName(t *testing.T) {
	if _, err := ParseTier("chapter"); err == nil {
		t.Error("expected error for unknown tier")
	}
	if _, err := Tier(0).MarshalText(); err == nil {
		t.Error("expected error marshalling zero tier")
	}
}

func TestTier_Known(t *testing.T) {
	for _, tier := range append(HeadingTiers, TierParagraph) {
		if !tier.Known() {
			t.Errorf("expected %s to be known", tier)
		}
	}
	for _, tier := range []Tier{0, TierParagraph + 1} {
		if tier.Known() {
			t.Errorf("expected %d to be unknown", int(tier))
		}
	}
}

func TestNode_Label(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{Node{Keyword: "LOA", Identifier: "3", Title: "Scheduling"}, "LOA 3"},
		{Node{Identifier: "A", Title: "Scope"}, "A"},
		{Node{Title: "Preamble"}, "Preamble"},
		{Node{}, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.node.Label(); got != tt.want {
			t.Errorf("Label() = %q, want %q", got, tt.want)
		}
	}
}

func TestForest_WalkDepthAndCount(t *testing.T) {
	f := Forest{
		{ID: "a", Children: []*Node{{ID: "b", Children: []*Node{{ID: "c"}}}}},
		{ID: "d"},
	}
	depths := map[string]int{}
	f.Walk(func(n *Node, depth int) { depths[n.ID] = depth })

	want := map[string]int{"a": 0, "b": 1, "c": 2, "d": 0}
	for id, d := range want {
		if depths[id] != d {
			t.Errorf("node %s: expected depth %d, got %d", id, d, depths[id])
		}
	}
	if f.Count() != 4 {
		t.Errorf("expected 4 nodes, got %d", f.Count())
	}
}

func TestBBox_Union(t *testing.T) {
	a := BBox{X0: 10, Y0: 10, X1: 50, Y1: 20}
	b := BBox{X0: 5, Y0: 18, X1: 40, Y1: 30}
	got := a.Union(b)
	want := BBox{X0: 5, Y0: 10, X1: 50, Y1: 30}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
