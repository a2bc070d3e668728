package hierarchy

import (
	"github.com/dgallion1/docoutline/internal/doctree"
)

// ReconstructStats reports how confident a reconstruction was.
type ReconstructStats struct {
	// Ties counts parents chosen by document order among several candidates
	// with the same level and page.
	Ties int `json:"ties" yaml:"ties"`
	// Orphans counts records above level 0 that found no eligible parent.
	Orphans int `json:"orphans" yaml:"orphans"`
	// PageSkips counts shallower records passed over because they start on a
	// later page than the record being placed.
	PageSkips int `json:"page_skips" yaml:"page_skips"`
}

// Reconstruct infers parent links from levels and document order alone. The
// parent of a record is the nearest preceding record with a smaller level whose
// page_start does not exceed its own. Records without an eligible parent become
// roots; nothing is dropped. A record without page_end ends on its start page.
func Reconstruct(recs []FlatRecord) (doctree.Forest, ReconstructStats) {
	var stats ReconstructStats
	nodes := make([]*doctree.Node, len(recs))
	var roots doctree.Forest

	for i, r := range recs {
		n := &doctree.Node{
			ID:         r.ID,
			Tier:       r.Tier,
			Identifier: deref(r.Identifier),
			Keyword:    r.Keyword,
			Title:      deref(r.Title),
			Content:    r.Content,
			PageStart:  r.PageStart,
			PageEnd:    r.PageEnd,
		}
		if r.PageEnd == 0 {
			n.PageEnd = r.PageStart
		}
		nodes[i] = n

		parent := -1
		if r.Level > 0 {
			for j := i - 1; j >= 0; j-- {
				if recs[j].Level >= r.Level {
					continue
				}
				if recs[j].PageStart > r.PageStart {
					stats.PageSkips++
					continue
				}
				parent = j
				break
			}
		}

		if parent < 0 {
			if r.Level > 0 {
				stats.Orphans++
			}
			roots = append(roots, n)
			continue
		}
		if hasTie(recs, parent) {
			stats.Ties++
		}
		p := nodes[parent]
		n.ParentPath = JoinPath(p.ParentPath, p.Label())
		p.Children = append(p.Children, n)
	}
	return roots, stats
}

// hasTie reports whether an earlier record in scope shares the chosen
// parent's level and page, so only document order separated them.
func hasTie(recs []FlatRecord, parent int) bool {
	p := recs[parent]
	for k := parent - 1; k >= 0; k-- {
		if recs[k].Level < p.Level {
			return false
		}
		if recs[k].Level == p.Level {
			return recs[k].PageStart == p.PageStart
		}
	}
	return false
}
