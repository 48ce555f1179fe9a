package optimizer

import (
	"sort"

	"github.com/samber/lo"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/zyedidia/generic/mapset"
)

// AttributePlan is the projected pack for one bonus-eligible attribute.
type AttributePlan struct {
	Attribute       piece.Attribute `json:"attribute"`
	Cells           int             `json:"cells"`
	BaseScore       int             `json:"base_score"`
	BonusScore      int             `json:"bonus_score"`
	HighRarityCells int             `json:"high_rarity_cells"`
	Pieces          []string        `json:"pieces"`

	members []*candidate
}

// TotalScore is the projected score of the pack.
func (p AttributePlan) TotalScore() int { return p.BaseScore + p.BonusScore }

// Strategy is the greedy target set the bounded search works through.
type Strategy struct {
	Unique           string                  `json:"unique,omitempty"`
	Ranking          []AttributePlan         `json:"ranking"`
	AttributeTargets map[piece.Attribute]int `json:"attribute_targets"`
	TargetCells      int                     `json:"target_cells"`

	targets []*candidate
}

// byRarityThenSize orders candidates rarest first, then largest first.
func byRarityThenSize(cs []*candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i].piece, cs[j].piece
		if a.Rarity.Rank() != b.Rarity.Rank() {
			return a.Rarity.Rank() > b.Rarity.Rank()
		}
		return a.Size > b.Size
	})
}

// buildStrategy picks the target pieces: the best unique, then a pack of up
// to AttributeCellCap cells per eligible attribute in ranked order, then any
// leftover matching pieces that still fit.
func buildStrategy(matching []*candidate, totalOpen int, eligible []piece.Attribute) *Strategy {
	st := &Strategy{AttributeTargets: map[piece.Attribute]int{}}
	taken := mapset.New[string]()
	used := 0

	take := func(c *candidate) {
		st.targets = append(st.targets, c)
		taken.Put(c.piece.ID)
	}

	// Role-specific uniques are considered before any-role ones; ties keep the first.
	uniques := lo.Filter(matching, func(c *candidate, _ int) bool { return c.piece.IsUnique() })
	sort.SliceStable(uniques, func(i, j int) bool {
		return uniques[i].piece.Affinity != piece.AnyRole && uniques[j].piece.Affinity == piece.AnyRole
	})
	var best *candidate
	for _, c := range uniques {
		if c.piece.Size > totalOpen {
			continue
		}
		if best == nil || c.piece.Value() > best.piece.Value() {
			best = c
		}
	}
	if best != nil {
		take(best)
		st.Unique = best.piece.ID
		used += best.piece.Size
	}

	for _, attr := range eligible {
		pool := lo.Filter(matching, func(c *candidate, _ int) bool {
			return !c.piece.IsUnique() && c.piece.Attribute == attr
		})
		byRarityThenSize(pool)
		plan := AttributePlan{Attribute: attr}
		for _, c := range pool {
			if plan.Cells+c.piece.Size > AttributeCellCap {
				continue
			}
			plan.members = append(plan.members, c)
			plan.Pieces = append(plan.Pieces, c.piece.ID)
			plan.Cells += c.piece.Size
			plan.BaseScore += c.piece.Value()
			if c.piece.Rarity.High() {
				plan.HighRarityCells += c.piece.Size
			}
		}
		plan.BonusScore = scoring.BonusFor(plan.Cells)
		st.Ranking = append(st.Ranking, plan)
	}
	sort.SliceStable(st.Ranking, func(i, j int) bool {
		a, b := st.Ranking[i], st.Ranking[j]
		if a.TotalScore() != b.TotalScore() {
			return a.TotalScore() > b.TotalScore()
		}
		return a.HighRarityCells > b.HighRarityCells
	})

	minBonus := scoring.Thresholds[0]
	for _, plan := range st.Ranking {
		remaining := totalOpen - used
		if plan.Cells == 0 {
			continue
		}
		if plan.Cells > remaining {
			if remaining < minBonus {
				continue
			}
			var subset []*candidate
			cells := 0
			for _, c := range plan.members {
				if cells+c.piece.Size <= remaining {
					subset = append(subset, c)
					cells += c.piece.Size
				}
			}
			if cells >= minBonus {
				lo.ForEach(subset, func(c *candidate, _ int) { take(c) })
				st.AttributeTargets[plan.Attribute] = cells
				used += cells
			}
			continue
		}
		lo.ForEach(plan.members, func(c *candidate, _ int) { take(c) })
		st.AttributeTargets[plan.Attribute] = plan.Cells
		used += plan.Cells
		if used+minBonus > totalOpen {
			break
		}
	}

	if remaining := totalOpen - used; remaining > 0 {
		leftovers := lo.Filter(matching, func(c *candidate, _ int) bool { return !taken.Has(c.piece.ID) })
		byRarityThenSize(leftovers)
		filled := 0
		for _, c := range leftovers {
			if filled+c.piece.Size > remaining {
				continue
			}
			take(c)
			filled += c.piece.Size
			if !c.piece.IsUnique() {
				st.AttributeTargets[c.piece.Attribute] = min(st.AttributeTargets[c.piece.Attribute]+c.piece.Size, TargetCellCap)
			}
		}
		used += filled
	}

	st.TargetCells = used
	return st
}
