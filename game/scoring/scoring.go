// Package scoring turns a set of placed pieces into a base score and the
// per-attribute threshold bonus.
package scoring

import (
	"github.com/samber/lo"
	"github.com/wricardo/minigame-solver/game/piece"
)

// BonusUnit is awarded once for each threshold an attribute reaches.
const BonusUnit = 265

// Thresholds are the attribute cell counts that each award BonusUnit.
var Thresholds = []int{9, 12, 15, 18, 21}

// Result is the score breakdown of a placement.
type Result struct {
	BaseScore       int                     `json:"base_score"`
	BonusScore      int                     `json:"bonus_score"`
	TotalScore      int                     `json:"total_score"`
	AttributeCounts map[piece.Attribute]int `json:"attribute_counts"`
	AttributeBonus  map[piece.Attribute]int `json:"attribute_bonus,omitempty"`
}

// BonusFor returns the bonus earned by a single attribute with count cells.
func BonusFor(count int) int {
	return BonusUnit * lo.CountBy(Thresholds, func(t int) bool { return count >= t })
}

// NextThreshold returns the smallest threshold above count, or 0 if every
// threshold has been reached.
func NextThreshold(count int) int {
	t, ok := lo.Find(Thresholds, func(t int) bool { return t > count })
	if !ok {
		return 0
	}
	return t
}

// Score evaluates placements for a role.
func Score(placed []piece.Placement, role piece.Role) Result {
	return ScoreAttributes(placed, role.Attributes())
}

// ScoreAttributes evaluates placements with an explicit set of bonus-eligible attributes.
func ScoreAttributes(placed []piece.Placement, eligible []piece.Attribute) Result {
	pieces := lo.Map(placed, func(p piece.Placement, _ int) piece.Piece { return p.Piece })
	return ScorePieces(pieces, eligible)
}

// ScorePieces is ScoreAttributes over bare pieces.
func ScorePieces(pieces []piece.Piece, eligible []piece.Attribute) Result {
	res := Result{
		AttributeCounts: make(map[piece.Attribute]int, len(piece.Attributes)),
		AttributeBonus:  make(map[piece.Attribute]int, len(eligible)),
	}
	for _, a := range piece.Attributes {
		res.AttributeCounts[a] = 0
	}
	for _, p := range pieces {
		res.BaseScore += p.Value()
		if p.Size <= piece.MaxStandardSize && p.Attribute != "" {
			res.AttributeCounts[p.Attribute] += p.Size
		}
	}
	for _, a := range lo.Uniq(eligible) {
		bonus := BonusFor(res.AttributeCounts[a])
		res.AttributeBonus[a] = bonus
		res.BonusScore += bonus
	}
	res.TotalScore = res.BaseScore + res.BonusScore
	return res
}
