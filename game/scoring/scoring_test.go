package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/piece"
)

func mustPiece(t *testing.T, shape string, rarity piece.Rarity, attr piece.Attribute) piece.Piece {
	t.Helper()
	p, err := piece.New(shape, rarity, attr)
	require.NoError(t, err)
	return p
}

func placements(pieces ...piece.Piece) []piece.Placement {
	out := make([]piece.Placement, len(pieces))
	for i, p := range pieces {
		out[i] = piece.Placement{Piece: p, Anchor: board.Cell{}}
	}
	return out
}

func TestBonusFor(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{0, 0},
		{8, 0},
		{9, 265},
		{11, 265},
		{12, 530},
		{20, 1060},
		{21, 1325},
		{30, 1325},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BonusFor(tt.count), "count %d", tt.count)
	}
}

func TestNextThreshold(t *testing.T) {
	assert.Equal(t, 9, NextThreshold(0))
	assert.Equal(t, 12, NextThreshold(9))
	assert.Equal(t, 0, NextThreshold(21))
}

func TestScoreBaseAndBonus(t *testing.T) {
	// 5+4 pierce cells reach the first threshold.
	placed := placements(
		mustPiece(t, "5-plus", piece.SuperEpic, piece.Pierce),
		mustPiece(t, "4-square", piece.Epic, piece.Pierce),
		mustPiece(t, "1", piece.Rare, piece.Regen),
	)
	res := Score(placed, piece.Dealer)

	assert.Equal(t, 5*120+4*60+30, res.BaseScore)
	assert.Equal(t, 9, res.AttributeCounts[piece.Pierce])
	assert.Equal(t, 1, res.AttributeCounts[piece.Regen])
	assert.Equal(t, 265, res.BonusScore)
	assert.Equal(t, res.BaseScore+res.BonusScore, res.TotalScore)
}

func TestScoreIgnoresOffRoleAttributes(t *testing.T) {
	placed := placements(
		mustPiece(t, "5-plus", piece.SuperEpic, piece.Regen),
		mustPiece(t, "5-u-1", piece.SuperEpic, piece.Regen),
	)
	dealer := Score(placed, piece.Dealer)
	assert.Equal(t, 0, dealer.BonusScore)

	supporter := Score(placed, piece.Supporter)
	assert.Equal(t, 265, supporter.BonusScore)
}

func TestUniqueNeverCountsTowardAttributes(t *testing.T) {
	placed := placements(mustPiece(t, "8-any-1", piece.Unique, ""))
	res := Score(placed, piece.Dealer)
	assert.Equal(t, 2000, res.BaseScore)
	for _, a := range piece.Attributes {
		assert.Zero(t, res.AttributeCounts[a])
	}
	assert.Zero(t, res.BonusScore)
}

func TestScoreIsPure(t *testing.T) {
	placed := placements(
		mustPiece(t, "3-vertical", piece.Epic, piece.Element),
		mustPiece(t, "2-horizontal", piece.Rare, piece.Shatter),
	)
	first := Score(placed, piece.Striker)
	second := Score(placed, piece.Striker)
	assert.Equal(t, first, second)
	assert.Len(t, placed, 2)
}

func TestScoreEmpty(t *testing.T) {
	res := Score(nil, piece.Supporter)
	assert.Zero(t, res.TotalScore)
	assert.Len(t, res.AttributeCounts, len(piece.Attributes))
}
