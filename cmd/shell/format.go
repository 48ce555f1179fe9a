package main

import (
	"fmt"
	"strings"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
)

func formatState(s *engine.GameState) string {
	var b strings.Builder
	for i, tier := range s.RewardTrack {
		if i > 0 {
			b.WriteByte(' ')
		}
		if i == s.Position {
			fmt.Fprintf(&b, "[%d]", tier)
		} else {
			fmt.Fprint(&b, tier)
		}
	}
	fmt.Fprintf(&b, "\n%s | square %d | moves %d/%d | refine %d | stabilize %d",
		s.ConfigName, s.Position, s.RemainingMoves, s.MaxMoves, s.Choice2Remaining, s.Choice3Remaining)
	if s.GameOver {
		reward := 0
		if s.FinalReward != nil {
			reward = *s.FinalReward
		}
		fmt.Fprintf(&b, "\nGame over (%s): %s", s.EndReason, engine.RewardName(reward))
	}
	return b.String()
}

func formatAdvice(advice []engine.ActionAdvice) string {
	var b strings.Builder
	for _, a := range advice {
		marker := " "
		if a.Best {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %d %-10s %+d..%+d", marker, a.Action, a.Label, a.Min, a.Max)
		switch {
		case a.Disabled:
			fmt.Fprintf(&b, "  %s", a.Reason)
		case a.Probability != nil:
			fmt.Fprintf(&b, "  %6.2f%%", *a.Probability*100)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatHistory(moves []engine.MoveHistoryEntry) string {
	if len(moves) == 0 {
		return "No moves yet"
	}
	var b strings.Builder
	for i, m := range moves {
		label := fmt.Sprint(int(m.Action))
		if spec, ok := m.Action.Spec(); ok {
			label = spec.Label
		}
		fmt.Fprintf(&b, "%d. %s %+d: %d -> %d\n", i+1, label, m.Delta, m.FromPosition, m.ToPosition)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPiece(p piece.Piece) string {
	if p.IsUnique() {
		return fmt.Sprintf("%s %s (unique, %s)", p.ID, p.Shape, p.Affinity)
	}
	return fmt.Sprintf("%s %s (%s, %s)", p.ID, p.Shape, p.Rarity, p.Attribute)
}

func formatWorkspace(p *puzzle.Puzzle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Role %s, %d open cells\n%s", p.Role(), p.Board().OpenCount(), p.Board())
	for _, pc := range p.Pieces() {
		b.WriteString("\n- " + formatPiece(pc))
	}
	return b.String()
}

func formatResult(res *optimizer.Result) string {
	grid := make([][]byte, board.Size)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(".", board.Size))
	}
	for i, pl := range res.Placements {
		for _, c := range pl.Cells {
			grid[c.Row][c.Col] = byte('a' + i%26)
		}
	}

	var b strings.Builder
	for _, row := range grid {
		b.Write(row)
		b.WriteByte('\n')
	}
	for i, pl := range res.Placements {
		fmt.Fprintf(&b, "%c %s at %s\n", 'a'+i%26, formatPiece(pl.Piece), pl.Anchor)
	}
	fmt.Fprintf(&b, "Score: %d base + %d bonus = %d (%s)",
		res.Score.BaseScore, res.Score.BonusScore, res.Score.TotalScore, res.Stats.StopReason)
	return b.String()
}
