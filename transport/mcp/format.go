package mcp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/wricardo/minigame-solver/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// formatTrack renders the reward track with the token square bracketed.
func formatTrack(track []int, position int) string {
	parts := make([]string, len(track))
	for i, tier := range track {
		if i == position {
			parts[i] = fmt.Sprintf("[%d]", tier)
		} else {
			parts[i] = fmt.Sprint(tier)
		}
	}
	return strings.Join(parts, " ")
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	result.WriteString(fmt.Sprintf("Position: %d/%d | Moves left: %d/%d | Refine: %d | Stabilize: %d | Total moves: %d\n",
		state.Position, engine.MaxPos, state.RemainingMoves, state.MaxMoves,
		state.Choice2Remaining, state.Choice3Remaining, state.TotalMoves))

	if len(state.RewardTrack) > 0 {
		best := engine.BestReward(state.RewardTrack)
		result.WriteString(fmt.Sprintf("Track: %s\n", formatTrack(state.RewardTrack, state.Position)))
		result.WriteString(fmt.Sprintf("Best reward: %s (tier %d)\n", engine.RewardName(best), best))
	}

	if state.GameOver {
		name := state.FinalRewardName
		if name == "" && state.FinalReward != nil {
			name = engine.RewardName(*state.FinalReward)
		}
		result.WriteString(fmt.Sprintf("\nGAME OVER (%s): reward %s", state.EndReason, name))
	}

	if state.Message != "" {
		result.WriteString(fmt.Sprintf("\nMessage: %s", state.Message))
	}

	return result.String()
}

func formatStep(s *service.StepInfo) string {
	status := "✗"
	if s.Success {
		status = "✓"
	}
	return fmt.Sprintf("%d. %s %+d: %d→%d left=%d %s\n",
		s.Idx, s.Label, s.Delta, s.From, s.To, s.RemainingMoves, status)
}

func formatMoveResult(result *service.MoveResult) string {
	response := ""
	if result.Success {
		response = "✓ Move successful\n"
	} else {
		response = "✗ Move rejected\n"
	}

	if result.Step != nil {
		response += "Step: " + formatStep(result.Step)
	}

	if len(result.Events) > 0 {
		response += "Events:\n"
		for _, event := range result.Events {
			response += fmt.Sprintf("- %s: %s\n", event.Type, event.Message)
		}
	}

	response += "\n" + formatGameState(result.GameState)

	if len(result.Advice) > 0 {
		response += "\n\n" + formatAdvice(result.Advice)
	}
	return response
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	configName := ""
	if result.GameState != nil {
		configName = result.GameState.ConfigName
	}
	b.WriteString(fmt.Sprintf("Session: %s • Config: %s\n", sessionID, configName))

	b.WriteString(fmt.Sprintf("Executed %d/%d moves (%d → %d)\n",
		result.MovesExecuted, result.RequestedMoves, result.StartPosition, result.EndPosition))
	if result.StoppedReason != "" {
		b.WriteString(fmt.Sprintf("Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason))
	}
	if result.Truncated {
		b.WriteString(fmt.Sprintf("Truncated to %d moves\n", result.Limit))
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for i := range result.Steps {
			b.WriteString(formatStep(&result.Steps[i]))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))

	if len(result.Advice) > 0 {
		b.WriteString("\n\n")
		b.WriteString(formatAdvice(result.Advice))
	}
	return b.String()
}

func formatAdvice(advice []engine.ActionAdvice) string {
	if len(advice) == 0 {
		return "No advice available"
	}

	var b strings.Builder
	b.WriteString("Advice:\n")
	for _, a := range advice {
		marker := " "
		if a.Best {
			marker = "*"
		}
		line := fmt.Sprintf("%s %d %-9s %+d..%+d", marker, a.Action, a.Label, a.Min, a.Max)
		switch {
		case a.Disabled:
			line += " disabled: " + a.Reason
		case a.Probability != nil:
			line += fmt.Sprintf(" %.2f%%", *a.Probability*100)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Move history (page %d/%d, %d total):\n",
		history.Page, history.TotalPages, history.TotalMoves))
	for _, m := range history.Moves {
		status := "✓"
		if !m.Success {
			status = "✗"
		}
		label := fmt.Sprint(int(m.Action))
		if spec, ok := m.Action.Spec(); ok {
			label = spec.Label
		}
		b.WriteString(fmt.Sprintf("#%d %s %+d: %d→%d left=%d %s\n",
			m.MoveNumber, label, m.Delta, m.FromPosition, m.ToPosition, m.RemainingMoves, status))
	}
	return b.String()
}

// formatGrid draws the board: # open, . closed.
func formatGrid(grid [][]int) string {
	var b strings.Builder
	for _, row := range grid {
		for _, v := range row {
			if v != 0 {
				b.WriteString("#")
			} else {
				b.WriteString(".")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatPiece(p piece.Piece) string {
	if p.Rarity == piece.Unique {
		return fmt.Sprintf("%s %s (unique, %s)", p.ID, p.Shape, p.Affinity)
	}
	return fmt.Sprintf("%s %s (%s, %s)", p.ID, p.Shape, p.Rarity, p.Attribute)
}

func formatPuzzle(state *service.PuzzleState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Role: %s | Open cells: %d | Pieces: %d\n\n", state.Role, state.OpenCount, len(state.Pieces)))
	b.WriteString(formatGrid(state.Board))

	if len(state.Pieces) > 0 {
		b.WriteString("\nPool:\n")
		for _, p := range state.Pieces {
			b.WriteString("- " + formatPiece(p) + "\n")
		}
	}

	b.WriteString("\n" + formatScore(&state.Score))

	if state.LastResult != nil {
		b.WriteString(fmt.Sprintf("\nLast optimization: %d placed, total %d\n",
			len(state.LastResult.Placements), state.LastResult.Score.TotalScore))
	}
	return b.String()
}

func formatPuzzleUpdate(update *service.PuzzleUpdate) string {
	var b strings.Builder
	if t := update.Toggle; t != nil {
		if t.Accepted {
			state := "closed"
			if t.Open {
				state = "opened"
			}
			b.WriteString(fmt.Sprintf("Cell %s %s\n", t.Cell, state))
		} else {
			b.WriteString(fmt.Sprintf("Cell %s unchanged: %s\n", t.Cell, t.Reason))
		}
	}
	if update.Changed > 0 {
		b.WriteString(fmt.Sprintf("Changed %d cells\n", update.Changed))
	}
	if update.Piece != nil {
		b.WriteString("Added " + formatPiece(*update.Piece) + "\n")
	}
	if update.Puzzle != nil {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(formatPuzzle(update.Puzzle))
	}
	return b.String()
}

func formatScore(result *scoring.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Score: %d base + %d bonus = %d\n", result.BaseScore, result.BonusScore, result.TotalScore))

	attrs := make([]string, 0, len(result.AttributeCounts))
	for a := range result.AttributeCounts {
		attrs = append(attrs, string(a))
	}
	sort.Strings(attrs)
	for _, a := range attrs {
		attr := piece.Attribute(a)
		count := result.AttributeCounts[attr]
		b.WriteString(fmt.Sprintf("  %s: %d cells, +%d (next at %d)\n",
			a, count, result.AttributeBonus[attr], scoring.NextThreshold(count)))
	}
	return b.String()
}

// formatPlacementGrid marks each placed cell with the index of its piece.
func formatPlacementGrid(placements []piece.Placement) string {
	grid := make([][]byte, board.Size)
	for r := range grid {
		grid[r] = []byte(strings.Repeat(".", board.Size))
	}
	for i, p := range placements {
		mark := byte('a' + i%26)
		for _, c := range p.Cells {
			if c.InBounds() {
				grid[c.Row][c.Col] = mark
			}
		}
	}
	var b strings.Builder
	for _, row := range grid {
		b.Write(row)
		b.WriteString("\n")
	}
	return b.String()
}

func formatOptimizeResult(result *optimizer.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Placed %d pieces | nodes %d | %s | stop: %s\n",
		len(result.Placements), result.Stats.Nodes, result.Stats.Elapsed, result.Stats.StopReason))
	if result.Note != "" {
		b.WriteString(result.Note + "\n")
	}
	if s := result.Strategy; s != nil && s.Unique != "" {
		b.WriteString(fmt.Sprintf("Unique piece: %s\n", s.Unique))
	}

	if len(result.Placements) > 0 {
		b.WriteString("\n" + formatPlacementGrid(result.Placements) + "\n")
		for i, p := range result.Placements {
			b.WriteString(fmt.Sprintf("%c %s at %s\n", 'a'+i%26, formatPiece(p.Piece), p.Anchor))
		}
	}

	b.WriteString("\n" + formatScore(&result.Score))
	return b.String()
}

func formatShapes(shapes []piece.Shape) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Shapes (%d):\n", len(shapes)))
	for _, s := range shapes {
		line := fmt.Sprintf("- %s (size %d)", s.Name, s.Size)
		if s.Affinity != "" {
			line += " affinity " + string(s.Affinity)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
