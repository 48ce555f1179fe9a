package engine

import (
	"fmt"
	"time"

	"lukechampine.com/frand"
)

// Roller picks a displacement uniformly from [min, max].
type Roller interface {
	Roll(min, max int) int
}

// FrandRoller draws from frand's fast CSPRNG.
type FrandRoller struct{}

func (FrandRoller) Roll(min, max int) int {
	return min + frand.Intn(max-min+1)
}

// CanTake reports whether the action may be taken in this state
func (gs *GameState) CanTake(action Action) bool {
	if gs.GameOver || gs.RemainingMoves <= 0 {
		return false
	}
	switch action {
	case ActionStrike:
		return true
	case ActionRefine:
		return gs.Choice2Remaining > 0
	case ActionStabilize:
		return gs.Choice3Remaining > 0
	}
	return false
}

// ApplyAction resolves one action. It returns the rolled displacement and
// whether the action was accepted.
func (gs *GameState) ApplyAction(action Action, roller Roller, config *GameConfig) (int, bool) {
	if gs.GameOver {
		gs.Message = "Game is over. Reset to play again."
		return 0, false
	}
	spec, ok := action.Spec()
	if !ok {
		gs.Message = fmt.Sprintf("Unknown action %d", action)
		return 0, false
	}
	if !gs.CanTake(action) {
		gs.Message = fmt.Sprintf("Action %d has no uses left", action)
		return 0, false
	}

	delta := roller.Roll(spec.Min, spec.Max)
	gs.Position = clamp(gs.Position+delta, 0, MaxPos)
	gs.RemainingMoves--
	switch action {
	case ActionRefine:
		gs.Choice2Remaining--
	case ActionStabilize:
		gs.Choice3Remaining--
	}
	gs.Message = fmt.Sprintf("%s moved %+d to %d", spec.Label, delta, gs.Position)

	switch {
	case gs.Position >= MaxPos:
		gs.finish(EndReachedEnd, config)
	case gs.RemainingMoves <= 0:
		gs.finish(EndOutOfMoves, config)
	}
	return delta, true
}

// finish ends the session and awards the reward at the current square.
func (gs *GameState) finish(reason string, config *GameConfig) {
	reward := RewardAt(gs.RewardTrack, gs.Position)
	gs.GameOver = true
	gs.EndReason = reason
	gs.FinalReward = &reward
	gs.FinalRewardName = RewardName(reward)

	msg := config.Messages.Finished
	switch reason {
	case EndReachedEnd:
		if config.Messages.ReachedEnd != "" {
			msg = config.Messages.ReachedEnd
		}
	case EndOutOfMoves:
		if config.Messages.OutOfMoves != "" {
			msg = config.Messages.OutOfMoves
		}
	}
	if msg == "" {
		msg = "Game over."
	}
	gs.Message = fmt.Sprintf("%s Reward: %s", msg, gs.FinalRewardName)
}

// AddMoveToHistory adds a move to the game's move history
func (gs *GameState) AddMoveToHistory(action Action, delta, from, to int, success bool) {
	entry := MoveHistoryEntry{
		Action:         action,
		Delta:          delta,
		FromPosition:   from,
		ToPosition:     to,
		RemainingMoves: gs.RemainingMoves,
		Timestamp:      time.Now().Unix(),
		Success:        success,
		MoveNumber:     gs.TotalMoves + 1,
	}
	// Append to cumulative history (never cleared by reset) and increment total
	gs.MoveHistory = append(gs.MoveHistory, entry)
	gs.TotalMoves++

	// Append to current segment history and increment its counter
	gs.CurrentMoves = append(gs.CurrentMoves, entry)
	gs.CurrentMovesCount++
}
