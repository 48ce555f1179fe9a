package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownAction is returned when an action name or number is not recognised.
var ErrUnknownAction = errors.New("unknown action")

const (
	// MaxPos is the last square of the reward track. Reaching it ends the game.
	MaxPos = 16
	// TrackLength is the number of squares on a reward track.
	TrackLength = MaxPos + 1

	// DefaultChoiceUses is the starting budget of each limited action.
	DefaultChoiceUses = 3
	DefaultMaxMoves   = 8
	MaxMovesCap       = 20
	MaxBulkMoves      = 50

	MinRewardTier = 0
	MaxRewardTier = 6

	// Epsilon is the tolerance used when comparing probabilities.
	Epsilon = 1e-9

	WebSocketBufferSize = 256
)

// Action identifies one of the three moves.
type Action int

const (
	ActionStrike    Action = 1
	ActionRefine    Action = 2
	ActionStabilize Action = 3
)

// ActionSpec describes an action's displacement range and budget.
type ActionSpec struct {
	Action  Action `json:"action"`
	Label   string `json:"label"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Limited bool   `json:"limited"`
}

// Outcomes is the number of equally likely displacements.
func (s ActionSpec) Outcomes() int { return s.Max - s.Min + 1 }

// Actions lists the action specs indexed by Action-1.
var Actions = [3]ActionSpec{
	{Action: ActionStrike, Label: "strike", Min: 3, Max: 6},
	{Action: ActionRefine, Label: "refine", Min: -3, Max: 2, Limited: true},
	{Action: ActionStabilize, Label: "stabilize", Min: 0, Max: 4, Limited: true},
}

// Spec returns the action's spec, or false for an unknown action.
func (a Action) Spec() (ActionSpec, bool) {
	if a < ActionStrike || a > ActionStabilize {
		return ActionSpec{}, false
	}
	return Actions[a-1], true
}

// Valid reports whether a is one of the three actions.
func (a Action) Valid() bool {
	_, ok := a.Spec()
	return ok
}

// ParseAction accepts an action number ("1".."3") or label ("strike",
// "refine", "stabilize").
func ParseAction(s string) (Action, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if a := Action(n); a.Valid() {
			return a, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownAction, s)
	}
	for _, spec := range Actions {
		if spec.Label == s {
			return spec.Action, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// UnmarshalJSON accepts either the action number or its label.
func (a *Action) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(data, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseAction(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = Action(n)
	return nil
}

// Messages are the player-facing texts of a reward mode.
type Messages struct {
	Welcome    string `json:"welcome" yaml:"welcome"`
	Finished   string `json:"finished" yaml:"finished"`
	OutOfMoves string `json:"out_of_moves" yaml:"out_of_moves"`
	ReachedEnd string `json:"reached_end" yaml:"reached_end"`
}

// GameConfig describes a reward mode.
type GameConfig struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Mode        int      `json:"mode" yaml:"mode"`
	RewardTrack []int    `json:"reward_track" yaml:"reward_track"`
	MaxMoves    int      `json:"max_moves" yaml:"max_moves"`
	Messages    Messages `json:"messages" yaml:"messages"`
}

// GameState is the complete state of a reward session.
type GameState struct {
	Position         int    `json:"position"`
	RemainingMoves   int    `json:"remaining_moves"`
	MaxMoves         int    `json:"max_moves"`
	Choice2Remaining int    `json:"choice2_remaining"`
	Choice3Remaining int    `json:"choice3_remaining"`
	GameOver         bool   `json:"game_over"`
	FinalReward      *int   `json:"final_reward,omitempty"`
	FinalRewardName  string `json:"final_reward_name,omitempty"`
	EndReason        string `json:"end_reason,omitempty"`
	Mode             int    `json:"mode"`
	ConfigName       string `json:"config_name"`
	RewardTrack      []int  `json:"reward_track"`
	Message          string `json:"message"`

	MoveHistory []MoveHistoryEntry `json:"move_history"`
	TotalMoves  int                `json:"total_moves"`

	// CurrentMoves tracks only the moves since the last reset. It mirrors MoveHistory entries
	// but gets cleared on reset while MoveHistory remains cumulative.
	CurrentMoves      []MoveHistoryEntry `json:"current_moves"`
	CurrentMovesCount int                `json:"current_moves_count"`
}

// End reasons.
const (
	EndOutOfMoves = "out_of_moves"
	EndReachedEnd = "reached_end"
)

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Action         Action `json:"action"`
	Delta          int    `json:"delta"`
	FromPosition   int    `json:"from_position"`
	ToPosition     int    `json:"to_position"`
	RemainingMoves int    `json:"remaining_moves"`
	Timestamp      int64  `json:"timestamp"`
	Success        bool   `json:"success"`
	MoveNumber     int    `json:"move_number"`
}
