package service

import (
	"time"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/wricardo/minigame-solver/game/snapshot"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
	Puzzle         *PuzzleState       `json:"puzzle,omitempty"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool                  `json:"success"`
	GameState *engine.GameState     `json:"game_state"`
	Message   string                `json:"message"`
	Events    []GameEvent           `json:"events,omitempty"`
	Step      *StepInfo             `json:"step,omitempty"`
	Advice    []engine.ActionAdvice `json:"advice,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // rejected_action|reached_end|out_of_moves|game_over
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	StartPosition int `json:"start_position"`
	EndPosition   int `json:"end_position"`

	Steps []StepInfo `json:"steps,omitempty"`

	GameOver        bool                  `json:"game_over"`
	FinalReward     *int                  `json:"final_reward,omitempty"`
	FinalRewardName string                `json:"final_reward_name,omitempty"`
	Message         string                `json:"message,omitempty"`
	Advice          []engine.ActionAdvice `json:"advice,omitempty"`
}

// StepInfo is a compact record for each executed move
type StepInfo struct {
	Idx            int           `json:"idx"`
	Action         engine.Action `json:"action"`
	Label          string        `json:"label"`
	Delta          int           `json:"delta"`
	From           int           `json:"from"`
	To             int           `json:"to"`
	RemainingMoves int           `json:"remaining_moves"`
	Reward         int           `json:"reward"`
	Success        bool          `json:"success"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "move", "rejected", "reached_end", "out_of_moves", "reset"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Position  int       `json:"position"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a reward mode configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Mode        int    `json:"mode"`
	MaxMoves    int    `json:"max_moves"`
	BestReward  string `json:"best_reward"`
}

// ProbabilityRequest asks for the odds of an arbitrary situation. Track
// overrides Config; both empty selects the default mode.
type ProbabilityRequest struct {
	Position int    `json:"position"`
	Turns    int    `json:"turns"`
	Choice2  int    `json:"choice2_remaining"`
	Choice3  int    `json:"choice3_remaining"`
	Config   string `json:"config,omitempty"`
	Track    []int  `json:"reward_track,omitempty"`
	GameOver bool   `json:"game_over,omitempty"`
}

// ProbabilityResponse is the stateless calculator output.
type ProbabilityResponse struct {
	Probabilities engine.Probabilities  `json:"probabilities"`
	Advice        []engine.ActionAdvice `json:"advice"`
	RewardTrack   []int                 `json:"reward_track"`
	BestReward    string                `json:"best_reward"`
}

// PieceSpec names a catalog piece by labels. Rarity and attribute accept the
// localized labels too; both are ignored for size-8 shapes.
type PieceSpec struct {
	Shape     string `json:"shape"`
	Rarity    string `json:"rarity,omitempty"`
	Attribute string `json:"attribute,omitempty"`
}

// PuzzleState is the client view of a session's placement workspace.
type PuzzleState struct {
	Board          [][]int           `json:"board"`
	OpenCount      int               `json:"open_count"`
	Role           piece.Role        `json:"role"`
	RoleAttributes []piece.Attribute `json:"role_attributes"`
	Pieces         []piece.Piece     `json:"pieces"`
	LastResult     *optimizer.Result `json:"last_result,omitempty"`
	Score          scoring.Result    `json:"score"`
}

// PuzzleUpdate is returned by workspace mutations.
type PuzzleUpdate struct {
	Toggle  *board.ToggleResult `json:"toggle,omitempty"`
	Changed int                 `json:"changed,omitempty"`
	Piece   *piece.Piece        `json:"piece,omitempty"`
	Puzzle  *PuzzleState        `json:"puzzle"`
}

// ImportResult reports a snapshot import.
type ImportResult struct {
	Report snapshot.Report `json:"report"`
	Puzzle *PuzzleState    `json:"puzzle"`
}

// OptimizeRequest overrides the optimizer budgets. Zero values keep the
// server defaults.
type OptimizeRequest struct {
	TimeLimitMs int64 `json:"time_limit_ms,omitempty"`
	NodeLimit   int64 `json:"node_limit,omitempty"`
}

// ProgressFunc receives optimizer events while OptimizePlacement runs.
type ProgressFunc func(sessionID string, e optimizer.Event)
