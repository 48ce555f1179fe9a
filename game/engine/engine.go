package engine

import "fmt"

// Engine provides the main interface for reward session operations
type Engine interface {
	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	IsGameOver() bool
	GetPosition() int
	GetRemainingMoves() int

	// Movement operations
	Move(action Action) bool
	CanMove(action Action) bool
	GetPossibleActions() []Action

	// Decision support
	Probabilities() Probabilities
	Advise() []ActionAdvice

	// Configuration
	GetConfig() *GameConfig
	SetConfig(config *GameConfig) error

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface
type GameEngine struct {
	state  *GameState
	config *GameConfig
	roller Roller
}

// Option customizes a GameEngine.
type Option func(*GameEngine)

// WithRoller replaces the random source used to resolve moves.
func WithRoller(r Roller) Option {
	return func(e *GameEngine) {
		if r != nil {
			e.roller = r
		}
	}
}

// NewEngine creates a new game engine with the provided configuration
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	engine := &GameEngine{
		config: config,
		state:  InitGameStateFromConfig(config),
		roller: FrandRoller{},
	}
	for _, opt := range opts {
		opt(engine)
	}

	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the built-in default mode
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	engine, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(fmt.Sprintf("engine: default config is invalid: %v", err))
	}
	return engine
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	e.state = state
	return nil
}

// Reset resets the game to initial state
func (e *GameEngine) Reset() *GameState {
	// Preserve cumulative history and totals across resets
	prevHistory := e.state.MoveHistory
	prevTotal := e.state.TotalMoves

	e.state = InitGameStateFromConfig(e.config)

	e.state.MoveHistory = prevHistory
	e.state.TotalMoves = prevTotal
	e.state.CurrentMoves = []MoveHistoryEntry{}
	e.state.CurrentMovesCount = 0

	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// GetPosition returns the token position
func (e *GameEngine) GetPosition() int {
	return e.state.Position
}

// GetRemainingMoves returns the moves left in the session
func (e *GameEngine) GetRemainingMoves() int {
	return e.state.RemainingMoves
}

// Move takes one action and rolls its displacement
func (e *GameEngine) Move(action Action) bool {
	if e.config == nil {
		return false
	}

	prevPos := e.state.Position
	delta, success := e.state.ApplyAction(action, e.roller, e.config)

	e.state.AddMoveToHistory(action, delta, prevPos, e.state.Position, success)

	return success
}

// CanMove reports whether the action is currently allowed
func (e *GameEngine) CanMove(action Action) bool {
	return e.state.CanTake(action)
}

// GetPossibleActions returns every action that can be taken now
func (e *GameEngine) GetPossibleActions() []Action {
	var possible []Action
	for _, spec := range Actions {
		if e.CanMove(spec.Action) {
			possible = append(possible, spec.Action)
		}
	}
	return possible
}

// Probabilities runs the solver on the current state
func (e *GameEngine) Probabilities() Probabilities {
	s := e.state
	return SolveProbabilities(s.Position, s.RemainingMoves, s.Choice2Remaining, s.Choice3Remaining, s.RewardTrack)
}

// Advise returns the decision table for the current state
func (e *GameEngine) Advise() []ActionAdvice {
	s := e.state
	return AdviseActions(s.Position, s.RemainingMoves, s.Choice2Remaining, s.Choice3Remaining, s.RewardTrack, s.GameOver)
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// SetConfig sets a new game configuration and resets the game
func (e *GameEngine) SetConfig(config *GameConfig) error {
	if err := ValidateGameConfig(config); err != nil {
		return err
	}

	e.config = config
	e.state = InitGameStateFromConfig(config)
	return nil
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// BulkMove executes multiple actions in sequence, returning success status for each
func (e *GameEngine) BulkMove(actions []Action) []bool {
	results := make([]bool, 0, len(actions))

	for _, action := range actions {
		// Stop if game is over
		if e.IsGameOver() {
			break
		}

		success := e.Move(action)
		results = append(results, success)
	}

	return results
}
