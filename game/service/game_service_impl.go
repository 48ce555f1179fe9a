package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/wricardo/minigame-solver/game/snapshot"
)

// ErrInvalidArgument marks requests rejected before touching any session.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	DefaultProgressInterval = 250 * time.Millisecond
	MaxOptimizeTimeout      = 2 * time.Minute
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex

	optimizeTimeout  time.Duration
	optimizeNodes    int64
	progressInterval time.Duration
}

// Option customizes the service.
type Option func(*gameServiceImpl)

// WithOptimizeTimeout sets the default wall-clock budget of OptimizePlacement.
func WithOptimizeTimeout(d time.Duration) Option {
	return func(s *gameServiceImpl) {
		if d > 0 {
			s.optimizeTimeout = min(d, MaxOptimizeTimeout)
		}
	}
}

// WithOptimizeNodeLimit sets the default node budget of OptimizePlacement.
func WithOptimizeNodeLimit(n int64) Option {
	return func(s *gameServiceImpl) {
		if n > 0 {
			s.optimizeNodes = n
		}
	}
}

// WithProgressInterval sets how often optimizer progress is reported.
func WithProgressInterval(d time.Duration) Option {
	return func(s *gameServiceImpl) {
		if d > 0 {
			s.progressInterval = d
		}
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions:         sessions,
		configs:          configs,
		optimizeTimeout:  optimizer.DefaultTimeLimit,
		optimizeNodes:    optimizer.DefaultNodeLimit,
		progressInterval: DefaultProgressInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// persist saves the session and logs failures; persistence never fails a request.
func (s *gameServiceImpl) persist(sessionID, op string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Str("op", op).Msg("persist-session-failed")
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
	if sess.Puzzle != nil {
		info.Puzzle = puzzleState(sess.Puzzle)
	}
	return info
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if strings.Contains(err.Error(), "configuration not found") {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					configIDs := lo.Map(availableConfigs, func(c *ConfigInfo, _ int) string { return c.ConfigID })
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v", configName, configIDs)
				}
				return nil, fmt.Errorf("config '%s' not found. Use /api/configs to list available configurations", configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	session, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Info().Str("session", session.ID).Str("config", configID).Msg("session-created")
	return s.sessionInfo(session, configID), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return s.sessionInfo(session, s.getConfigID(session.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Move executes a single action for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID string, action engine.Action, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, GameEvent{
			Type:      "reset",
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	prevPos := sess.Engine.GetPosition()
	success := sess.Engine.Move(action)
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   success,
		GameState: state,
		Message:   state.Message,
		Events:    append(events, moveEvents(state, action, prevPos, success)...),
		Advice:    sess.Engine.Advise(),
	}
	if last := sess.Engine.GetLastMove(); last != nil {
		step := stepFromEntry(1, *last, state.RewardTrack)
		result.Step = &step
	}

	s.persist(sessionID, "move")
	return result, nil
}

// BulkMove executes a sequence of actions, stopping at the first rejected one
// or when the session ends.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, actions []engine.Action, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	result := &BulkMoveResult{
		RequestedMoves: len(actions),
		Events:         []GameEvent{},
	}
	if len(actions) > engine.MaxBulkMoves {
		actions = actions[:engine.MaxBulkMoves]
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, GameEvent{
			Type:      "reset",
			Message:   "Game reset to initial state",
			Timestamp: time.Now(),
		})
	}

	result.StartPosition = sess.Engine.GetPosition()

	if sess.Engine.IsGameOver() && len(actions) > 0 {
		result.StoppedReason = "game is over"
		result.StopReasonCode = "game_over"
		result.StoppedOnMove = 1
		actions = nil
	}

	for i, action := range actions {
		prevPos := sess.Engine.GetPosition()
		success := sess.Engine.Move(action)
		state := sess.Engine.GetState()
		result.Events = append(result.Events, moveEvents(state, action, prevPos, success)...)
		if last := sess.Engine.GetLastMove(); last != nil {
			result.Steps = append(result.Steps, stepFromEntry(i+1, *last, state.RewardTrack))
		}

		if !success {
			result.StoppedReason = state.Message
			result.StopReasonCode = "rejected_action"
			result.StoppedOnMove = i + 1
			break
		}
		result.MovesExecuted++

		if state.GameOver {
			if i < len(actions)-1 {
				result.StoppedReason = "session finished"
				result.StoppedOnMove = i + 1
			}
			break
		}
	}

	state := sess.Engine.GetState()
	result.GameState = state
	result.EndPosition = state.Position
	result.GameOver = state.GameOver
	result.FinalReward = state.FinalReward
	result.FinalRewardName = state.FinalRewardName
	result.Message = state.Message
	if result.GameOver && result.StopReasonCode == "" {
		result.StopReasonCode = state.EndReason
	}
	result.Success = result.StopReasonCode != "rejected_action" && result.StopReasonCode != "game_over"
	result.Advice = sess.Engine.Advise()

	s.persist(sessionID, "bulk-move")
	return result, nil
}

// Reset resets a game session to initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Engine.Reset()

	s.persist(sessionID, "reset")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return sess.Engine.GetState(), nil
}

// GetAdvice returns the decision table for the session's current state
func (s *gameServiceImpl) GetAdvice(ctx context.Context, sessionID string) ([]engine.ActionAdvice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	return sess.Engine.Advise(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// Probabilities evaluates an arbitrary situation without a session
func (s *gameServiceImpl) Probabilities(ctx context.Context, req ProbabilityRequest) (*ProbabilityResponse, error) {
	track := req.Track
	if len(track) == 0 {
		config := s.configs.GetDefault()
		if req.Config != "" {
			var err error
			if config, err = s.configs.LoadConfig(req.Config); err != nil {
				return nil, fmt.Errorf("failed to load config %s: %w", req.Config, err)
			}
		}
		track = config.RewardTrack
	}
	if len(track) != engine.TrackLength {
		return nil, fmt.Errorf("%w: reward_track must have %d entries, got %d", ErrInvalidArgument, engine.TrackLength, len(track))
	}

	return &ProbabilityResponse{
		Probabilities: engine.SolveProbabilities(req.Position, req.Turns, req.Choice2, req.Choice3, track),
		Advice:        engine.AdviseActions(req.Position, req.Turns, req.Choice2, req.Choice3, track, req.GameOver),
		RewardTrack:   track,
		BestReward:    engine.RewardName(engine.BestReward(track)),
	}, nil
}

// ScorePieces scores a set of pieces for a role as if all were placed
func (s *gameServiceImpl) ScorePieces(ctx context.Context, role string, specs []PieceSpec) (*scoring.Result, error) {
	r, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	pieces := make([]piece.Piece, 0, len(specs))
	for i, spec := range specs {
		p, err := buildPiece(spec)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		pieces = append(pieces, p)
	}
	res := scoring.ScorePieces(pieces, r.Attributes())
	return &res, nil
}

// ListShapes returns the catalog, optionally narrowed to one size. Size-8
// shapes are filtered by role when one is given.
func (s *gameServiceImpl) ListShapes(ctx context.Context, size int, role string) ([]piece.Shape, error) {
	if role == "" {
		if size == 0 {
			return piece.Shapes(), nil
		}
		return piece.ShapesOfSize(size), nil
	}
	r, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		return piece.ShapesForRole(r), nil
	}
	return puzzle.AvailableShapes(size, r), nil
}

// workspace fetches a session for a placement operation.
func (s *gameServiceImpl) workspace(sessionID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// mutate runs fn on the session's workspace and persists the result.
func (s *gameServiceImpl) mutate(sessionID, op string, fn func(p *puzzle.Puzzle, u *PuzzleUpdate) error) (*PuzzleUpdate, error) {
	sess, err := s.workspace(sessionID)
	if err != nil {
		return nil, err
	}
	update := &PuzzleUpdate{}
	if err := fn(sess.Puzzle, update); err != nil {
		return nil, err
	}
	update.Puzzle = puzzleState(sess.Puzzle)

	s.mu.RLock()
	s.persist(sessionID, op)
	s.mu.RUnlock()
	return update, nil
}

// GetPuzzle returns the session's placement workspace
func (s *gameServiceImpl) GetPuzzle(ctx context.Context, sessionID string) (*PuzzleState, error) {
	sess, err := s.workspace(sessionID)
	if err != nil {
		return nil, err
	}
	return puzzleState(sess.Puzzle), nil
}

// ToggleCell opens or closes one cell. A rejected toggle is reported in the
// update, not as an error.
func (s *gameServiceImpl) ToggleCell(ctx context.Context, sessionID string, row, col int) (*PuzzleUpdate, error) {
	return s.mutate(sessionID, "toggle-cell", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		res := p.Toggle(board.Cell{Row: row, Col: col})
		u.Toggle = &res
		return nil
	})
}

// OpenAllCells opens every reachable cell
func (s *gameServiceImpl) OpenAllCells(ctx context.Context, sessionID string) (*PuzzleUpdate, error) {
	return s.mutate(sessionID, "open-all", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		u.Changed = p.OpenAll()
		return nil
	})
}

// CloseAllCells closes every removable cell
func (s *gameServiceImpl) CloseAllCells(ctx context.Context, sessionID string) (*PuzzleUpdate, error) {
	return s.mutate(sessionID, "close-all", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		u.Changed = p.CloseAll()
		return nil
	})
}

// ResetBoard returns the board to the core cells
func (s *gameServiceImpl) ResetBoard(ctx context.Context, sessionID string) (*PuzzleUpdate, error) {
	return s.mutate(sessionID, "reset-board", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		p.ResetBoard()
		return nil
	})
}

// SetRole changes the workspace role
func (s *gameServiceImpl) SetRole(ctx context.Context, sessionID, role string) (*PuzzleUpdate, error) {
	r, err := parseRole(role)
	if err != nil {
		return nil, err
	}
	return s.mutate(sessionID, "set-role", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		return p.SetRole(r)
	})
}

// AddPiece adds a catalog piece to the pool
func (s *gameServiceImpl) AddPiece(ctx context.Context, sessionID string, spec PieceSpec) (*PuzzleUpdate, error) {
	np, err := buildPiece(spec)
	if err != nil {
		return nil, err
	}
	return s.mutate(sessionID, "add-piece", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		if err := p.AddPieces(np); err != nil {
			return err
		}
		u.Piece = &np
		return nil
	})
}

// RemovePiece deletes a piece from the pool
func (s *gameServiceImpl) RemovePiece(ctx context.Context, sessionID, pieceID string) (*PuzzleUpdate, error) {
	return s.mutate(sessionID, "remove-piece", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		return p.RemovePiece(pieceID)
	})
}

// ClearPieces empties the pool
func (s *gameServiceImpl) ClearPieces(ctx context.Context, sessionID string) (*PuzzleUpdate, error) {
	return s.mutate(sessionID, "clear-pieces", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		p.ClearPieces()
		return nil
	})
}

// ImportPuzzle replaces the workspace with an imported snapshot. A snapshot
// without a board or role keeps the current one.
func (s *gameServiceImpl) ImportPuzzle(ctx context.Context, sessionID string, data []byte) (*ImportResult, error) {
	snap, report, err := snapshot.Import(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	update, err := s.mutate(sessionID, "import", func(p *puzzle.Puzzle, u *PuzzleUpdate) error {
		if snap.Board == nil {
			snap.Board = p.Board().Grid()
		}
		if snap.Role == "" {
			snap.Role = p.Role()
		}
		if err := p.Restore(snap); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session", sessionID).Str("format", report.Format).
		Int("imported", report.Imported).Int("skipped", len(report.Skipped)).Msg("puzzle-imported")
	return &ImportResult{Report: report, Puzzle: update.Puzzle}, nil
}

// OptimizePlacement runs the placement optimizer on the session's workspace.
// The service lock is not held while the search runs. An empty board or pool
// yields an empty result whose Note explains why, not an error.
func (s *gameServiceImpl) OptimizePlacement(ctx context.Context, sessionID string, req OptimizeRequest, progress ProgressFunc) (*optimizer.Result, error) {
	sess, err := s.workspace(sessionID)
	if err != nil {
		return nil, err
	}

	opts := optimizer.Options{
		TimeLimit:        s.optimizeTimeout,
		NodeLimit:        s.optimizeNodes,
		ProgressInterval: s.progressInterval,
	}
	if req.TimeLimitMs > 0 {
		opts.TimeLimit = min(time.Duration(req.TimeLimitMs)*time.Millisecond, MaxOptimizeTimeout)
	}
	if req.NodeLimit > 0 {
		opts.NodeLimit = req.NodeLimit
	}
	if progress != nil {
		opts.Observer = optimizer.ObserverFunc(func(e optimizer.Event) { progress(sessionID, e) })
	}

	log.Info().Str("session", sessionID).Dur("time_limit", opts.TimeLimit).
		Int64("node_limit", opts.NodeLimit).Msg("optimize-started")

	res, err := sess.Puzzle.Optimize(ctx, opts)
	switch {
	case errors.Is(err, optimizer.ErrNoOpenCells), errors.Is(err, optimizer.ErrNoUsablePieces):
		log.Info().Str("session", sessionID).Str("reason", err.Error()).Msg("optimize-nothing-to-place")
		return res, nil
	case err != nil:
		return nil, fmt.Errorf("optimize placement: %w", err)
	}

	log.Info().Str("session", sessionID).
		Int("score", res.Score.TotalScore).
		Int("placements", len(res.Placements)).
		Int64("nodes", res.Stats.Nodes).
		Str("stop_reason", string(res.Stats.StopReason)).
		Dur("elapsed", res.Stats.Elapsed).
		Msg("optimize-finished")

	s.mu.RLock()
	s.persist(sessionID, "optimize")
	s.mu.RUnlock()
	return res, nil
}

// ListConfigs returns available reward mode configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific reward mode configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a reward mode configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// moveEvents describes one move attempt.
func moveEvents(state *engine.GameState, action engine.Action, prevPos int, success bool) []GameEvent {
	now := time.Now()
	if !success {
		return []GameEvent{{
			Type:      "rejected",
			Message:   state.Message,
			Timestamp: now,
			Position:  state.Position,
		}}
	}

	label := fmt.Sprintf("action %d", action)
	if spec, ok := action.Spec(); ok {
		label = spec.Label
	}
	events := []GameEvent{{
		Type:      "move",
		Message:   fmt.Sprintf("%s moved the token from %d to %d", label, prevPos, state.Position),
		Timestamp: now,
		Position:  state.Position,
	}}

	if state.GameOver {
		events = append(events, GameEvent{
			Type:      state.EndReason,
			Message:   state.Message,
			Timestamp: now,
			Position:  state.Position,
		})
	}
	return events
}

func stepFromEntry(idx int, e engine.MoveHistoryEntry, track []int) StepInfo {
	step := StepInfo{
		Idx:            idx,
		Action:         e.Action,
		Delta:          e.Delta,
		From:           e.FromPosition,
		To:             e.ToPosition,
		RemainingMoves: e.RemainingMoves,
		Reward:         engine.RewardAt(track, e.ToPosition),
		Success:        e.Success,
	}
	if spec, ok := e.Action.Spec(); ok {
		step.Label = spec.Label
	}
	return step
}

func puzzleState(p *puzzle.Puzzle) *PuzzleState {
	snap := p.Snapshot()
	return &PuzzleState{
		Board:          snap.Board,
		OpenCount:      lo.SumBy(snap.Board, func(row []int) int { return lo.Sum(row) }),
		Role:           snap.Role,
		RoleAttributes: snap.Role.Attributes(),
		Pieces:         snap.Pieces,
		LastResult:     snap.LastResult,
		Score:          p.Score(),
	}
}

func parseRole(s string) (piece.Role, error) {
	r, err := piece.ParseRole(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return r, nil
}

// buildPiece resolves a PieceSpec against the catalog.
func buildPiece(spec PieceSpec) (piece.Piece, error) {
	shape, err := piece.LookupShape(spec.Shape)
	if err != nil {
		return piece.Piece{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if shape.Size == piece.UniqueSize {
		p, err := piece.New(shape.Name, piece.Unique, "")
		if err != nil {
			return piece.Piece{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		return p, nil
	}

	rarity, err := piece.ParseRarity(spec.Rarity)
	if err != nil {
		return piece.Piece{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	attr, err := piece.ParseAttribute(spec.Attribute)
	if err != nil {
		return piece.Piece{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	p, err := piece.New(shape.Name, rarity, attr)
	if err != nil {
		return piece.Piece{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return p, nil
}
