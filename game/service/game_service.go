package service

import (
	"context"
	"time"

	"github.com/wricardo/minigame-solver/game/engine"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
	"github.com/wricardo/minigame-solver/game/scoring"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Reward Game Operations
	Move(ctx context.Context, sessionID string, action engine.Action, reset bool) (*MoveResult, error)
	BulkMove(ctx context.Context, sessionID string, actions []engine.Action, reset bool) (*BulkMoveResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	GetAdvice(ctx context.Context, sessionID string) ([]engine.ActionAdvice, error)

	// Stateless calculators
	Probabilities(ctx context.Context, req ProbabilityRequest) (*ProbabilityResponse, error)
	ScorePieces(ctx context.Context, role string, pieces []PieceSpec) (*scoring.Result, error)
	ListShapes(ctx context.Context, size int, role string) ([]piece.Shape, error)

	// Placement Workspace
	GetPuzzle(ctx context.Context, sessionID string) (*PuzzleState, error)
	ToggleCell(ctx context.Context, sessionID string, row, col int) (*PuzzleUpdate, error)
	OpenAllCells(ctx context.Context, sessionID string) (*PuzzleUpdate, error)
	CloseAllCells(ctx context.Context, sessionID string) (*PuzzleUpdate, error)
	ResetBoard(ctx context.Context, sessionID string) (*PuzzleUpdate, error)
	SetRole(ctx context.Context, sessionID, role string) (*PuzzleUpdate, error)
	AddPiece(ctx context.Context, sessionID string, spec PieceSpec) (*PuzzleUpdate, error)
	RemovePiece(ctx context.Context, sessionID, pieceID string) (*PuzzleUpdate, error)
	ClearPieces(ctx context.Context, sessionID string) (*PuzzleUpdate, error)
	ImportPuzzle(ctx context.Context, sessionID string, data []byte) (*ImportResult, error)
	OptimizePlacement(ctx context.Context, sessionID string, req OptimizeRequest, progress ProgressFunc) (*optimizer.Result, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles reward mode configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active session: a reward game and a placement workspace
type Session struct {
	ID             string
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	Puzzle         *puzzle.Puzzle
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
