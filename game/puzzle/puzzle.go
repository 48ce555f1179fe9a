// Package puzzle is the altar placement workspace: a board, the player's
// piece pool, the selected role and the last optimizer result.
package puzzle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/optimizer"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
)

var ErrPieceNotFound = errors.New("piece not found")

// DefaultRole is the role of a new workspace.
const DefaultRole = piece.Dealer

// Snapshot is the serializable form of a workspace.
type Snapshot struct {
	Board      [][]int           `json:"board"`
	Pieces     []piece.Piece     `json:"pieces"`
	Role       piece.Role        `json:"role"`
	LastResult *optimizer.Result `json:"last_result,omitempty"`
}

// Puzzle is safe for concurrent use. Optimize runs without holding the lock,
// so board edits made while it searches invalidate its result instead of
// blocking.
type Puzzle struct {
	mu         sync.RWMutex
	board      *board.Board
	pieces     []piece.Piece
	role       piece.Role
	lastResult *optimizer.Result
	version    uint64
}

// New returns a workspace with only the core open and an empty pool.
func New() *Puzzle {
	return &Puzzle{
		board:  board.New(),
		pieces: []piece.Piece{},
		role:   DefaultRole,
	}
}

// changed drops the cached result. Callers hold mu.
func (p *Puzzle) changed() {
	p.lastResult = nil
	p.version++
}

// Board returns a copy of the board.
func (p *Puzzle) Board() *board.Board {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.board.Clone()
}

// Pieces returns a copy of the pool.
func (p *Puzzle) Pieces() []piece.Piece {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]piece.Piece(nil), p.pieces...)
}

func (p *Puzzle) Role() piece.Role {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.role
}

// LastResult returns the result of the latest optimization, or nil if the
// workspace changed since.
func (p *Puzzle) LastResult() *optimizer.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastResult
}

// Toggle opens or closes a cell following the board rules.
func (p *Puzzle) Toggle(c board.Cell) board.ToggleResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := p.board.Toggle(c)
	if res.Accepted {
		p.changed()
	}
	return res
}

// OpenAll opens every reachable cell and returns how many were opened.
func (p *Puzzle) OpenAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.board.OpenAll()
	if n > 0 {
		p.changed()
	}
	return n
}

// CloseAll closes every removable cell and returns how many were closed.
func (p *Puzzle) CloseAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := p.board.CloseAll()
	if n > 0 {
		p.changed()
	}
	return n
}

// ResetBoard returns the board to the core cells. The pool is kept.
func (p *Puzzle) ResetBoard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.board.Reset()
	p.changed()
}

// SetRole changes the role used for scoring and optimization.
func (p *Puzzle) SetRole(role piece.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", piece.ErrUnknownRole, role)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.role != role {
		p.role = role
		p.changed()
	}
	return nil
}

// AddPiece creates a piece from the catalog and appends it to the pool.
// Size-8 shapes get the Unique rarity and the shape's affinity whatever is
// passed in.
func (p *Puzzle) AddPiece(shapeName string, rarity piece.Rarity, attr piece.Attribute) (piece.Piece, error) {
	np, err := piece.New(shapeName, rarity, attr)
	if err != nil {
		return piece.Piece{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pieces = append(p.pieces, np)
	p.changed()
	return np, nil
}

// AddPieces appends already built pieces, validating each one first.
func (p *Puzzle) AddPieces(pieces ...piece.Piece) error {
	for _, np := range pieces {
		if err := np.Validate(); err != nil {
			return err
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pieces = append(p.pieces, pieces...)
	p.changed()
	return nil
}

// RemovePiece deletes the piece with the given id.
func (p *Puzzle) RemovePiece(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, existing := range p.pieces {
		if existing.ID == id {
			p.pieces = append(p.pieces[:i], p.pieces[i+1:]...)
			p.changed()
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrPieceNotFound, id)
}

// ClearPieces empties the pool.
func (p *Puzzle) ClearPieces() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pieces = []piece.Piece{}
	p.changed()
}

// Score evaluates the last result's placements for the current role. It is
// the zero breakdown when nothing has been optimized.
func (p *Puzzle) Score() scoring.Result {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastResult == nil {
		return scoring.Score(nil, p.role)
	}
	return scoring.Score(p.lastResult.Placements, p.role)
}

// Optimize runs the placement optimizer on the current board and pool. The
// result is cached unless the workspace changed while the search ran.
func (p *Puzzle) Optimize(ctx context.Context, opts optimizer.Options) (*optimizer.Result, error) {
	p.mu.RLock()
	open := p.board.Mask()
	pool := append([]piece.Piece(nil), p.pieces...)
	role := p.role
	version := p.version
	p.mu.RUnlock()

	res, err := optimizer.Optimize(ctx, open, pool, role, opts)

	p.mu.Lock()
	if p.version == version {
		p.lastResult = res
	}
	p.mu.Unlock()
	return res, err
}

// Snapshot captures the workspace.
func (p *Puzzle) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		Board:      p.board.Grid(),
		Pieces:     append([]piece.Piece(nil), p.pieces...),
		Role:       p.role,
		LastResult: p.lastResult,
	}
}

// Restore replaces the workspace with a snapshot after validating it. An
// empty role falls back to DefaultRole and a nil board to the core.
func (p *Puzzle) Restore(s Snapshot) error {
	b := board.New()
	if s.Board != nil {
		var err error
		if b, err = board.FromGrid(s.Board); err != nil {
			return err
		}
	}
	role := s.Role
	if role == "" {
		role = DefaultRole
	}
	if !role.Valid() {
		return fmt.Errorf("%w: %q", piece.ErrUnknownRole, role)
	}
	ids := mapset.New[string]()
	for _, np := range s.Pieces {
		if err := np.Validate(); err != nil {
			return err
		}
		if ids.Has(np.ID) {
			return fmt.Errorf("%w: duplicate id %s", piece.ErrInvalidPiece, np.ID)
		}
		ids.Put(np.ID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.board = b
	p.pieces = append([]piece.Piece{}, s.Pieces...)
	p.role = role
	p.changed()
	p.lastResult = s.LastResult
	return nil
}

// AvailableShapes lists the shapes that can be added for a size. Size-8
// shapes are limited to the role's own and the any-role set.
func AvailableShapes(size int, role piece.Role) []piece.Shape {
	if size != piece.UniqueSize {
		return piece.ShapesOfSize(size)
	}
	var out []piece.Shape
	for _, s := range piece.ShapesForRole(role) {
		if s.Size == piece.UniqueSize {
			out = append(out, s)
		}
	}
	return out
}
