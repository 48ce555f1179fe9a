// Package board models the 7x7 altar grid: which cells are open, which are
// permanently open core cells, and the connectivity rules for changing them.
package board

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Toggle rejection reasons.
const (
	ReasonOutOfBounds = "cell is outside the board"
	ReasonCore        = "core cell cannot be changed"
	ReasonNoNeighbour = "adjacent cell must be open"
	ReasonDisconnect  = "would disconnect the board"
)

var (
	ErrMissingCore  = errors.New("board must keep every core cell open")
	ErrDisconnected = errors.New("open cells must be connected")
)

// Core is the fixed block of cells (rows 2-4, columns 1-5) that is always open.
var Core = func() Mask {
	var m Mask
	for r := 2; r <= 4; r++ {
		for c := 1; c <= 5; c++ {
			m = m.With(Cell{Row: r, Col: c})
		}
	}
	return m
}()

// IsCore reports whether the cell is part of the core.
func IsCore(c Cell) bool {
	return Core.Has(c)
}

// ToggleResult describes the outcome of a Toggle request.
type ToggleResult struct {
	Cell     Cell   `json:"cell"`
	Accepted bool   `json:"accepted"`
	Open     bool   `json:"open"`
	Reason   string `json:"reason,omitempty"`
}

// Board holds the open cells of the altar. The zero value is not usable; call New.
type Board struct {
	open Mask
}

// New returns a board with only the core open.
func New() *Board {
	return &Board{open: Core}
}

// FromMask builds a board from a mask. The mask must contain the core and be connected.
func FromMask(m Mask) (*Board, error) {
	m &= fullMask
	if m&Core != Core {
		return nil, ErrMissingCore
	}
	if !Connected(m) {
		return nil, ErrDisconnected
	}
	return &Board{open: m}, nil
}

// FromGrid builds a board from a 7x7 matrix of 0/1 values.
func FromGrid(grid [][]int) (*Board, error) {
	m, err := MaskFromGrid(grid)
	if err != nil {
		return nil, err
	}
	return FromMask(m)
}

// Mask returns the open cells.
func (b *Board) Mask() Mask { return b.open }

// Grid returns the board as a 7x7 matrix of 0/1 values.
func (b *Board) Grid() [][]int { return b.open.Grid() }

// OpenCount returns the number of open cells.
func (b *Board) OpenCount() int { return b.open.Count() }

// IsOpen reports whether the cell is open.
func (b *Board) IsOpen(c Cell) bool { return b.open.Has(c) }

// Clone returns an independent copy.
func (b *Board) Clone() *Board { return &Board{open: b.open} }

// Reset closes everything except the core.
func (b *Board) Reset() { b.open = Core }

// CanOpen reports whether a closed cell has at least one open neighbour.
func (b *Board) CanOpen(c Cell) bool {
	if !c.InBounds() || b.open.Has(c) {
		return false
	}
	return neighbours(MaskOf(c))&b.open != 0
}

// CanClose reports whether an open non-core cell can be closed without
// splitting the remaining open cells.
func (b *Board) CanClose(c Cell) bool {
	if !c.InBounds() || IsCore(c) || !b.open.Has(c) {
		return false
	}
	return Connected(b.open.Without(c))
}

// Toggle flips a single cell if the move keeps the board valid.
func (b *Board) Toggle(c Cell) ToggleResult {
	res := ToggleResult{Cell: c, Open: b.open.Has(c)}
	switch {
	case !c.InBounds():
		res.Reason = ReasonOutOfBounds
	case IsCore(c):
		res.Reason = ReasonCore
	case b.open.Has(c):
		if !b.CanClose(c) {
			res.Reason = ReasonDisconnect
			return res
		}
		b.open = b.open.Without(c)
		res.Accepted, res.Open = true, false
	default:
		if !b.CanOpen(c) {
			res.Reason = ReasonNoNeighbour
			return res
		}
		b.open = b.open.With(c)
		res.Accepted, res.Open = true, true
	}
	return res
}

// OpenAll repeatedly opens every closed cell adjacent to an open one, scanning
// in row-major order, until nothing changes. It returns the number of cells opened.
func (b *Board) OpenAll() int {
	opened := 0
	for changed := true; changed; {
		changed = false
		for i := 0; i < CellCount; i++ {
			c := Cell{Row: i / Size, Col: i % Size}
			if b.CanOpen(c) {
				b.open = b.open.With(c)
				opened++
				changed = true
			}
		}
	}
	return opened
}

// CloseAll closes as many non-core cells as possible. Each pass visits the open
// non-core cells in reverse scan order and closes those whose removal keeps the
// board connected. It returns the number of cells closed.
func (b *Board) CloseAll() int {
	closed := 0
	for changed := true; changed; {
		changed = false
		cells := (b.open &^ Core).Cells()
		for i := len(cells) - 1; i >= 0; i-- {
			if b.CanClose(cells[i]) {
				b.open = b.open.Without(cells[i])
				closed++
				changed = true
			}
		}
	}
	return closed
}

// MarshalJSON encodes the board as its grid.
func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Grid())
}

// UnmarshalJSON decodes a grid and validates it.
func (b *Board) UnmarshalJSON(data []byte) error {
	var grid [][]int
	if err := json.Unmarshal(data, &grid); err != nil {
		return fmt.Errorf("decode board grid: %w", err)
	}
	nb, err := FromGrid(grid)
	if err != nil {
		return err
	}
	b.open = nb.open
	return nil
}

// String renders the board with '#' for open cells and '.' for closed ones.
func (b *Board) String() string {
	out := make([]byte, 0, CellCount+Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.open.Has(Cell{Row: r, Col: c}) {
				out = append(out, '#')
			} else {
				out = append(out, '.')
			}
		}
		out = append(out, '\n')
	}
	return string(out)
}
