package board

import (
	"fmt"
	"math/bits"
)

// Size is the width and height of the altar board.
const Size = 7

// CellCount is the number of cells on the board.
const CellCount = Size * Size

// Cell is a board coordinate.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InBounds reports whether the cell lies on the board.
func (c Cell) InBounds() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

// Index returns the bit index of the cell in a Mask.
func (c Cell) Index() int {
	return c.Row*Size + c.Col
}

// String implements fmt.Stringer.
func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Mask is a set of cells packed into the low 49 bits of an integer.
type Mask uint64

const (
	fullMask Mask = 1<<CellCount - 1

	firstColMask Mask = 1 | 1<<7 | 1<<14 | 1<<21 | 1<<28 | 1<<35 | 1<<42
	lastColMask  Mask = firstColMask << (Size - 1)
)

// MaskOf builds a mask from the given cells. Cells outside the board are ignored.
func MaskOf(cells ...Cell) Mask {
	var m Mask
	for _, c := range cells {
		m = m.With(c)
	}
	return m
}

// Has reports whether the cell is in the mask.
func (m Mask) Has(c Cell) bool {
	if !c.InBounds() {
		return false
	}
	return m&(1<<uint(c.Index())) != 0
}

// With returns a copy of the mask with the cell added.
func (m Mask) With(c Cell) Mask {
	if !c.InBounds() {
		return m
	}
	return m | 1<<uint(c.Index())
}

// Without returns a copy of the mask with the cell removed.
func (m Mask) Without(c Cell) Mask {
	if !c.InBounds() {
		return m
	}
	return m &^ (1 << uint(c.Index()))
}

// Count returns the number of cells in the mask.
func (m Mask) Count() int {
	return bits.OnesCount64(uint64(m & fullMask))
}

// Cells lists the cells of the mask in row-major scan order.
func (m Mask) Cells() []Cell {
	cells := make([]Cell, 0, m.Count())
	for i := 0; i < CellCount; i++ {
		if m&(1<<uint(i)) != 0 {
			cells = append(cells, Cell{Row: i / Size, Col: i % Size})
		}
	}
	return cells
}

// Grid renders the mask as a 7x7 matrix of 0/1 values.
func (m Mask) Grid() [][]int {
	grid := make([][]int, Size)
	for r := 0; r < Size; r++ {
		grid[r] = make([]int, Size)
		for c := 0; c < Size; c++ {
			if m.Has(Cell{Row: r, Col: c}) {
				grid[r][c] = 1
			}
		}
	}
	return grid
}

// MaskFromGrid converts a 7x7 matrix of 0/1 values into a mask.
func MaskFromGrid(grid [][]int) (Mask, error) {
	if len(grid) != Size {
		return 0, fmt.Errorf("board grid must have %d rows, got %d", Size, len(grid))
	}
	var m Mask
	for r, row := range grid {
		if len(row) != Size {
			return 0, fmt.Errorf("board grid row %d must have %d cells, got %d", r, Size, len(row))
		}
		for c, v := range row {
			switch v {
			case 0:
			case 1:
				m = m.With(Cell{Row: r, Col: c})
			default:
				return 0, fmt.Errorf("board grid cell (%d,%d) must be 0 or 1, got %d", r, c, v)
			}
		}
	}
	return m, nil
}

// neighbours returns every cell 4-adjacent to a cell of m.
func neighbours(m Mask) Mask {
	right := (m << 1) &^ firstColMask
	left := (m >> 1) &^ lastColMask
	down := m << Size
	up := m >> Size
	return (right | left | down | up) & fullMask
}

// Connected reports whether the cells of m form a single 4-connected component.
// The empty mask counts as connected.
func Connected(m Mask) bool {
	m &= fullMask
	if m == 0 {
		return true
	}
	reached := m & -m
	for {
		next := (reached | neighbours(reached)) & m
		if next == reached {
			break
		}
		reached = next
	}
	return reached == m
}

// ManhattanDistance returns |dr| + |dc| between two cells.
func ManhattanDistance(a, b Cell) int {
	return abs(a.Row-b.Row) + abs(a.Col-b.Col)
}

// Center is the middle cell of the board.
var Center = Cell{Row: Size / 2, Col: Size / 2}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
