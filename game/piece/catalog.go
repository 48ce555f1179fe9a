package piece

import (
	"fmt"
	"sort"
)

const (
	// MaxStandardSize is the largest non-unique piece.
	MaxStandardSize = 5
	// UniqueSize is the cell count of every unique piece.
	UniqueSize = 8
)

// Offset is a cell position relative to a shape's top-left bounding corner.
type Offset struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Shape is a named polyomino.
type Shape struct {
	Name     string   `json:"name"`
	Size     int      `json:"size"`
	Affinity Role     `json:"affinity,omitempty"`
	Offsets  []Offset `json:"offsets"`
}

// Grid renders the shape back to a 0/1 matrix.
func (s Shape) Grid() [][]int {
	rows, cols := 0, 0
	for _, o := range s.Offsets {
		rows = max(rows, o.Row+1)
		cols = max(cols, o.Col+1)
	}
	grid := make([][]int, rows)
	for r := range grid {
		grid[r] = make([]int, cols)
	}
	for _, o := range s.Offsets {
		grid[o.Row][o.Col] = 1
	}
	return grid
}

// Normalize converts a 0/1 grid into offsets translated so the minimum row
// and minimum column are zero. Offsets come out in row-major order.
func Normalize(grid [][]int) []Offset {
	var cells []Offset
	minRow, minCol := -1, -1
	for r, row := range grid {
		for c, v := range row {
			if v != 1 {
				continue
			}
			cells = append(cells, Offset{Row: r, Col: c})
			if minRow < 0 || r < minRow {
				minRow = r
			}
			if minCol < 0 || c < minCol {
				minCol = c
			}
		}
	}
	for i := range cells {
		cells[i].Row -= minRow
		cells[i].Col -= minCol
	}
	return cells
}

// NormalizeOffsets translates arbitrary offsets to the origin and sorts them row-major.
func NormalizeOffsets(in []Offset) []Offset {
	if len(in) == 0 {
		return nil
	}
	out := append([]Offset(nil), in...)
	minRow, minCol := out[0].Row, out[0].Col
	for _, o := range out[1:] {
		minRow = min(minRow, o.Row)
		minCol = min(minCol, o.Col)
	}
	for i := range out {
		out[i].Row -= minRow
		out[i].Col -= minCol
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

type shapeDef struct {
	name     string
	affinity Role
	grid     [][]int
}

var shapeDefs = []shapeDef{
	{name: "1", grid: [][]int{{1}}},

	{name: "2-vertical", grid: [][]int{{1}, {1}}},
	{name: "2-horizontal", grid: [][]int{{1, 1}}},

	{name: "3-horizontal", grid: [][]int{{1, 1, 1}}},
	{name: "3-vertical", grid: [][]int{{1}, {1}, {1}}},
	{name: "3-corner-1", grid: [][]int{{1, 1}, {1, 0}}},
	{name: "3-corner-2", grid: [][]int{{1, 1}, {0, 1}}},
	{name: "3-corner-3", grid: [][]int{{0, 1}, {1, 1}}},
	{name: "3-corner-4", grid: [][]int{{1, 0}, {1, 1}}},

	{name: "4-horizontal", grid: [][]int{{1, 1, 1, 1}}},
	{name: "4-vertical", grid: [][]int{{1}, {1}, {1}, {1}}},
	{name: "4-square", grid: [][]int{{1, 1}, {1, 1}}},
	{name: "4-t-up", grid: [][]int{{1, 1, 1}, {0, 1, 0}}},
	{name: "4-t-down", grid: [][]int{{0, 1, 0}, {1, 1, 1}}},
	{name: "4-t-left", grid: [][]int{{1, 0}, {1, 1}, {1, 0}}},
	{name: "4-t-right", grid: [][]int{{0, 1}, {1, 1}, {0, 1}}},
	{name: "4-l-1", grid: [][]int{{1, 0, 0}, {1, 1, 1}}},
	{name: "4-l-2", grid: [][]int{{0, 0, 1}, {1, 1, 1}}},
	{name: "4-l-3", grid: [][]int{{1, 1, 1}, {1, 0, 0}}},
	{name: "4-l-4", grid: [][]int{{1, 1, 1}, {0, 0, 1}}},
	{name: "4-z-1", grid: [][]int{{1, 1}, {1, 0}, {1, 0}}},
	{name: "4-z-2", grid: [][]int{{1, 1}, {0, 1}, {0, 1}}},
	{name: "4-z-3", grid: [][]int{{1, 0}, {1, 0}, {1, 1}}},
	{name: "4-z-4", grid: [][]int{{0, 1}, {0, 1}, {1, 1}}},

	{name: "5-plus", grid: [][]int{{0, 1, 0}, {1, 1, 1}, {0, 1, 0}}},
	{name: "5-l-1", grid: [][]int{{0, 1, 1}, {0, 1, 0}, {1, 1, 0}}},
	{name: "5-l-2", grid: [][]int{{1, 0, 0}, {1, 1, 1}, {0, 0, 1}}},
	{name: "5-l-3", grid: [][]int{{1, 1, 0}, {0, 1, 0}, {0, 1, 1}}},
	{name: "5-l-4", grid: [][]int{{0, 0, 1}, {1, 1, 1}, {1, 0, 0}}},
	{name: "5-t-1", grid: [][]int{{1, 1, 1}, {0, 1, 0}, {0, 1, 0}}},
	{name: "5-t-2", grid: [][]int{{0, 0, 1}, {1, 1, 1}, {0, 0, 1}}},
	{name: "5-t-3", grid: [][]int{{0, 1, 0}, {0, 1, 0}, {1, 1, 1}}},
	{name: "5-t-4", grid: [][]int{{1, 0, 0}, {1, 1, 1}, {1, 0, 0}}},
	{name: "5-z-1", grid: [][]int{{1, 1, 1}, {0, 0, 1}, {0, 0, 1}}},
	{name: "5-z-2", grid: [][]int{{0, 0, 1}, {0, 0, 1}, {1, 1, 1}}},
	{name: "5-z-3", grid: [][]int{{1, 0, 0}, {1, 0, 0}, {1, 1, 1}}},
	{name: "5-z-4", grid: [][]int{{1, 1, 1}, {1, 0, 0}, {1, 0, 0}}},
	{name: "5-u-1", grid: [][]int{{1, 0, 1}, {1, 1, 1}}},
	{name: "5-u-2", grid: [][]int{{1, 1}, {1, 0}, {1, 1}}},
	{name: "5-u-3", grid: [][]int{{1, 1, 1}, {1, 0, 1}}},
	{name: "5-u-4", grid: [][]int{{1, 1}, {0, 1}, {1, 1}}},

	{name: "8-dealer-1", affinity: Dealer, grid: [][]int{{1, 0}, {1, 1}, {1, 1}, {1, 1}, {0, 1}}},
	{name: "8-dealer-2", affinity: Dealer, grid: [][]int{{0, 1, 1, 0}, {0, 1, 1, 0}, {1, 1, 1, 1}}},
	{name: "8-dealer-3", affinity: Dealer, grid: [][]int{{1, 1, 1, 1}, {1, 1, 1, 1}}},
	{name: "8-striker-1", affinity: Striker, grid: [][]int{{0, 1, 0}, {1, 1, 1}, {1, 1, 1}, {0, 1, 0}}},
	{name: "8-striker-2", affinity: Striker, grid: [][]int{{1, 1, 1, 1}, {0, 1, 1, 0}, {0, 1, 1, 0}}},
	{name: "8-supporter-1", affinity: Supporter, grid: [][]int{{0, 1, 1, 0}, {1, 1, 1, 1}, {0, 1, 1, 0}}},
	{name: "8-supporter-2", affinity: Supporter, grid: [][]int{{0, 1, 1, 1, 1}, {1, 1, 1, 1, 0}}},
	{name: "8-any-1", affinity: AnyRole, grid: [][]int{{1, 1, 1, 1}, {1, 1, 1, 1}}},
	{name: "8-any-2", affinity: AnyRole, grid: [][]int{{1, 1}, {1, 1}, {1, 1}, {1, 1}}},
}

var (
	catalog     []Shape
	catalogByID = map[string]Shape{}
)

func init() {
	for _, def := range shapeDefs {
		offsets := Normalize(def.grid)
		s := Shape{Name: def.name, Size: len(offsets), Affinity: def.affinity, Offsets: offsets}
		if (s.Size == UniqueSize) != (def.affinity != "") {
			panic(fmt.Sprintf("piece: shape %s has inconsistent affinity", def.name))
		}
		catalog = append(catalog, s)
		catalogByID[s.Name] = s
	}
}

// Shapes returns every catalog shape in definition order.
func Shapes() []Shape {
	return append([]Shape(nil), catalog...)
}

// ShapesOfSize returns the catalog shapes with the given cell count.
func ShapesOfSize(size int) []Shape {
	var out []Shape
	for _, s := range catalog {
		if s.Size == size {
			out = append(out, s)
		}
	}
	return out
}

// ShapesForRole returns the shapes a player of the given role can add. Size-8
// shapes are limited to the role's own and the any-role set.
func ShapesForRole(role Role) []Shape {
	var out []Shape
	for _, s := range catalog {
		if s.Size == UniqueSize && s.Affinity != role && s.Affinity != AnyRole {
			continue
		}
		out = append(out, s)
	}
	return out
}

// LookupShape finds a shape by name.
func LookupShape(name string) (Shape, error) {
	s, ok := catalogByID[name]
	if !ok {
		return Shape{}, fmt.Errorf("%w: %q", ErrUnknownShape, name)
	}
	return s, nil
}

// MatchShape finds the catalog shape with exactly the given offsets.
func MatchShape(offsets []Offset) (Shape, bool) {
	norm := NormalizeOffsets(offsets)
	for _, s := range catalog {
		if len(s.Offsets) != len(norm) {
			continue
		}
		same := true
		for i := range norm {
			if s.Offsets[i] != norm[i] {
				same = false
				break
			}
		}
		if same {
			return s, true
		}
	}
	return Shape{}, false
}
