package piece

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/wricardo/minigame-solver/game/board"
)

// Piece is an immutable entry in the player's pool.
type Piece struct {
	ID        string    `json:"id"`
	Shape     string    `json:"shape"`
	Size      int       `json:"size"`
	Rarity    Rarity    `json:"rarity"`
	Attribute Attribute `json:"attribute,omitempty"`
	Affinity  Role      `json:"affinity,omitempty"`
	Offsets   []Offset  `json:"offsets"`
}

// New creates a piece from a catalog shape. Unique pieces always carry the
// Unique rarity and the shape's affinity; attr is ignored for them.
func New(shapeName string, rarity Rarity, attr Attribute) (Piece, error) {
	shape, err := LookupShape(shapeName)
	if err != nil {
		return Piece{}, err
	}
	p := Piece{
		ID:      uuid.NewString(),
		Shape:   shape.Name,
		Size:    shape.Size,
		Rarity:  rarity,
		Offsets: append([]Offset(nil), shape.Offsets...),
	}
	if shape.Size == UniqueSize {
		p.Rarity = Unique
		p.Affinity = shape.Affinity
	} else {
		p.Attribute = attr
	}
	if err := p.Validate(); err != nil {
		return Piece{}, err
	}
	return p, nil
}

// Validate checks the rarity, attribute and affinity rules for the piece's
// size. The offsets must be the named catalog shape's, in any order.
func (p Piece) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidPiece)
	}
	shape, err := LookupShape(p.Shape)
	if err != nil {
		return err
	}
	if p.Size != shape.Size {
		return fmt.Errorf("%w: %s is a %s but size %d", ErrInvalidPiece, p.ID, shape.Name, p.Size)
	}
	if !slices.Equal(sortOffsets(p.Offsets), shape.Offsets) {
		return fmt.Errorf("%w: %s offsets do not form a %s", ErrInvalidPiece, p.ID, shape.Name)
	}
	if !RarityAllowed(p.Size, p.Rarity) {
		return fmt.Errorf("%w: %s on size %d", ErrIllegalRarity, p.Rarity, p.Size)
	}
	if p.IsUnique() {
		if p.Affinity != AnyRole && !p.Affinity.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownRole, p.Affinity)
		}
		return nil
	}
	if !p.Attribute.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, p.Attribute)
	}
	return nil
}

// sortOffsets returns a row-major sorted copy.
func sortOffsets(in []Offset) []Offset {
	out := slices.Clone(in)
	slices.SortFunc(out, func(a, b Offset) int {
		return cmp.Or(cmp.Compare(a.Row, b.Row), cmp.Compare(a.Col, b.Col))
	})
	return out
}

// IsUnique reports whether this is a size-8 piece.
func (p Piece) IsUnique() bool { return p.Size == UniqueSize }

// Usable reports whether the piece has coordinates to place.
func (p Piece) Usable() bool { return len(p.Offsets) > 0 }

// Value is the base score of the piece.
func (p Piece) Value() int { return p.Rarity.UnitValue() * p.Size }

// Matches reports whether the piece contributes to the given role: a standard
// piece with one of the role's attributes, or a unique with the role's or the
// any-role affinity.
func (p Piece) Matches(role Role) bool {
	if p.IsUnique() {
		return p.Affinity == role || p.Affinity == AnyRole
	}
	return role.Has(p.Attribute)
}

// CellsAt returns the board cells covered when the shape's origin sits on
// anchor, or false when any cell falls off the board.
func (p Piece) CellsAt(anchor board.Cell) ([]board.Cell, bool) {
	cells := make([]board.Cell, 0, len(p.Offsets))
	for _, o := range p.Offsets {
		c := board.Cell{Row: anchor.Row + o.Row, Col: anchor.Col + o.Col}
		if !c.InBounds() {
			return nil, false
		}
		cells = append(cells, c)
	}
	return cells, true
}

// MaskAt is CellsAt as a board mask.
func (p Piece) MaskAt(anchor board.Cell) (board.Mask, bool) {
	cells, ok := p.CellsAt(anchor)
	if !ok {
		return 0, false
	}
	return board.MaskOf(cells...), true
}

// Placement is a piece fixed to the board.
type Placement struct {
	Piece  Piece        `json:"piece"`
	Anchor board.Cell   `json:"anchor"`
	Cells  []board.Cell `json:"cells"`
}

// Place positions the piece at anchor if every covered cell is in open.
func Place(p Piece, anchor board.Cell, open board.Mask) (Placement, bool) {
	cells, ok := p.CellsAt(anchor)
	if !ok {
		return Placement{}, false
	}
	for _, c := range cells {
		if !open.Has(c) {
			return Placement{}, false
		}
	}
	return Placement{Piece: p, Anchor: anchor, Cells: cells}, true
}
