// Package piece defines altar pieces: their shapes, rarities, attributes and
// the role affinities used to score them.
package piece

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownShape     = errors.New("unknown shape")
	ErrIllegalRarity    = errors.New("rarity not allowed for piece size")
	ErrUnknownAttribute = errors.New("unknown attribute")
	ErrUnknownRole      = errors.New("unknown role")
	ErrInvalidPiece     = errors.New("invalid piece")
)

// Rarity is a piece grade.
type Rarity string

const (
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	SuperEpic Rarity = "super_epic"
	Unique    Rarity = "unique"
)

// Rarities lists the grades from lowest to highest.
var Rarities = []Rarity{Rare, Epic, SuperEpic, Unique}

var rarityValues = map[Rarity]int{
	Rare:      30,
	Epic:      60,
	SuperEpic: 120,
	Unique:    250,
}

// UnitValue is the score a single cell of this rarity is worth.
func (r Rarity) UnitValue() int { return rarityValues[r] }

// Valid reports whether r is a known rarity.
func (r Rarity) Valid() bool {
	_, ok := rarityValues[r]
	return ok
}

// Rank orders rarities; higher is rarer. Unknown rarities rank -1.
func (r Rarity) Rank() int {
	for i, v := range Rarities {
		if v == r {
			return i
		}
	}
	return -1
}

// High reports whether the rarity counts as high grade (SuperEpic or Unique).
func (r Rarity) High() bool { return r == SuperEpic || r == Unique }

// RaritiesForSize returns the grades a piece of the given size may carry.
func RaritiesForSize(size int) []Rarity {
	switch size {
	case 1, 2, 3:
		return []Rarity{Rare, Epic, SuperEpic}
	case 4:
		return []Rarity{Epic, SuperEpic}
	case 5:
		return []Rarity{SuperEpic}
	case UniqueSize:
		return []Rarity{Unique}
	}
	return nil
}

// RarityAllowed reports whether a piece of the given size may carry rarity r.
func RarityAllowed(size int, r Rarity) bool {
	for _, v := range RaritiesForSize(size) {
		if v == r {
			return true
		}
	}
	return false
}

// ParseRarity accepts the canonical identifiers as well as a few spellings
// seen in exported workspaces.
func ParseRarity(s string) (Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rare", "레어":
		return Rare, nil
	case "epic", "에픽":
		return Epic, nil
	case "super_epic", "superepic", "super-epic", "슈퍼에픽":
		return SuperEpic, nil
	case "unique", "유니크":
		return Unique, nil
	}
	return "", fmt.Errorf("%w: %q", ErrIllegalRarity, s)
}

// Attribute is the effect family a standard piece belongs to.
type Attribute string

const (
	Radiance Attribute = "radiance"
	Pierce   Attribute = "pierce"
	Element  Attribute = "element"
	Shatter  Attribute = "shatter"
	Blessing Attribute = "blessing"
	Brand    Attribute = "brand"
	Regen    Attribute = "regen"
)

// Attributes lists every attribute.
var Attributes = []Attribute{Radiance, Pierce, Element, Shatter, Blessing, Brand, Regen}

// Valid reports whether a is a known attribute.
func (a Attribute) Valid() bool {
	for _, v := range Attributes {
		if v == a {
			return true
		}
	}
	return false
}

// ParseAttribute accepts canonical identifiers and the localized labels.
func ParseAttribute(s string) (Attribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "radiance", "광휘":
		return Radiance, nil
	case "pierce", "관통":
		return Pierce, nil
	case "element", "원소":
		return Element, nil
	case "shatter", "파쇄":
		return Shatter, nil
	case "blessing", "축복":
		return Blessing, nil
	case "brand", "낙인":
		return Brand, nil
	case "regen", "재생":
		return Regen, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
}

// Role is the player's combat role.
type Role string

const (
	Dealer    Role = "dealer"
	Striker   Role = "striker"
	Supporter Role = "supporter"
	// AnyRole marks size-8 pieces that match every role.
	AnyRole Role = "any"
)

// Roles lists the selectable roles.
var Roles = []Role{Dealer, Striker, Supporter}

var roleAttributes = map[Role][]Attribute{
	Dealer:    {Radiance, Pierce},
	Striker:   {Element, Shatter},
	Supporter: {Blessing, Brand, Regen},
}

// Attributes returns the attributes that earn bonuses for the role.
func (r Role) Attributes() []Attribute {
	return append([]Attribute(nil), roleAttributes[r]...)
}

// Has reports whether attribute a belongs to the role.
func (r Role) Has(a Attribute) bool {
	for _, v := range roleAttributes[r] {
		if v == a {
			return true
		}
	}
	return false
}

// Valid reports whether r is a selectable role.
func (r Role) Valid() bool {
	_, ok := roleAttributes[r]
	return ok
}

// ParseRole accepts canonical identifiers and the localized labels.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dealer", "딜러":
		return Dealer, nil
	case "striker", "스트라이커":
		return Striker, nil
	case "supporter", "서포터":
		return Supporter, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ParseAffinity parses the role tag carried by a size-8 piece.
func ParseAffinity(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "any", "all", "전 역할군", "전역할군":
		return AnyRole, nil
	}
	return ParseRole(s)
}
