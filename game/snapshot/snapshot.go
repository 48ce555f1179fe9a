// Package snapshot imports saved workspaces: the browser storage export
// ({"puzzleBoard": ..., "puzzlePieces": ...}) and the native puzzle snapshot.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/zyedidia/generic/mapset"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/puzzle"
)

var (
	ErrInvalidJSON  = errors.New("snapshot is not valid JSON")
	ErrUnrecognized = errors.New("snapshot has neither puzzleBoard/puzzlePieces nor board/pieces")
)

// Skipped describes a stored piece that could not be imported.
type Skipped struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Report summarizes an import.
type Report struct {
	Format   string    `json:"format"`
	Imported int       `json:"imported"`
	Skipped  []Skipped `json:"skipped,omitempty"`
}

const (
	FormatBrowser = "browser"
	FormatNative  = "native"
)

// Import parses data in either supported format. A missing board leaves
// Snapshot.Board nil so the caller can keep its current one.
func Import(data []byte) (puzzle.Snapshot, Report, error) {
	if !gjson.ValidBytes(data) {
		return puzzle.Snapshot{}, Report{}, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)

	if root.Get("puzzleBoard").Exists() || root.Get("puzzlePieces").Exists() {
		return importBrowser(root)
	}
	if root.Get("board").Exists() || root.Get("pieces").Exists() {
		var snap puzzle.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return puzzle.Snapshot{}, Report{}, fmt.Errorf("decode native snapshot: %w", err)
		}
		return snap, Report{Format: FormatNative, Imported: len(snap.Pieces)}, nil
	}
	return puzzle.Snapshot{}, Report{}, ErrUnrecognized
}

// unwrap returns the JSON value stored under key; browser storage keeps
// values as strings, hand-edited exports often inline them.
func unwrap(root gjson.Result, key string) (gjson.Result, error) {
	v := root.Get(key)
	if v.Type != gjson.String {
		return v, nil
	}
	if !gjson.Valid(v.Str) {
		return gjson.Result{}, fmt.Errorf("%s: %w", key, ErrInvalidJSON)
	}
	return gjson.Parse(v.Str), nil
}

func importBrowser(root gjson.Result) (puzzle.Snapshot, Report, error) {
	snap := puzzle.Snapshot{Pieces: []piece.Piece{}}
	report := Report{Format: FormatBrowser}

	b, err := unwrap(root, "puzzleBoard")
	if err != nil {
		return snap, report, err
	}
	if b.Exists() && b.Type != gjson.Null {
		grid, err := parseGrid(b)
		if err != nil {
			return snap, report, err
		}
		snap.Board = grid
	}

	if job := root.Get("role"); job.Exists() {
		role, err := piece.ParseRole(job.String())
		if err != nil {
			return snap, report, err
		}
		snap.Role = role
	}

	pieces, err := unwrap(root, "puzzlePieces")
	if err != nil {
		return snap, report, err
	}
	// Stored ids survive a re-import; a repeated id gets a fresh one since
	// the pool is keyed by id.
	ids := mapset.New[string]()
	for i, item := range pieces.Array() {
		id := item.Get("id").String()
		p, reason := parsePiece(item)
		if reason != "" {
			report.Skipped = append(report.Skipped, Skipped{Index: i, ID: id, Reason: reason})
			continue
		}
		if id != "" && !ids.Has(id) {
			p.ID = id
		}
		ids.Put(p.ID)
		snap.Pieces = append(snap.Pieces, p)
	}
	report.Imported = len(snap.Pieces)
	return snap, report, nil
}

func parseGrid(v gjson.Result) ([][]int, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("puzzleBoard: expected a %dx%d array", board.Size, board.Size)
	}
	var grid [][]int
	for _, row := range v.Array() {
		var cells []int
		for _, c := range row.Array() {
			cells = append(cells, int(c.Int()))
		}
		grid = append(grid, cells)
	}
	if _, err := board.FromGrid(grid); err != nil {
		return nil, fmt.Errorf("puzzleBoard: %w", err)
	}
	return grid, nil
}

// parsePiece maps a stored piece onto the catalog. A non-empty reason means
// the piece is skipped.
func parsePiece(item gjson.Result) (piece.Piece, string) {
	var offsets []piece.Offset
	item.Get("shapeCoords").ForEach(func(_, pair gjson.Result) bool {
		rc := pair.Array()
		if len(rc) == 2 {
			offsets = append(offsets, piece.Offset{Row: int(rc[0].Int()), Col: int(rc[1].Int())})
		}
		return true
	})
	if len(offsets) == 0 {
		return piece.Piece{}, "no coordinates"
	}

	if len(offsets) == piece.UniqueSize {
		// Several size-8 shapes share a footprint; the stored role tag picks one.
		affinity, _ := piece.ParseAffinity(item.Get("attribute").String())
		shape, ok := matchUnique(offsets, affinity)
		if !ok {
			return piece.Piece{}, "shape not in catalog"
		}
		p, err := piece.New(shape.Name, piece.Unique, "")
		if err != nil {
			return piece.Piece{}, err.Error()
		}
		return p, ""
	}

	shape, ok := piece.MatchShape(offsets)
	if !ok {
		return piece.Piece{}, "shape not in catalog"
	}

	rarity, err := piece.ParseRarity(item.Get("rarity").String())
	if err != nil {
		return piece.Piece{}, err.Error()
	}
	attr, err := piece.ParseAttribute(item.Get("attribute").String())
	if err != nil {
		return piece.Piece{}, err.Error()
	}
	p, err := piece.New(shape.Name, rarity, attr)
	if err != nil {
		return piece.Piece{}, err.Error()
	}
	return p, ""
}

func matchUnique(offsets []piece.Offset, affinity piece.Role) (piece.Shape, bool) {
	norm := piece.NormalizeOffsets(offsets)
	var (
		fallback piece.Shape
		found    bool
	)
	for _, s := range piece.ShapesOfSize(piece.UniqueSize) {
		if !slices.Equal(s.Offsets, norm) {
			continue
		}
		if s.Affinity == affinity {
			return s, true
		}
		if !found {
			fallback, found = s, true
		}
	}
	return fallback, found
}
