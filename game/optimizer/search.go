package optimizer

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
)

// budgetCheckEvery is how many nodes pass between clock and context checks.
const budgetCheckEvery = 64

type anchor struct {
	cell board.Cell
	mask board.Mask
}

type candidate struct {
	piece    piece.Piece
	matching bool
	attr     int // index into the eligible attribute list, -1 if none

	scan    []anchor // legal on the empty board, row-major
	central []anchor // scan sorted by distance to the board center
}

// newCandidate collects every anchor whose footprint lies inside open. The
// anchor is the shape's bounding-box origin, which need not be a covered
// cell, so all board cells are tried.
func newCandidate(p piece.Piece, matching bool, attr int, open board.Mask) *candidate {
	c := &candidate{piece: p, matching: matching, attr: attr}
	for row := 0; row < board.Size; row++ {
		for col := 0; col < board.Size; col++ {
			cell := board.Cell{Row: row, Col: col}
			m, ok := p.MaskAt(cell)
			if !ok || m&^open != 0 {
				continue
			}
			c.scan = append(c.scan, anchor{cell: cell, mask: m})
		}
	}
	c.central = append([]anchor(nil), c.scan...)
	sort.SliceStable(c.central, func(i, j int) bool {
		return board.ManhattanDistance(c.central[i].cell, board.Center) <
			board.ManhattanDistance(c.central[j].cell, board.Center)
	})
	return c
}

// firstFree returns the first scan-order anchor not overlapping used.
func (c *candidate) firstFree(used board.Mask) (anchor, bool) {
	for _, a := range c.scan {
		if a.mask&used == 0 {
			return a, true
		}
	}
	return anchor{}, false
}

type move struct {
	c *candidate
	a anchor
}

// maxEligible bounds the number of bonus-eligible attributes.
const maxEligible = 7

// counts tracks placed cells per eligible attribute.
type counts [maxEligible]int

type frame struct {
	used    board.Mask
	plan    []move
	counts  counts
	base    int
	uniques int
}

func (f *frame) with(c *candidate, a anchor) frame {
	next := frame{
		used:    f.used | a.mask,
		plan:    append(append(make([]move, 0, len(f.plan)+1), f.plan...), move{c: c, a: a}),
		counts:  f.counts,
		base:    f.base + c.piece.Value(),
		uniques: f.uniques,
	}
	if c.piece.IsUnique() {
		next.uniques++
	} else if c.attr >= 0 {
		next.counts[c.attr] += c.piece.Size
	}
	return next
}

// search is the state of one bounded backtracking run.
type search struct {
	ctx       context.Context
	opts      Options
	start     time.Time
	totalOpen int
	eligible  []piece.Attribute
	targets   map[int]int

	nodes atomic.Int64
	best  atomic.Int64
	stop  StopReason

	bestPlan []move

	emitMu sync.Mutex
	phase  Phase // guarded by emitMu
}

func (s *search) bonus(c counts) int {
	total := 0
	for i := range s.eligible {
		total += scoring.BonusFor(c[i])
	}
	return total
}

func (s *search) score(f *frame) int {
	return f.base + s.bonus(f.counts)
}

func (s *search) emit(e Event) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if e.Phase == "" {
		e.Phase = s.phase
	}
	if s.opts.Observer == nil {
		return
	}
	e.Nodes = s.nodes.Load()
	e.Elapsed = time.Since(s.start)
	e.BestScore = int(s.best.Load())
	s.opts.Observer.OnEvent(e)
}

func (s *search) enterPhase(p Phase) {
	s.emitMu.Lock()
	s.phase = p
	s.emitMu.Unlock()
	s.emit(Event{Kind: EventPhase, Phase: p})
}

// halted reports whether a budget has run out, recording the first reason.
func (s *search) halted() bool {
	if s.stop != "" {
		return true
	}
	n := s.nodes.Load()
	if n > s.opts.NodeLimit {
		s.stop = StopNodeLimit
		return true
	}
	if n%budgetCheckEvery == 0 {
		if time.Since(s.start) > s.opts.TimeLimit {
			s.stop = StopTimeLimit
			return true
		}
		if s.ctx.Err() != nil {
			s.stop = StopCanceled
			return true
		}
	}
	return false
}

// upperBound estimates the best reachable score from f by greedily adding the
// remaining pieces that fit the remaining cells and projecting their bonus.
func (s *search) upperBound(rest []*candidate, f *frame) int {
	remaining := s.totalOpen - f.used.Count()
	est := f.counts
	base := f.base
	cells, uniques := 0, f.uniques
	for _, c := range rest {
		if c.piece.IsUnique() && uniques >= 1 {
			continue
		}
		if cells+c.piece.Size > remaining {
			continue
		}
		cells += c.piece.Size
		base += c.piece.Value()
		if c.piece.IsUnique() {
			uniques++
		} else if c.attr >= 0 {
			est[c.attr] += c.piece.Size
		}
	}
	return base + s.bonus(est)
}

// width is the number of nearest anchors tried for c.
func (s *search) width(c *candidate, f *frame) int {
	switch {
	case c.piece.IsUnique():
		return 8
	case c.attr >= 0:
		next := f.counts[c.attr] + c.piece.Size
		for _, t := range scoring.Thresholds {
			if abs(next-t) <= 3 {
				return 10
			}
		}
		return 7
	}
	return 5
}

func (s *search) record(f *frame) {
	score := s.score(f)
	if int64(score) <= s.best.Load() {
		return
	}
	s.best.Store(int64(score))
	s.bestPlan = append([]move(nil), f.plan...)
	s.emit(Event{Kind: EventBest})
}

func (s *search) backtrack(order []*candidate, i int, f frame) {
	s.nodes.Add(1)
	if s.halted() {
		return
	}

	bound := s.upperBound(order[i:], &f)
	if float64(bound) < float64(s.best.Load())*PruneFactor {
		return
	}
	s.record(&f)

	if i >= len(order) || f.used.Count() >= s.totalOpen {
		return
	}

	c := order[i]
	if c.piece.IsUnique() && f.uniques >= 1 {
		s.backtrack(order, i+1, f)
		return
	}
	if c.attr >= 0 {
		if target, ok := s.targets[c.attr]; ok && f.counts[c.attr] >= target {
			s.backtrack(order, i+1, f)
			return
		}
	}

	var free []anchor
	limit := s.width(c, &f)
	for _, a := range c.central {
		if a.mask&f.used == 0 {
			free = append(free, a)
			if len(free) == limit {
				break
			}
		}
	}
	if len(free) == 0 {
		s.backtrack(order, i+1, f)
		return
	}

	for _, a := range free {
		if s.halted() {
			return
		}
		s.backtrack(order, i+1, f.with(c, a))
	}

	skippable := !c.matching || (c.piece.Rarity == piece.Rare && len(f.plan) > 0)
	if !c.piece.IsUnique() && skippable {
		s.backtrack(order, i+1, f)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
