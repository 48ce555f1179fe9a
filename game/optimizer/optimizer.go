// Package optimizer searches for a high-scoring placement of pool pieces on the
// open cells of the altar board.
//
// The search is a heuristic: a greedy target set is placed by a backtracking
// search bounded by wall-clock and node budgets, then leftover cells are
// filled greedily. The result is the best placement found within the budget,
// not a proven optimum.
package optimizer

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/wricardo/minigame-solver/game/board"
	"github.com/wricardo/minigame-solver/game/piece"
	"github.com/wricardo/minigame-solver/game/scoring"
	"github.com/zyedidia/generic/mapset"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoOpenCells    = errors.New("no open cells")
	ErrNoUsablePieces = errors.New("no usable pieces")
)

// HeuristicNote accompanies every result.
const HeuristicNote = "best placement found within the search budget; not guaranteed optimal"

// Result is the outcome of Optimize.
type Result struct {
	Placements []piece.Placement `json:"placements"`
	Score      scoring.Result    `json:"score"`
	Strategy   *Strategy         `json:"strategy,omitempty"`
	Stats      Stats             `json:"stats"`
	Note       string            `json:"note"`
}

// Optimize places pieces from pool on the open cells for role.
//
// An empty open set returns ErrNoOpenCells and a pool without placeable
// pieces returns ErrNoUsablePieces; both come with an empty, zero-score
// result. Running out of time or nodes is not an error: the best placement
// found so far is returned and Stats.StopReason says which budget ended it.
func Optimize(ctx context.Context, open board.Mask, pool []piece.Piece, role piece.Role, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	eligible := eligibleAttributes(role, opts.RoleAttributes)

	empty := func(err error) (*Result, error) {
		return &Result{
			Placements: []piece.Placement{},
			Score:      scoring.ScoreAttributes(nil, eligible),
			Note:       err.Error(),
		}, err
	}
	if open.Count() == 0 {
		return empty(ErrNoOpenCells)
	}
	usable := lo.Filter(pool, func(p piece.Piece, _ int) bool { return p.Usable() })
	if len(usable) == 0 {
		return empty(ErrNoUsablePieces)
	}

	attrIndex := make(map[piece.Attribute]int, len(eligible))
	for i, a := range eligible {
		attrIndex[a] = i
	}
	var matching, nonMatching []*candidate
	for _, p := range usable {
		if p.IsUnique() {
			if p.Affinity == role || p.Affinity == piece.AnyRole {
				matching = append(matching, newCandidate(p, true, -1, open))
			}
			continue
		}
		if idx, ok := attrIndex[p.Attribute]; ok {
			matching = append(matching, newCandidate(p, true, idx, open))
		} else {
			nonMatching = append(nonMatching, newCandidate(p, false, -1, open))
		}
	}

	s := &search{
		ctx:       ctx,
		opts:      opts,
		start:     time.Now(),
		totalOpen: open.Count(),
		eligible:  eligible,
	}

	var (
		plan     []move
		strategy *Strategy
		phase1   int
	)
	g, gctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	g.Go(func() error {
		defer close(done)
		plan, strategy, phase1 = s.run(matching, nonMatching)
		return nil
	})
	if opts.ProgressInterval > 0 && opts.Observer != nil {
		g.Go(func() error {
			ticker := time.NewTicker(opts.ProgressInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					s.emit(Event{Kind: EventProgress})
				}
			}
		})
	}
	_ = g.Wait()

	placements := make([]piece.Placement, 0, len(plan))
	for _, m := range plan {
		placements = append(placements, piece.Placement{
			Piece:  m.c.piece,
			Anchor: m.a.cell,
			Cells:  m.a.mask.Cells(),
		})
	}
	res := &Result{
		Placements: placements,
		Score:      scoring.ScoreAttributes(placements, eligible),
		Strategy:   strategy,
		Stats: Stats{
			Nodes:       s.nodes.Load(),
			Elapsed:     time.Since(s.start),
			TargetCount: len(strategy.targets),
			Phase1Score: phase1,
			Exhausted:   s.stop == StopExhausted,
			StopReason:  s.stop,
		},
		Note: HeuristicNote,
	}
	s.best.Store(int64(res.Score.TotalScore))
	s.emit(Event{Kind: EventFinished, StopReason: s.stop})
	return res, nil
}

// run executes every phase and returns the final plan, the strategy and the
// score reached by the bounded search alone.
func (s *search) run(matching, nonMatching []*candidate) ([]move, *Strategy, int) {
	s.enterPhase(PhaseStrategy)
	st := buildStrategy(matching, s.totalOpen, s.eligible)
	s.targets = make(map[int]int, len(st.AttributeTargets))
	for i, a := range s.eligible {
		if t, ok := st.AttributeTargets[a]; ok {
			s.targets[i] = t
		}
	}

	s.enterPhase(PhaseSearch)
	s.backtrack(st.targets, 0, frame{})
	if s.stop == "" {
		s.stop = StopExhausted
	}
	phase1 := int(s.best.Load())

	s.enterPhase(PhaseExtend)
	plan := s.extend(s.bestPlan, nonMatching)

	s.enterPhase(PhaseFill)
	plan = s.fill(plan, matching, nonMatching)
	return plan, st, phase1
}

func occupied(plan []move) board.Mask {
	var used board.Mask
	for _, m := range plan {
		used |= m.a.mask
	}
	return used
}

// extend adds non-matching pieces, rarest and largest first, at their first
// free anchor in scan order.
func (s *search) extend(plan []move, nonMatching []*candidate) []move {
	used := occupied(plan)
	if used.Count() >= s.totalOpen || len(nonMatching) == 0 {
		return plan
	}
	pool := append([]*candidate(nil), nonMatching...)
	byRarityThenSize(pool)
	out := append([]move(nil), plan...)
	for _, c := range pool {
		if used.Count()+c.piece.Size > s.totalOpen {
			continue
		}
		if a, ok := c.firstFree(used); ok {
			out = append(out, move{c: c, a: a})
			used |= a.mask
		}
	}
	return out
}

// fill places any unused piece that still fits, preferring pieces no larger
// than the free cell count, then matching pieces, then rarity, then smaller size.
func (s *search) fill(plan []move, matching, nonMatching []*candidate) []move {
	used := occupied(plan)
	remaining := s.totalOpen - used.Count()
	if remaining <= 0 {
		return plan
	}
	placed := mapset.New[string]()
	uniques := 0
	for _, m := range plan {
		placed.Put(m.c.piece.ID)
		if m.c.piece.IsUnique() {
			uniques++
		}
	}
	unused := lo.Filter(append(append([]*candidate(nil), matching...), nonMatching...), func(c *candidate, _ int) bool {
		return !placed.Has(c.piece.ID)
	})
	sort.SliceStable(unused, func(i, j int) bool {
		a, b := unused[i], unused[j]
		aFits, bFits := a.piece.Size <= remaining, b.piece.Size <= remaining
		if aFits != bFits {
			return aFits
		}
		if a.matching != b.matching {
			return a.matching
		}
		if a.piece.Rarity.Rank() != b.piece.Rarity.Rank() {
			return a.piece.Rarity.Rank() > b.piece.Rarity.Rank()
		}
		return a.piece.Size < b.piece.Size
	})

	out := append([]move(nil), plan...)
	for _, c := range unused {
		if c.piece.IsUnique() && uniques >= 1 {
			continue
		}
		a, ok := c.firstFree(used)
		if !ok {
			continue
		}
		out = append(out, move{c: c, a: a})
		used |= a.mask
		placed.Put(c.piece.ID)
		if c.piece.IsUnique() {
			uniques++
		}
	}
	return out
}

func eligibleAttributes(role piece.Role, override []piece.Attribute) []piece.Attribute {
	if len(override) == 0 {
		return role.Attributes()
	}
	attrs := lo.Uniq(lo.Filter(override, func(a piece.Attribute, _ int) bool { return a.Valid() }))
	if len(attrs) > maxEligible {
		attrs = attrs[:maxEligible]
	}
	return attrs
}
