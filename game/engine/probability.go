package engine

// ActionProbability is the chance of finishing on a best-reward square when
// the action is taken now and every later choice is optimal.
type ActionProbability struct {
	Probability float64 `json:"probability"`
}

// Probabilities holds one entry per action. A nil entry means the action has
// no uses left.
type Probabilities struct {
	Action1    *ActionProbability `json:"action1"`
	Action2    *ActionProbability `json:"action2"`
	Action3    *ActionProbability `json:"action3"`
	BestReward int                `json:"best_reward"`
}

// For returns the entry of action a.
func (p Probabilities) For(a Action) *ActionProbability {
	switch a {
	case ActionStrike:
		return p.Action1
	case ActionRefine:
		return p.Action2
	case ActionStabilize:
		return p.Action3
	}
	return nil
}

// Best returns the highest probability among the available actions.
func (p Probabilities) Best() float64 {
	best := 0.0
	for _, ap := range []*ActionProbability{p.Action1, p.Action2, p.Action3} {
		if ap != nil && ap.Probability > best {
			best = ap.Probability
		}
	}
	return best
}

// SolveProbabilities runs the finite-horizon dynamic program over
// (turns left, position, refine uses, stabilize uses). Out-of-range inputs
// are clamped.
func SolveProbabilities(position, turns, u2, u3 int, track []int) Probabilities {
	position = clamp(position, 0, MaxPos)
	turns = clamp(turns, 0, MaxMovesCap)
	u2 = clamp(u2, 0, DefaultChoiceUses)
	u3 = clamp(u3, 0, DefaultChoiceUses)

	s := newSolver(track, turns, u2, u3)
	res := Probabilities{BestReward: s.best}

	if turns <= 0 {
		v := s.terminal(position)
		res.Action1 = &ActionProbability{Probability: v}
		if u2 > 0 {
			res.Action2 = &ActionProbability{Probability: v}
		}
		if u3 > 0 {
			res.Action3 = &ActionProbability{Probability: v}
		}
		return res
	}

	s.fill()
	res.Action1 = &ActionProbability{Probability: s.expect(ActionStrike, turns, position, u2, u3)}
	if u2 > 0 {
		res.Action2 = &ActionProbability{Probability: s.expect(ActionRefine, turns, position, u2, u3)}
	}
	if u3 > 0 {
		res.Action3 = &ActionProbability{Probability: s.expect(ActionStabilize, turns, position, u2, u3)}
	}
	return res
}

// solver owns the DP table for one call.
type solver struct {
	track  []int
	best   int
	turns  int
	u2, u3 int
	table  []float64 // indexed by idx(t, p, a, b)
}

func newSolver(track []int, turns, u2, u3 int) *solver {
	return &solver{
		track: track,
		best:  BestReward(track),
		turns: turns,
		u2:    u2,
		u3:    u3,
		table: make([]float64, (turns+1)*TrackLength*(u2+1)*(u3+1)),
	}
}

func (s *solver) idx(t, p, a, b int) int {
	return ((t*TrackLength+p)*(s.u2+1)+a)*(s.u3+1) + b
}

// terminal is 1 when the square holds the best reward.
func (s *solver) terminal(p int) float64 {
	p = clamp(p, 0, MaxPos)
	if p < len(s.track) && s.track[p] == s.best {
		return 1
	}
	return 0
}

// value looks up V(t, p, a, b); squares at or past MaxPos are absorbing.
func (s *solver) value(t, p, a, b int) float64 {
	if p >= MaxPos {
		return s.terminal(MaxPos)
	}
	return s.table[s.idx(t, p, a, b)]
}

// expect is the expected value of taking action at (t, p, a, b).
func (s *solver) expect(action Action, t, p, a, b int) float64 {
	spec, _ := action.Spec()
	switch action {
	case ActionRefine:
		a--
	case ActionStabilize:
		b--
	}
	sum := 0.0
	for d := spec.Min; d <= spec.Max; d++ {
		sum += s.value(t-1, clamp(p+d, 0, MaxPos), a, b)
	}
	return sum / float64(spec.Outcomes())
}

func (s *solver) fill() {
	for p := 0; p < TrackLength; p++ {
		for a := 0; a <= s.u2; a++ {
			for b := 0; b <= s.u3; b++ {
				s.table[s.idx(0, p, a, b)] = s.terminal(p)
			}
		}
	}
	for t := 1; t <= s.turns; t++ {
		for p := 0; p < TrackLength; p++ {
			for a := 0; a <= s.u2; a++ {
				for b := 0; b <= s.u3; b++ {
					if p >= MaxPos {
						s.table[s.idx(t, p, a, b)] = s.terminal(p)
						continue
					}
					v := s.expect(ActionStrike, t, p, a, b)
					if a > 0 {
						v = max(v, s.expect(ActionRefine, t, p, a, b))
					}
					if b > 0 {
						v = max(v, s.expect(ActionStabilize, t, p, a, b))
					}
					s.table[s.idx(t, p, a, b)] = v
				}
			}
		}
	}
}
