package engine

import "fmt"

// Disabled reasons reported by AdviseActions.
const (
	ReasonGameOver      = "game is over"
	ReasonNoMovesLeft   = "no moves remaining"
	reasonNoUsesPattern = "action %d has no uses left"
)

// Unlimited marks the remaining uses of the unlimited action.
const Unlimited = -1

// ActionAdvice is one row of the decision table shown to the player.
type ActionAdvice struct {
	Action      Action   `json:"action"`
	Label       string   `json:"label"`
	Min         int      `json:"min"`
	Max         int      `json:"max"`
	Remaining   int      `json:"remaining"`
	Disabled    bool     `json:"disabled"`
	Reason      string   `json:"reason,omitempty"`
	Probability *float64 `json:"probability,omitempty"`
	Best        bool     `json:"best"`
}

// AdviseActions evaluates every action for the given situation and marks the
// recommended one.
func AdviseActions(position, turns, u2, u3 int, track []int, gameOver bool) []ActionAdvice {
	remaining := [3]int{Unlimited, u2, u3}
	advice := make([]ActionAdvice, len(Actions))
	for i, spec := range Actions {
		advice[i] = ActionAdvice{
			Action:    spec.Action,
			Label:     spec.Label,
			Min:       spec.Min,
			Max:       spec.Max,
			Remaining: remaining[i],
		}
		switch {
		case gameOver:
			advice[i].Reason = ReasonGameOver
		case turns <= 0:
			advice[i].Reason = ReasonNoMovesLeft
		case spec.Limited && remaining[i] <= 0:
			advice[i].Reason = fmt.Sprintf(reasonNoUsesPattern, spec.Action)
		}
		advice[i].Disabled = advice[i].Reason != ""
	}

	if gameOver || turns <= 0 {
		return advice
	}

	probs := SolveProbabilities(position, turns, u2, u3, track)
	for i := range advice {
		if advice[i].Disabled {
			continue
		}
		if ap := probs.For(advice[i].Action); ap != nil {
			p := ap.Probability
			advice[i].Probability = &p
		}
	}
	if best := PickBest(advice); best >= 0 {
		advice[best].Best = true
	}
	return advice
}

// PickBest returns the index of the recommended action, or -1 when none is
// enabled. Among actions within Epsilon of the top probability, limited
// actions win over the unlimited one, more remaining uses win among limited
// ones, and the lowest action number breaks what is left.
func PickBest(advice []ActionAdvice) int {
	top := -1.0
	for _, a := range advice {
		if !a.Disabled && a.Probability != nil && *a.Probability > top {
			top = *a.Probability
		}
	}
	if top < 0 {
		return -1
	}

	var tied []int
	for i, a := range advice {
		if !a.Disabled && a.Probability != nil && abs64(*a.Probability-top) <= Epsilon {
			tied = append(tied, i)
		}
	}

	best := -1
	for _, i := range tied {
		if advice[i].Remaining == Unlimited {
			continue
		}
		if best < 0 || advice[i].Remaining > advice[best].Remaining {
			best = i
		}
	}
	if best >= 0 {
		return best
	}
	return tied[0]
}

func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
