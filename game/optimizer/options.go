package optimizer

import (
	"time"

	"github.com/wricardo/minigame-solver/game/piece"
)

const (
	DefaultTimeLimit = 15 * time.Second
	DefaultNodeLimit = 1_000_000

	// PruneFactor relaxes the bound test during the search: a branch survives
	// while its bound is at least this fraction of the best score.
	PruneFactor = 0.95

	// AttributeCellCap is the per-attribute cell budget when building the target set.
	AttributeCellCap = 21
	// TargetCellCap bounds how far leftover pieces may raise an attribute target.
	TargetCellCap = 30
)

// Options tunes a single optimization run. Zero values select defaults.
type Options struct {
	TimeLimit time.Duration
	NodeLimit int64

	// ProgressInterval enables periodic EventProgress notifications.
	ProgressInterval time.Duration
	Observer         Observer

	// RoleAttributes overrides the bonus-eligible attributes of the role.
	RoleAttributes []piece.Attribute
}

func (o Options) withDefaults() Options {
	if o.TimeLimit <= 0 {
		o.TimeLimit = DefaultTimeLimit
	}
	if o.NodeLimit <= 0 {
		o.NodeLimit = DefaultNodeLimit
	}
	return o
}

// Phase names a stage of the optimizer.
type Phase string

const (
	PhaseStrategy Phase = "strategy"
	PhaseSearch   Phase = "search"
	PhaseExtend   Phase = "extend"
	PhaseFill     Phase = "fill"
)

// EventKind classifies observer notifications.
type EventKind string

const (
	EventPhase    EventKind = "phase"
	EventBest     EventKind = "best"
	EventProgress EventKind = "progress"
	EventFinished EventKind = "finished"
)

// Event is emitted to an Observer while an optimization runs.
type Event struct {
	Kind       EventKind     `json:"kind"`
	Phase      Phase         `json:"phase"`
	Nodes      int64         `json:"nodes"`
	Elapsed    time.Duration `json:"elapsed"`
	BestScore  int           `json:"best_score"`
	StopReason StopReason    `json:"stop_reason,omitempty"`
}

// Observer receives optimizer events. Calls are serialized.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// StopReason tells why the bounded search ended.
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopTimeLimit StopReason = "time_limit"
	StopNodeLimit StopReason = "node_limit"
	StopCanceled  StopReason = "canceled"
)

// Stats summarizes a run.
type Stats struct {
	Nodes       int64         `json:"nodes"`
	Elapsed     time.Duration `json:"elapsed"`
	TargetCount int           `json:"target_count"`
	Phase1Score int           `json:"phase1_score"`
	Exhausted   bool          `json:"exhausted"`
	StopReason  StopReason    `json:"stop_reason"`
}
