// Package env defines the gym-style environment collaborator and two
// built-in control environments used by the CLI and tests.
package env

import "fmt"

// DiscreteSpace describes an action space of N distinct actions.
type DiscreteSpace struct {
	N int
}

// BoxSpace describes a continuous observation space with per-dimension
// bounds.
type BoxSpace struct {
	Low  []float64
	High []float64
}

// Dims returns the dimensionality of the space.
func (b BoxSpace) Dims() int {
	return len(b.Low)
}

// StepResult carries the outcome of one environment step. Terminated
// marks a natural episode end, Truncated an external cutoff such as a
// step limit.
type StepResult struct {
	Observation []float64
	Reward      float64
	Terminated  bool
	Truncated   bool
}

// Done reports whether the episode is over for either reason.
func (r StepResult) Done() bool {
	return r.Terminated || r.Truncated
}

// Environment is the external collaborator the training loop steps
// through. Implementations are single-episode state machines: Reset
// starts a fresh episode, Step advances it.
type Environment interface {
	Reset() ([]float64, error)
	Step(action int) (StepResult, error)
	ActionSpace() DiscreteSpace
	ObservationSpace() BoxSpace
}

// New constructs a built-in environment by name.
func New(id string, seed int64) (Environment, error) {
	switch id {
	case "cartpole":
		return NewCartPole(seed), nil
	case "chainwalk":
		return NewChainWalk(ChainWalkStates, ChainWalkLimit), nil
	default:
		return nil, fmt.Errorf("env: unknown environment %q", id)
	}
}
