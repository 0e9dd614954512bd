// Package policy provides action selection strategies for the training
// loop.
package policy

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/qforge/qforge/internal/schedule"
)

// QFunction evaluates action values for a state. Implemented by the
// model collaborator; the policy package treats it as opaque.
type QFunction interface {
	ActionValues(state []float64) []float64
}

// Policy chooses an action given the current state.
type Policy interface {
	SelectAction(state []float64) (int, error)
}

// Greedy always picks the action with the highest estimated value.
type Greedy struct {
	Q QFunction
}

// SelectAction implements Policy.
func (g Greedy) SelectAction(state []float64) (int, error) {
	values := g.Q.ActionValues(state)
	if len(values) == 0 {
		return 0, errors.New("policy: model returned no action values")
	}
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best, nil
}

// Random selects uniformly from a discrete action space.
type Random struct {
	N   int
	Rng *rand.Rand
}

// SelectAction implements Policy.
func (r Random) SelectAction(state []float64) (int, error) {
	if r.N <= 0 {
		return 0, fmt.Errorf("policy: action space size must be positive, got %d", r.N)
	}
	if r.Rng == nil {
		return 0, errors.New("policy: random source is required")
	}
	return r.Rng.Intn(r.N), nil
}

// EpsilonGreedy explores with probability given by a threshold schedule
// and exploits greedily otherwise. The threshold is a function of the
// global step count, advanced once per selection.
type EpsilonGreedy struct {
	greedy   Greedy
	random   Random
	strategy schedule.Strategy
	rng      *rand.Rand
	steps    int
	lastEps  float64
}

// NewEpsilonGreedy builds an epsilon-greedy policy over q with actions
// in [0, actions). A nil rng gets a time-seeded source.
func NewEpsilonGreedy(q QFunction, actions int, strategy schedule.Strategy, rng *rand.Rand) (*EpsilonGreedy, error) {
	if q == nil {
		return nil, errors.New("policy: q function is required")
	}
	if actions <= 0 {
		return nil, fmt.Errorf("policy: action space size must be positive, got %d", actions)
	}
	if strategy == nil {
		return nil, errors.New("policy: threshold strategy is required")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &EpsilonGreedy{
		greedy:   Greedy{Q: q},
		random:   Random{N: actions, Rng: rng},
		strategy: strategy,
		rng:      rng,
	}, nil
}

// SelectAction implements Policy.
func (p *EpsilonGreedy) SelectAction(state []float64) (int, error) {
	eps := p.strategy.Threshold(p.steps)
	p.steps++
	p.lastEps = eps
	if p.rng.Float64() > eps {
		return p.greedy.SelectAction(state)
	}
	return p.random.SelectAction(state)
}

// Epsilon returns the threshold used by the most recent selection.
func (p *EpsilonGreedy) Epsilon() float64 {
	return p.lastEps
}

// Steps returns the number of selections made so far.
func (p *EpsilonGreedy) Steps() int {
	return p.steps
}
