package env

import "fmt"

// ChainWalk defaults used by the registry.
const (
	ChainWalkStates = 5
	ChainWalkLimit  = 100
)

// ChainWalk is a one-dimensional corridor: the agent starts at the left
// end, moves left (0) or right (1), pays a small step penalty and earns
// a terminal reward at the right end. Observations are a one-hot
// encoding of the current cell. Small and deterministic, it is the
// smoke-test environment for the training loop.
type ChainWalk struct {
	n     int
	limit int
	pos   int
	steps int
}

// NewChainWalk creates a corridor with n cells truncating after limit
// steps.
func NewChainWalk(n, limit int) *ChainWalk {
	return &ChainWalk{n: n, limit: limit}
}

// Reset implements Environment.
func (c *ChainWalk) Reset() ([]float64, error) {
	c.pos = 0
	c.steps = 0
	return c.observe(), nil
}

// Step implements Environment.
func (c *ChainWalk) Step(action int) (StepResult, error) {
	if action != 0 && action != 1 {
		return StepResult{}, fmt.Errorf("env: chainwalk action must be 0 or 1, got %d", action)
	}

	if action == 0 && c.pos > 0 {
		c.pos--
	} else if action == 1 && c.pos < c.n-1 {
		c.pos++
	}
	c.steps++

	reward := -0.01
	terminated := c.pos == c.n-1
	if terminated {
		reward = 1.0
	}
	truncated := !terminated && c.steps >= c.limit

	return StepResult{
		Observation: c.observe(),
		Reward:      reward,
		Terminated:  terminated,
		Truncated:   truncated,
	}, nil
}

// ActionSpace implements Environment.
func (c *ChainWalk) ActionSpace() DiscreteSpace {
	return DiscreteSpace{N: 2}
}

// ObservationSpace implements Environment.
func (c *ChainWalk) ObservationSpace() BoxSpace {
	low := make([]float64, c.n)
	high := make([]float64, c.n)
	for i := range high {
		high[i] = 1
	}
	return BoxSpace{Low: low, High: high}
}

func (c *ChainWalk) observe() []float64 {
	obs := make([]float64, c.n)
	obs[c.pos] = 1
	return obs
}
