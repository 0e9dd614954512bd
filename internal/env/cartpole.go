package env

import (
	"fmt"
	"math"
	"math/rand"
)

// CartPole physics constants, matching the classic control task.
const (
	cartMass       = 1.0
	poleMass       = 0.1
	poleHalfLength = 0.5
	pushForce      = 10.0
	gravity        = 9.8
	stepPeriod     = 0.02

	positionLimit = 2.4
	angleLimit    = 12.0 * math.Pi / 180.0

	// CartPoleLimit is the step count at which an episode truncates.
	CartPoleLimit = 500
)

// CartPole balances a pole on a cart driven left or right. Observations
// are [position, velocity, angle, angular velocity]; the episode
// terminates when either leaves its limit and truncates at
// CartPoleLimit steps.
type CartPole struct {
	state [4]float64
	steps int
	rng   *rand.Rand
}

// NewCartPole creates a CartPole seeded for reproducible resets.
func NewCartPole(seed int64) *CartPole {
	return &CartPole{rng: rand.New(rand.NewSource(seed))}
}

// Reset starts a new episode with state drawn uniformly from
// [-0.05, 0.05] per dimension.
func (c *CartPole) Reset() ([]float64, error) {
	for i := range c.state {
		c.state[i] = c.rng.Float64()*0.1 - 0.05
	}
	c.steps = 0
	return c.observe(), nil
}

// Step applies action 0 (push left) or 1 (push right).
func (c *CartPole) Step(action int) (StepResult, error) {
	if action != 0 && action != 1 {
		return StepResult{}, fmt.Errorf("env: cartpole action must be 0 or 1, got %d", action)
	}

	force := pushForce
	if action == 0 {
		force = -pushForce
	}

	x, xDot, theta, thetaDot := c.state[0], c.state[1], c.state[2], c.state[3]
	cosTheta := math.Cos(theta)
	sinTheta := math.Sin(theta)

	totalMass := cartMass + poleMass
	poleMassLength := poleMass * poleHalfLength

	temp := (force + poleMassLength*thetaDot*thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) /
		(poleHalfLength * (4.0/3.0 - poleMass*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	c.state[0] = x + stepPeriod*xDot
	c.state[1] = xDot + stepPeriod*xAcc
	c.state[2] = theta + stepPeriod*thetaDot
	c.state[3] = thetaDot + stepPeriod*thetaAcc
	c.steps++

	terminated := math.Abs(c.state[0]) > positionLimit || math.Abs(c.state[2]) > angleLimit
	truncated := !terminated && c.steps >= CartPoleLimit

	return StepResult{
		Observation: c.observe(),
		Reward:      1.0,
		Terminated:  terminated,
		Truncated:   truncated,
	}, nil
}

// ActionSpace implements Environment.
func (c *CartPole) ActionSpace() DiscreteSpace {
	return DiscreteSpace{N: 2}
}

// ObservationSpace implements Environment.
func (c *CartPole) ObservationSpace() BoxSpace {
	return BoxSpace{
		Low:  []float64{-positionLimit * 2, math.Inf(-1), -angleLimit * 2, math.Inf(-1)},
		High: []float64{positionLimit * 2, math.Inf(1), angleLimit * 2, math.Inf(1)},
	}
}

func (c *CartPole) observe() []float64 {
	obs := make([]float64, 4)
	copy(obs, c.state[:])
	return obs
}
