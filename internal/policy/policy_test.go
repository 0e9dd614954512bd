package policy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qforge/qforge/internal/schedule"
)

type fixedQ struct {
	values []float64
}

func (q fixedQ) ActionValues(state []float64) []float64 {
	return q.values
}

func TestGreedy_PicksArgmax(t *testing.T) {
	g := Greedy{Q: fixedQ{values: []float64{0.1, 2.5, -1.0, 2.4}}}

	action, err := g.SelectAction([]float64{0})
	require.NoError(t, err)
	assert.Equal(t, 1, action)
}

func TestGreedy_EmptyValues(t *testing.T) {
	g := Greedy{Q: fixedQ{}}
	_, err := g.SelectAction([]float64{0})
	assert.Error(t, err)
}

func TestRandom_StaysInRange(t *testing.T) {
	r := Random{N: 3, Rng: rand.New(rand.NewSource(5))}
	for i := 0; i < 100; i++ {
		action, err := r.SelectAction(nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, action, 0)
		assert.Less(t, action, 3)
	}
}

func TestRandom_Validation(t *testing.T) {
	_, err := Random{N: 0, Rng: rand.New(rand.NewSource(5))}.SelectAction(nil)
	assert.Error(t, err)

	_, err = Random{N: 3}.SelectAction(nil)
	assert.Error(t, err)
}

func TestNewEpsilonGreedy_Validation(t *testing.T) {
	strat := schedule.PhaseSwitch{Before: 1, After: 0, SwitchAt: 1}

	_, err := NewEpsilonGreedy(nil, 2, strat, nil)
	assert.Error(t, err)

	_, err = NewEpsilonGreedy(fixedQ{values: []float64{1}}, 0, strat, nil)
	assert.Error(t, err)

	_, err = NewEpsilonGreedy(fixedQ{values: []float64{1}}, 2, nil, nil)
	assert.Error(t, err)
}

func TestEpsilonGreedy_ExploitsWhenThresholdZero(t *testing.T) {
	q := fixedQ{values: []float64{0.0, 9.0}}
	strat := schedule.PhaseSwitch{Before: 0, After: 0, SwitchAt: 0}

	p, err := NewEpsilonGreedy(q, 2, strat, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		action, err := p.SelectAction([]float64{0})
		require.NoError(t, err)
		assert.Equal(t, 1, action)
	}
	assert.Equal(t, 50, p.Steps())
	assert.Equal(t, 0.0, p.Epsilon())
}

func TestEpsilonGreedy_ExploresWhenThresholdOne(t *testing.T) {
	// Greedy would always return action 1; with threshold 1 every draw
	// explores, so action 0 must appear.
	q := fixedQ{values: []float64{0.0, 9.0}}
	strat := schedule.PhaseSwitch{Before: 1, After: 1, SwitchAt: 0}

	p, err := NewEpsilonGreedy(q, 2, strat, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	sawZero := false
	for i := 0; i < 100; i++ {
		action, err := p.SelectAction([]float64{0})
		require.NoError(t, err)
		if action == 0 {
			sawZero = true
		}
	}
	assert.True(t, sawZero)
	assert.Equal(t, 1.0, p.Epsilon())
}

func TestEpsilonGreedy_ThresholdFollowsSchedule(t *testing.T) {
	q := fixedQ{values: []float64{1.0}}
	strat := schedule.LinearDecay{Start: 1.0, End: 0.0, Steps: 10}

	p, err := NewEpsilonGreedy(q, 1, strat, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := p.SelectAction(nil)
		require.NoError(t, err)
	}
	// Fifth selection used the threshold for step index 4.
	assert.InDelta(t, 0.6, p.Epsilon(), 1e-12)
}
