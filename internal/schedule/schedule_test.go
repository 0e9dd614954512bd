package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialDecay(t *testing.T) {
	s := ExponentialDecay{Start: 0.9, End: 0.05, Decay: 1000}

	assert.InDelta(t, 0.9, s.Threshold(0), 1e-12)

	prev := s.Threshold(0)
	for _, step := range []int{10, 100, 1000, 10000} {
		cur := s.Threshold(step)
		assert.Less(t, cur, prev)
		assert.Greater(t, cur, s.End)
		prev = cur
	}
	assert.InDelta(t, 0.05, s.Threshold(1_000_000), 1e-6)
}

func TestLinearDecay(t *testing.T) {
	s := LinearDecay{Start: 1.0, End: 0.1, Steps: 100}

	assert.InDelta(t, 1.0, s.Threshold(0), 1e-12)
	assert.InDelta(t, 0.55, s.Threshold(50), 1e-12)
	assert.InDelta(t, 0.1, s.Threshold(100), 1e-12)
	assert.InDelta(t, 0.1, s.Threshold(5000), 1e-12)
}

func TestPhaseSwitch(t *testing.T) {
	s := PhaseSwitch{Before: 1.0, After: 0.0, SwitchAt: 200}

	assert.Equal(t, 1.0, s.Threshold(0))
	assert.Equal(t, 1.0, s.Threshold(199))
	assert.Equal(t, 0.0, s.Threshold(200))
	assert.Equal(t, 0.0, s.Threshold(10000))
}

func TestNew(t *testing.T) {
	s, err := New(Config{Kind: KindExponentialDecay, Start: 0.9, End: 0.05, Decay: 1000})
	require.NoError(t, err)
	assert.IsType(t, ExponentialDecay{}, s)

	s, err = New(Config{Kind: KindLinearDecay, Start: 1, End: 0, Steps: 10})
	require.NoError(t, err)
	assert.IsType(t, LinearDecay{}, s)

	s, err = New(Config{Kind: KindPhaseSwitch, Start: 1, End: 0, SwitchAt: 5})
	require.NoError(t, err)
	assert.IsType(t, PhaseSwitch{}, s)

	_, err = New(Config{Kind: "annealed-cosine"})
	assert.Error(t, err)

	_, err = New(Config{Kind: KindExponentialDecay, Decay: 0})
	assert.Error(t, err)

	_, err = New(Config{Kind: KindLinearDecay, Steps: 0})
	assert.Error(t, err)

	_, err = New(Config{Kind: KindPhaseSwitch, SwitchAt: -1})
	assert.Error(t, err)
}
