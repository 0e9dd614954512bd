package params

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func vec(values ...float64) *mat.VecDense {
	return mat.NewVecDense(len(values), values)
}

func TestSoftUpdate_HardCopyAtTauOne(t *testing.T) {
	policy := Set{
		"layer0.weight": vec(0.1, -0.2, 0.3),
		"layer0.bias":   vec(1.0 / 3.0),
	}
	target := Set{
		"layer0.weight": vec(9, 9, 9),
		"layer0.bias":   vec(9),
	}

	out, err := SoftUpdate(policy, target, 1.0)
	require.NoError(t, err)

	for _, k := range policy.Keys() {
		require.Equal(t, policy[k].Len(), out[k].Len())
		for i := 0; i < policy[k].Len(); i++ {
			// Bit-for-bit copy, no arithmetic applied.
			assert.Equal(t, policy[k].AtVec(i), out[k].AtVec(i))
		}
	}
}

func TestSoftUpdate_Convexity(t *testing.T) {
	policy := Set{"w": vec(1, -4, 0.5, 0)}
	target := Set{"w": vec(-1, 2, 0.5, 10)}

	out, err := SoftUpdate(policy, target, 0.3)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		p := policy["w"].AtVec(i)
		tv := target["w"].AtVec(i)
		got := out["w"].AtVec(i)
		lo := math.Min(p, tv)
		hi := math.Max(p, tv)
		assert.GreaterOrEqual(t, got, lo)
		assert.LessOrEqual(t, got, hi)
		assert.InDelta(t, 0.3*p+0.7*tv, got, 1e-12)
	}
}

func TestSoftUpdate_InputsUnmodified(t *testing.T) {
	policy := Set{"w": vec(1, 2)}
	target := Set{"w": vec(3, 4)}

	_, err := SoftUpdate(policy, target, 0.5)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 2}, policy["w"].RawVector().Data)
	assert.Equal(t, []float64{3, 4}, target["w"].RawVector().Data)
}

func TestSoftUpdate_KeyMismatch(t *testing.T) {
	policy := Set{"w": vec(1), "b": vec(2)}
	target := Set{"w": vec(1)}

	_, err := SoftUpdate(policy, target, 0.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrKeyMismatch)

	target = Set{"w": vec(1), "other": vec(2)}
	_, err = SoftUpdate(policy, target, 0.5)
	assert.ErrorIs(t, err, ErrKeyMismatch)
}

func TestSoftUpdate_LengthMismatch(t *testing.T) {
	policy := Set{"w": vec(1, 2, 3)}
	target := Set{"w": vec(1, 2)}

	_, err := SoftUpdate(policy, target, 0.5)
	assert.Error(t, err)
}

func TestSoftUpdate_InvalidTau(t *testing.T) {
	policy := Set{"w": vec(1)}
	target := Set{"w": vec(1)}

	_, err := SoftUpdate(policy, target, 0)
	assert.Error(t, err)
	_, err = SoftUpdate(policy, target, -0.1)
	assert.Error(t, err)
	_, err = SoftUpdate(policy, target, 1.1)
	assert.Error(t, err)
}

func TestSet_Clone(t *testing.T) {
	original := Set{"w": vec(1, 2)}
	clone := original.Clone()

	clone["w"].SetVec(0, 99)
	assert.Equal(t, 1.0, original["w"].AtVec(0))
}

func TestSet_Keys(t *testing.T) {
	s := Set{"b": vec(1), "a": vec(1), "c": vec(1)}
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
}
