package replay

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrInsufficientSamples is returned when a batch is requested from a
// store that cannot serve it.
var ErrInsufficientSamples = errors.New("replay: insufficient samples")

// Sampler draws prioritized batches from a PriorityStore.
//
// Sampling probability for record i is priority_i^alpha normalized over
// the store; alpha=0 degenerates to uniform sampling, alpha=1 is fully
// priority-proportional. Importance-sampling weights are annealed by
// beta and normalized so the largest weight in a batch is 1.
type Sampler struct {
	store *PriorityStore
	alpha float64
	beta  float64
	rng   *rand.Rand
}

// Batch is one sampled training batch. Indices refer to logical store
// positions at sampling time and are valid for UpdatePriorities until
// the next push.
type Batch struct {
	Indices     []int
	Transitions []Transition
	Weights     []float64
}

// NewSampler creates a sampler over store. A nil rng gets a
// time-seeded source; tests pass a fixed-seed rand.Rand for
// reproducible draws.
func NewSampler(store *PriorityStore, alpha, beta float64, rng *rand.Rand) (*Sampler, error) {
	if store == nil {
		return nil, errors.New("replay: store is required")
	}
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("replay: alpha must be in [0,1], got %g", alpha)
	}
	if beta < 0 {
		return nil, fmt.Errorf("replay: beta must be non-negative, got %g", beta)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{store: store, alpha: alpha, beta: beta, rng: rng}, nil
}

// Probabilities computes the current sampling distribution over all
// records. It is recomputed on every call since priorities mutate
// between calls. Returns an empty slice for an empty store.
func (s *Sampler) Probabilities() []float64 {
	n := s.store.Len()
	probs := make([]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		p := math.Pow(s.store.records.At(i).priority, s.alpha)
		probs[i] = p
		total += p
	}
	if total <= 0 {
		return probs
	}
	for i := range probs {
		probs[i] /= total
	}
	return probs
}

// Sample draws batchSize indices with replacement according to
// Probabilities and returns them with their transitions and
// importance-sampling weights. Fails with ErrInsufficientSamples on an
// empty store.
func (s *Sampler) Sample(batchSize int) (Batch, error) {
	if batchSize <= 0 {
		return Batch{}, fmt.Errorf("replay: batch size must be positive, got %d", batchSize)
	}
	n := s.store.Len()
	if n == 0 {
		return Batch{}, fmt.Errorf("%w: store is empty", ErrInsufficientSamples)
	}

	probs := s.Probabilities()
	total := 0.0
	for _, p := range probs {
		total += p
	}
	// Priorities are clamped strictly positive at write time, so a
	// degenerate all-zero vector indicates store corruption.
	if total <= 0 {
		return Batch{}, errors.New("replay: degenerate all-zero probability vector")
	}

	batch := Batch{
		Indices:     make([]int, batchSize),
		Transitions: make([]Transition, batchSize),
		Weights:     make([]float64, batchSize),
	}
	maxWeight := 0.0
	for k := 0; k < batchSize; k++ {
		idx := s.draw(probs)
		batch.Indices[k] = idx
		batch.Transitions[k] = s.store.records.At(idx).transition
		w := math.Pow(float64(n)*probs[idx], -s.beta)
		batch.Weights[k] = w
		if w > maxWeight {
			maxWeight = w
		}
	}
	if maxWeight > 0 {
		for k := range batch.Weights {
			batch.Weights[k] /= maxWeight
		}
	}
	return batch, nil
}

// draw selects one index by walking the cumulative distribution.
func (s *Sampler) draw(probs []float64) int {
	target := s.rng.Float64()
	sum := 0.0
	for i, p := range probs {
		sum += p
		if sum >= target {
			return i
		}
	}
	// Floating-point shortfall: the cumulative sum can land a hair
	// under 1.0, in which case the draw belongs to the last record.
	return len(probs) - 1
}
