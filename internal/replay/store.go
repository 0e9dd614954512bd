package replay

import (
	"fmt"

	"github.com/gammazero/deque"
)

// MinPriority is the floor applied to every priority written into the
// store. Clamping at write time keeps every record sampleable and the
// probability vector strictly positive.
const MinPriority = 1e-6

type record struct {
	transition Transition
	priority   float64
}

// PriorityStore is a bounded FIFO buffer of (transition, priority)
// pairs. When full, a push evicts the oldest record together with its
// priority, so the two stay index-aligned at all times. All operations
// are O(1) amortized except priority scans.
//
// The store is not safe for concurrent use; callers running parallel
// environment workers must guard it with a single mutex.
type PriorityStore struct {
	records   *deque.Deque[record]
	capacity  int
	pushes    uint64
	evictions uint64

	// maxPriority caches the largest live priority; maxStale marks it
	// for recomputation after the max record is evicted or downgraded.
	maxPriority float64
	maxStale    bool
}

// Stats is a point-in-time snapshot of the store.
type Stats struct {
	Size        int     `json:"size"`
	Capacity    int     `json:"capacity"`
	Pushes      uint64  `json:"pushes"`
	Evictions   uint64  `json:"evictions"`
	MaxPriority float64 `json:"max_priority"`
}

// NewPriorityStore creates a store holding at most capacity records.
func NewPriorityStore(capacity int) (*PriorityStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("replay: capacity must be positive, got %d", capacity)
	}
	return &PriorityStore{
		records:  deque.New[record](),
		capacity: capacity,
	}, nil
}

// Push appends a transition with the given priority, evicting the
// oldest record first if the store is full. Non-positive priorities are
// clamped to MinPriority.
func (s *PriorityStore) Push(tr Transition, priority float64) {
	if s.records.Len() == s.capacity {
		evicted := s.records.PopFront()
		s.evictions++
		if !s.maxStale && evicted.priority >= s.maxPriority {
			s.maxStale = true
		}
	}
	p := clamp(priority)
	s.records.PushBack(record{transition: tr, priority: p})
	s.pushes++
	if !s.maxStale && p > s.maxPriority {
		s.maxPriority = p
	}
}

// Len returns the current record count.
func (s *PriorityStore) Len() int {
	return s.records.Len()
}

// Capacity returns the fixed maximum record count.
func (s *PriorityStore) Capacity() int {
	return s.capacity
}

// Get returns the transition at logical index i, oldest first.
func (s *PriorityStore) Get(i int) (Transition, error) {
	if i < 0 || i >= s.records.Len() {
		return Transition{}, fmt.Errorf("replay: index %d out of range [0,%d)", i, s.records.Len())
	}
	return s.records.At(i).transition, nil
}

// Priority returns the priority paired with the transition at index i.
func (s *PriorityStore) Priority(i int) (float64, error) {
	if i < 0 || i >= s.records.Len() {
		return 0, fmt.Errorf("replay: index %d out of range [0,%d)", i, s.records.Len())
	}
	return s.records.At(i).priority, nil
}

// MaxPriority returns the largest priority currently held, or 1.0 for
// an empty store. New transitions are inserted at this value so that
// every transition is sampled at least once before its priority is
// corrected by a measured TD-error. The value is cached and only
// rescanned after the max record was evicted or downgraded, keeping
// the per-push cost O(1) amortized.
func (s *PriorityStore) MaxPriority() float64 {
	if s.records.Len() == 0 {
		return 1.0
	}
	if s.maxStale {
		max := 0.0
		for i := 0; i < s.records.Len(); i++ {
			if p := s.records.At(i).priority; p > max {
				max = p
			}
		}
		s.maxPriority = max
		s.maxStale = false
	}
	return s.maxPriority
}

// UpdatePriorities overwrites the priorities at the given logical
// indices. Mismatched slice lengths or an out-of-range index are
// programming errors and fail without applying any update. New
// priorities are clamped to MinPriority.
func (s *PriorityStore) UpdatePriorities(indices []int, priorities []float64) error {
	if len(indices) != len(priorities) {
		return fmt.Errorf("replay: mismatched lengths: %d indices vs %d priorities", len(indices), len(priorities))
	}
	for _, i := range indices {
		if i < 0 || i >= s.records.Len() {
			return fmt.Errorf("replay: index %d out of range [0,%d)", i, s.records.Len())
		}
	}
	for n, i := range indices {
		rec := s.records.At(i)
		old := rec.priority
		rec.priority = clamp(priorities[n])
		s.records.Set(i, rec)
		if s.maxStale {
			continue
		}
		if rec.priority > s.maxPriority {
			s.maxPriority = rec.priority
		} else if old >= s.maxPriority && rec.priority < old {
			s.maxStale = true
		}
	}
	return nil
}

// Stats returns a snapshot of buffer counters.
func (s *PriorityStore) Stats() Stats {
	return Stats{
		Size:        s.records.Len(),
		Capacity:    s.capacity,
		Pushes:      s.pushes,
		Evictions:   s.evictions,
		MaxPriority: s.MaxPriority(),
	}
}

func clamp(p float64) float64 {
	if p < MinPriority {
		return MinPriority
	}
	return p
}
