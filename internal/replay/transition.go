package replay

// Transition represents a single experience transition: the state the
// agent observed, the action it took, the state that resulted and the
// reward it received. NextState is nil when the episode ended at this
// step. Transitions are treated as immutable once stored.
type Transition struct {
	State     []float64
	Action    int
	NextState []float64
	Reward    float64
}

// Terminal reports whether this transition ended its episode.
func (t Transition) Terminal() bool {
	return t.NextState == nil
}
