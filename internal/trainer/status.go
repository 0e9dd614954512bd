package trainer

import "sync"

// Status is a point-in-time snapshot of training progress, served by
// the HTTP status API.
type Status struct {
	RunID         string  `json:"run_id"`
	Episode       int     `json:"episode"`
	TotalSteps    int     `json:"total_steps"`
	OptimizeSteps int     `json:"optimize_steps"`
	Epsilon       float64 `json:"epsilon"`
	LastLoss      float64 `json:"last_loss"`
	LastReward    float64 `json:"last_reward"`
	BufferSize    int     `json:"buffer_size"`
	Running       bool    `json:"running"`
}

// progress is the single mutex-guarded handoff point between the
// single-threaded training loop and concurrent status readers.
type progress struct {
	mu     sync.Mutex
	status Status
}

func (p *progress) update(fn func(*Status)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.status)
}

// Snapshot returns a copy of the current status.
func (p *progress) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}
