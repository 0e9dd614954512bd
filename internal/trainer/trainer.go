// Package trainer orchestrates DQN training: environment interaction,
// experience storage, prioritized sampling, model optimization and
// target-network synchronization.
package trainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/qforge/qforge/internal/env"
	"github.com/qforge/qforge/internal/metrics"
	"github.com/qforge/qforge/internal/params"
	"github.com/qforge/qforge/internal/policy"
	"github.com/qforge/qforge/internal/replay"
)

// Model is the value-model collaborator: a forward pass plus parameter
// snapshot and restore. Two independently-updatable instances exist
// (policy, target) with identical parameter schemas.
type Model interface {
	policy.QFunction
	Params() params.Set
	SetParams(params.Set) error
}

// Optimizer is the model-optimization collaborator. One call performs
// one learning step over the batch and returns the loss together with
// per-sample absolute TD-errors, index-aligned with batch.Transitions.
type Optimizer interface {
	Optimize(batch replay.Batch) (loss float64, tdErrors []float64, err error)
}

// thresholdReporter is implemented by policies that expose their last
// exploration threshold, used for metrics only.
type thresholdReporter interface {
	Epsilon() float64
}

// Options wires a Loop's collaborators.
type Options struct {
	Environment env.Environment
	Policy      policy.Policy
	PolicyNet   Model
	TargetNet   Model
	Optimizer   Optimizer
	Store       *replay.PriorityStore
	Sampler     *replay.Sampler
	BatchSize   int
	Tau         float64
	Metrics     *metrics.Collector
	Logger      zerolog.Logger
}

// Loop runs the per-episode state machine
// Reset -> {Act, Step, Store, (Sample+Optimize)?, Sync} -> done.
// It owns no hidden global state: the store, sampler and networks are
// all passed in. The hot loop is single-threaded; only the status
// snapshot is shared with concurrent readers.
type Loop struct {
	opts  Options
	runID string

	totalSteps    int
	optimizeSteps int

	progress progress
}

// New validates opts and builds a Loop.
func New(opts Options) (*Loop, error) {
	switch {
	case opts.Environment == nil:
		return nil, errors.New("trainer: environment is required")
	case opts.Policy == nil:
		return nil, errors.New("trainer: policy is required")
	case opts.PolicyNet == nil || opts.TargetNet == nil:
		return nil, errors.New("trainer: policy and target models are required")
	case opts.Optimizer == nil:
		return nil, errors.New("trainer: optimizer is required")
	case opts.Store == nil:
		return nil, errors.New("trainer: priority store is required")
	case opts.Sampler == nil:
		return nil, errors.New("trainer: sampler is required")
	}
	if opts.BatchSize <= 0 {
		return nil, fmt.Errorf("trainer: batch size must be positive, got %d", opts.BatchSize)
	}
	if opts.Tau <= 0 || opts.Tau > 1 {
		return nil, fmt.Errorf("trainer: tau must be in (0,1], got %g", opts.Tau)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector(opts.Logger)
	}

	l := &Loop{opts: opts, runID: uuid.New().String()}
	l.progress.update(func(s *Status) {
		s.RunID = l.runID
	})
	return l, nil
}

// RunID returns the unique identifier of this training run.
func (l *Loop) RunID() string {
	return l.runID
}

// Status returns a snapshot of training progress. Safe for concurrent
// use with Run.
func (l *Loop) Status() Status {
	return l.progress.Snapshot()
}

// Run executes the given number of episodes. A failure in any
// collaborator aborts the run; there are no retries. Cancellation via
// ctx stops cleanly at the next step boundary.
func (l *Loop) Run(ctx context.Context, episodes int) error {
	if episodes <= 0 {
		return fmt.Errorf("trainer: episode count must be positive, got %d", episodes)
	}

	l.progress.update(func(s *Status) { s.Running = true })
	defer l.progress.update(func(s *Status) { s.Running = false })

	l.opts.Logger.Info().
		Str("run_id", l.runID).
		Int("episodes", episodes).
		Int("batch_size", l.opts.BatchSize).
		Float64("tau", l.opts.Tau).
		Msg("training run starting")

	for episode := 0; episode < episodes; episode++ {
		if err := l.runEpisode(ctx, episode); err != nil {
			return fmt.Errorf("trainer: episode %d: %w", episode, err)
		}
	}

	l.opts.Logger.Info().
		Str("run_id", l.runID).
		Int("total_steps", l.totalSteps).
		Int("optimize_steps", l.optimizeSteps).
		Msg("training run complete")
	return nil
}

func (l *Loop) runEpisode(ctx context.Context, episode int) error {
	state, err := l.opts.Environment.Reset()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	episodeReward := 0.0
	episodeSteps := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		action, err := l.opts.Policy.SelectAction(state)
		if err != nil {
			return fmt.Errorf("select action: %w", err)
		}

		res, err := l.opts.Environment.Step(action)
		if err != nil {
			return fmt.Errorf("step: %w", err)
		}
		episodeReward += res.Reward
		episodeSteps++
		l.totalSteps++

		// Terminal transitions carry no next state; new records enter
		// at the current max priority so they are sampled promptly.
		var next []float64
		if !res.Done() {
			next = res.Observation
		}
		l.opts.Store.Push(replay.Transition{
			State:     state,
			Action:    action,
			NextState: next,
			Reward:    res.Reward,
		}, l.opts.Store.MaxPriority())
		state = res.Observation

		if l.opts.Store.Len() > l.opts.BatchSize {
			if err := l.optimizeAndSync(); err != nil {
				return err
			}
		}

		l.progress.update(func(s *Status) {
			s.Episode = episode
			s.TotalSteps = l.totalSteps
			s.OptimizeSteps = l.optimizeSteps
			s.BufferSize = l.opts.Store.Len()
			s.Epsilon = l.epsilon()
		})

		if res.Done() {
			break
		}
	}

	l.progress.update(func(s *Status) { s.LastReward = episodeReward })
	l.opts.Metrics.EpisodeCompleted(episode, episodeSteps, episodeReward, l.epsilon())
	return nil
}

// optimizeAndSync runs one Sample+Optimize cycle followed by the soft
// update. Sync strictly follows a completed optimization step.
func (l *Loop) optimizeAndSync() error {
	batch, err := l.opts.Sampler.Sample(l.opts.BatchSize)
	if err != nil {
		return fmt.Errorf("sample: %w", err)
	}

	loss, tdErrors, err := l.opts.Optimizer.Optimize(batch)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	if len(tdErrors) != len(batch.Indices) {
		return fmt.Errorf("optimize: mismatched lengths: %d TD-errors vs %d sampled indices", len(tdErrors), len(batch.Indices))
	}
	if err := l.opts.Store.UpdatePriorities(batch.Indices, tdErrors); err != nil {
		return fmt.Errorf("update priorities: %w", err)
	}

	updated, err := params.SoftUpdate(l.opts.PolicyNet.Params(), l.opts.TargetNet.Params(), l.opts.Tau)
	if err != nil {
		return fmt.Errorf("soft update: %w", err)
	}
	if err := l.opts.TargetNet.SetParams(updated); err != nil {
		return fmt.Errorf("soft update: %w", err)
	}

	l.optimizeSteps++
	maxTD := 0.0
	for _, td := range tdErrors {
		if td > maxTD {
			maxTD = td
		}
	}
	l.opts.Metrics.OptimizeStep(l.optimizeSteps, loss, maxTD)
	l.progress.update(func(s *Status) { s.LastLoss = loss })
	return nil
}

func (l *Loop) epsilon() float64 {
	if r, ok := l.opts.Policy.(thresholdReporter); ok {
		return r.Epsilon()
	}
	return 0
}
