// Package schedule provides exploration-threshold schedules for
// epsilon-greedy action selection. The set of strategies is closed and
// selected once at configuration time.
package schedule

import (
	"fmt"
	"math"
)

// Kind names one of the available schedule strategies.
type Kind string

const (
	KindExponentialDecay Kind = "exponential"
	KindLinearDecay      Kind = "linear"
	KindPhaseSwitch      Kind = "phase"
)

// Strategy computes the exploration threshold for a given global step.
type Strategy interface {
	Threshold(step int) float64
}

// Config selects and parameterizes a strategy.
type Config struct {
	Kind  Kind    `mapstructure:"kind"`
	Start float64 `mapstructure:"start"`
	End   float64 `mapstructure:"end"`
	// Decay is the exponential time constant, in steps.
	Decay float64 `mapstructure:"decay"`
	// Steps is the linear ramp length.
	Steps int `mapstructure:"steps"`
	// SwitchAt is the step at which PhaseSwitch drops from Start to End.
	SwitchAt int `mapstructure:"switch_at"`
}

// New builds the strategy named by cfg.Kind.
func New(cfg Config) (Strategy, error) {
	switch cfg.Kind {
	case KindExponentialDecay:
		if cfg.Decay <= 0 {
			return nil, fmt.Errorf("schedule: exponential decay requires positive decay constant, got %g", cfg.Decay)
		}
		return ExponentialDecay{Start: cfg.Start, End: cfg.End, Decay: cfg.Decay}, nil
	case KindLinearDecay:
		if cfg.Steps <= 0 {
			return nil, fmt.Errorf("schedule: linear decay requires positive step count, got %d", cfg.Steps)
		}
		return LinearDecay{Start: cfg.Start, End: cfg.End, Steps: cfg.Steps}, nil
	case KindPhaseSwitch:
		if cfg.SwitchAt < 0 {
			return nil, fmt.Errorf("schedule: phase switch requires non-negative switch step, got %d", cfg.SwitchAt)
		}
		return PhaseSwitch{Before: cfg.Start, After: cfg.End, SwitchAt: cfg.SwitchAt}, nil
	default:
		return nil, fmt.Errorf("schedule: unknown kind %q", cfg.Kind)
	}
}

// ExponentialDecay anneals the threshold from Start toward End with
// time constant Decay:
//
//	end + (start-end) * exp(-step/decay)
type ExponentialDecay struct {
	Start float64
	End   float64
	Decay float64
}

// Threshold implements Strategy.
func (s ExponentialDecay) Threshold(step int) float64 {
	return s.End + (s.Start-s.End)*math.Exp(-float64(step)/s.Decay)
}

// LinearDecay ramps the threshold from Start to End over Steps steps,
// then holds End.
type LinearDecay struct {
	Start float64
	End   float64
	Steps int
}

// Threshold implements Strategy.
func (s LinearDecay) Threshold(step int) float64 {
	if step >= s.Steps {
		return s.End
	}
	frac := float64(step) / float64(s.Steps)
	return s.Start + (s.End-s.Start)*frac
}

// PhaseSwitch holds Before until SwitchAt, then After. Setting Before
// high and After to zero gives an explore-then-exploit (on/off-policy)
// phase split.
type PhaseSwitch struct {
	Before   float64
	After    float64
	SwitchAt int
}

// Threshold implements Strategy.
func (s PhaseSwitch) Threshold(step int) float64 {
	if step < s.SwitchAt {
		return s.Before
	}
	return s.After
}
