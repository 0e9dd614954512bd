// Package config holds the training-run configuration.
package config

import (
	"fmt"

	"github.com/qforge/qforge/internal/schedule"
)

// Config holds all settings for one training run.
type Config struct {
	// Environment selection
	EnvID string `mapstructure:"env_id"`
	Seed  int64  `mapstructure:"seed"`

	// Run length
	Episodes int `mapstructure:"episodes"`

	// Replay buffer
	Capacity  int     `mapstructure:"capacity"`
	BatchSize int     `mapstructure:"batch_size"`
	Alpha     float64 `mapstructure:"alpha"`
	Beta      float64 `mapstructure:"beta"`

	// Learning
	Gamma        float64 `mapstructure:"gamma"`
	Tau          float64 `mapstructure:"tau"`
	LearningRate float64 `mapstructure:"learning_rate"`
	GradClip     float64 `mapstructure:"grad_clip"`
	HiddenSize   int     `mapstructure:"hidden_size"`

	// Exploration
	Schedule schedule.Config `mapstructure:"schedule"`

	// Serving and logging
	HTTPAddr string `mapstructure:"http_addr"`
	LogLevel string `mapstructure:"log_level"`
}

// Default returns a config with sensible defaults for the built-in
// environments.
func Default() *Config {
	return &Config{
		EnvID:        "cartpole",
		Seed:         1,
		Episodes:     200,
		Capacity:     10000,
		BatchSize:    64,
		Alpha:        0.6,
		Beta:         0.4,
		Gamma:        0.99,
		Tau:          0.005,
		LearningRate: 0.001,
		GradClip:     100,
		HiddenSize:   128,
		Schedule: schedule.Config{
			Kind:  schedule.KindExponentialDecay,
			Start: 0.9,
			End:   0.05,
			Decay: 1000,
		},
		HTTPAddr: ":8080",
		LogLevel: "info",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.EnvID == "" {
		return fmt.Errorf("env_id is required")
	}
	if c.Episodes <= 0 {
		return fmt.Errorf("episodes must be positive")
	}
	if c.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive")
	}
	if c.BatchSize >= c.Capacity {
		return fmt.Errorf("batch_size must be smaller than capacity")
	}
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0,1]")
	}
	if c.Beta < 0 {
		return fmt.Errorf("beta must be non-negative")
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("gamma must be in [0,1]")
	}
	if c.Tau <= 0 || c.Tau > 1 {
		return fmt.Errorf("tau must be in (0,1]")
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning_rate must be positive")
	}
	if c.GradClip <= 0 {
		return fmt.Errorf("grad_clip must be positive")
	}
	if c.HiddenSize <= 0 {
		return fmt.Errorf("hidden_size must be positive")
	}
	if _, err := schedule.New(c.Schedule); err != nil {
		return err
	}
	return nil
}
