// Package metrics provides a write-only scalar metrics sink backed by
// structured logging. Emission is fire-and-forget; nothing in the hot
// loop waits on it.
package metrics

import "github.com/rs/zerolog"

// Collector tags scalar metrics with a step index and writes them to
// the run log.
type Collector struct {
	logger zerolog.Logger
}

// NewCollector creates a collector writing through logger.
func NewCollector(logger zerolog.Logger) *Collector {
	return &Collector{logger: logger}
}

// Scalar records a single named scalar value at a step index.
func (c *Collector) Scalar(name string, step int, value float64) {
	c.logger.Info().
		Str("metric", name).
		Int("step", step).
		Float64("value", value).
		Msg("scalar metric")
}

// OptimizeStep records the outcome of one optimization cycle.
func (c *Collector) OptimizeStep(step int, loss, maxTDError float64) {
	c.logger.Debug().
		Str("metric", "optimize_step").
		Int("step", step).
		Float64("loss", loss).
		Float64("max_td_error", maxTDError).
		Msg("optimization step")
}

// EpisodeCompleted records a finished episode.
func (c *Collector) EpisodeCompleted(episode, steps int, reward, epsilon float64) {
	c.logger.Info().
		Str("metric", "episode_completed").
		Int("episode", episode).
		Int("steps", steps).
		Float64("reward", reward).
		Float64("epsilon", epsilon).
		Msg("episode completed")
}
