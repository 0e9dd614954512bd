package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qforge/qforge/internal/config"
	"github.com/qforge/qforge/internal/dqn"
	"github.com/qforge/qforge/internal/env"
	"github.com/qforge/qforge/internal/httpapi"
	"github.com/qforge/qforge/internal/metrics"
	"github.com/qforge/qforge/internal/policy"
	"github.com/qforge/qforge/internal/replay"
	"github.com/qforge/qforge/internal/schedule"
	"github.com/qforge/qforge/internal/trainer"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "qforge",
	Short: "Prioritized-replay DQN training runner",
	Long: `qforge trains a DQN agent over a built-in gym-style environment
using prioritized experience replay and soft target-network updates,
and serves buffer and training status over HTTP while running.`,
	RunE: run,
}

func init() {
	cfg = config.Default()

	rootCmd.Flags().StringVar(&cfg.EnvID, "env-id", cfg.EnvID, "Environment to train on (cartpole, chainwalk)")
	rootCmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed for reproducible runs")
	rootCmd.Flags().IntVar(&cfg.Episodes, "episodes", cfg.Episodes, "Number of episodes to run")

	rootCmd.Flags().IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "Replay buffer capacity")
	rootCmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Training batch size")
	rootCmd.Flags().Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "Priority exponent (0 uniform, 1 proportional)")
	rootCmd.Flags().Float64Var(&cfg.Beta, "beta", cfg.Beta, "Importance-sampling exponent")

	rootCmd.Flags().Float64Var(&cfg.Gamma, "gamma", cfg.Gamma, "Discount factor")
	rootCmd.Flags().Float64Var(&cfg.Tau, "tau", cfg.Tau, "Target network soft-update factor")
	rootCmd.Flags().Float64Var(&cfg.LearningRate, "learning-rate", cfg.LearningRate, "SGD learning rate")
	rootCmd.Flags().Float64Var(&cfg.GradClip, "grad-clip", cfg.GradClip, "Gradient value clip")
	rootCmd.Flags().IntVar(&cfg.HiddenSize, "hidden-size", cfg.HiddenSize, "Hidden layer width")

	rootCmd.Flags().StringVar((*string)(&cfg.Schedule.Kind), "schedule", string(cfg.Schedule.Kind), "Exploration schedule (exponential, linear, phase)")
	rootCmd.Flags().Float64Var(&cfg.Schedule.Start, "eps-start", cfg.Schedule.Start, "Initial exploration threshold")
	rootCmd.Flags().Float64Var(&cfg.Schedule.End, "eps-end", cfg.Schedule.End, "Final exploration threshold")
	rootCmd.Flags().Float64Var(&cfg.Schedule.Decay, "eps-decay", cfg.Schedule.Decay, "Exponential decay constant, in steps")
	rootCmd.Flags().IntVar(&cfg.Schedule.Steps, "eps-steps", cfg.Schedule.Steps, "Linear ramp length, in steps")
	rootCmd.Flags().IntVar(&cfg.Schedule.SwitchAt, "eps-switch-at", cfg.Schedule.SwitchAt, "Phase switch step")

	rootCmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "Status HTTP listen address")
	rootCmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	viper.BindPFlags(rootCmd.Flags())
	viper.SetEnvPrefix("QFORGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// applyViper resolves every setting through viper so QFORGE_* environment
// variables take effect: an explicitly set flag wins, otherwise the
// environment value, otherwise the flag default.
func applyViper(cfg *config.Config) {
	cfg.EnvID = viper.GetString("env-id")
	cfg.Seed = viper.GetInt64("seed")
	cfg.Episodes = viper.GetInt("episodes")

	cfg.Capacity = viper.GetInt("capacity")
	cfg.BatchSize = viper.GetInt("batch-size")
	cfg.Alpha = viper.GetFloat64("alpha")
	cfg.Beta = viper.GetFloat64("beta")

	cfg.Gamma = viper.GetFloat64("gamma")
	cfg.Tau = viper.GetFloat64("tau")
	cfg.LearningRate = viper.GetFloat64("learning-rate")
	cfg.GradClip = viper.GetFloat64("grad-clip")
	cfg.HiddenSize = viper.GetInt("hidden-size")

	cfg.Schedule.Kind = schedule.Kind(viper.GetString("schedule"))
	cfg.Schedule.Start = viper.GetFloat64("eps-start")
	cfg.Schedule.End = viper.GetFloat64("eps-end")
	cfg.Schedule.Decay = viper.GetFloat64("eps-decay")
	cfg.Schedule.Steps = viper.GetInt("eps-steps")
	cfg.Schedule.SwitchAt = viper.GetInt("eps-switch-at")

	cfg.HTTPAddr = viper.GetString("http-addr")
	cfg.LogLevel = viper.GetString("log-level")
}

func run(cmd *cobra.Command, args []string) error {
	applyViper(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	environment, err := env.New(cfg.EnvID, cfg.Seed)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	inputs := environment.ObservationSpace().Dims()
	actions := environment.ActionSpace().N

	policyNet, err := dqn.NewNetwork(inputs, cfg.HiddenSize, actions, rng)
	if err != nil {
		return err
	}
	targetNet := policyNet.Clone()

	optimizer, err := dqn.NewOptimizer(policyNet, targetNet, cfg.Gamma, cfg.LearningRate, cfg.GradClip)
	if err != nil {
		return err
	}

	store, err := replay.NewPriorityStore(cfg.Capacity)
	if err != nil {
		return err
	}
	sampler, err := replay.NewSampler(store, cfg.Alpha, cfg.Beta, rng)
	if err != nil {
		return err
	}

	strategy, err := schedule.New(cfg.Schedule)
	if err != nil {
		return err
	}
	pol, err := policy.NewEpsilonGreedy(policyNet, actions, strategy, rng)
	if err != nil {
		return err
	}

	loop, err := trainer.New(trainer.Options{
		Environment: environment,
		Policy:      pol,
		PolicyNet:   policyNet,
		TargetNet:   targetNet,
		Optimizer:   optimizer,
		Store:       store,
		Sampler:     sampler,
		BatchSize:   cfg.BatchSize,
		Tau:         cfg.Tau,
		Metrics:     metrics.NewCollector(logger),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	api := httpapi.NewServer(store, loop, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("status HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info().Msg("shutdown signal received, stopping training")
		cancel()
	}()

	runErr := loop.Run(ctx, cfg.Episodes)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	logger.Info().Str("run_id", loop.RunID()).Msg("qforge stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
