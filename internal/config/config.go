package config

import (
	"os"
	"strconv"

	apperrors "covcheck/internal/errors"
)

// Config holds the engine defaults sourced from the environment.
type Config struct {
	Engine EngineConfig
}

// EngineConfig holds resampling and concurrency defaults.
type EngineConfig struct {
	Repetitions     int     // default simulation/bootstrap repetition count
	Seed            int64   // master seed for Fit and resampling calls
	PruneSeed       int64   // seed for the pruning half-split
	Workers         int     // parallel pool size; 0 means cores-1
	HoldoutFraction float64 // held-out fold fraction
}

// Load reads configuration from environment variables with engine defaults.
func Load() (*Config, error) {
	engine := EngineConfig{
		Repetitions:     1000,
		Seed:            1250,
		PruneSeed:       650,
		Workers:         0,
		HoldoutFraction: 0.2,
	}

	var err error
	if engine.Repetitions, err = intEnv("COVCHECK_REPETITIONS", engine.Repetitions); err != nil {
		return nil, err
	}
	if engine.Seed, err = int64Env("COVCHECK_SEED", engine.Seed); err != nil {
		return nil, err
	}
	if engine.PruneSeed, err = int64Env("COVCHECK_PRUNE_SEED", engine.PruneSeed); err != nil {
		return nil, err
	}
	if engine.Workers, err = intEnv("COVCHECK_WORKERS", engine.Workers); err != nil {
		return nil, err
	}
	if engine.HoldoutFraction, err = floatEnv("COVCHECK_HOLDOUT", engine.HoldoutFraction); err != nil {
		return nil, err
	}

	if engine.Repetitions <= 0 {
		return nil, apperrors.New(apperrors.CodeConfigInvalid, "COVCHECK_REPETITIONS must be positive")
	}
	if engine.HoldoutFraction <= 0 || engine.HoldoutFraction >= 1 {
		return nil, apperrors.New(apperrors.CodeConfigInvalid, "COVCHECK_HOLDOUT must lie in (0,1)")
	}

	return &Config{Engine: engine}, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Wrapf(err, "invalid integer for %s", key)
	}
	return v, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Wrapf(err, "invalid integer for %s", key)
	}
	return v, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.Wrapf(err, "invalid float for %s", key)
	}
	return v, nil
}
