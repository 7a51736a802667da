// Package config loads and resolves the engine's ambient operating
// parameters (spec.md §4.5, §5), generalizing the teacher's
// CUE-registry/Kubernetes config into internal/config.EngineConfig.
package config

import "time"

// EngineConfig carries the engine's operating parameters as loaded
// from flags, environment variables, an optional config file, and
// built-in defaults. The render command converts this into
// engine.EngineConfig once resolution settles.
type EngineConfig struct {
	// BaseDirectory is the parent of every activation's working
	// directory. Env: WORKER_BASE_DIRECTORY.
	BaseDirectory string `mapstructure:"base_directory"`

	// TestMode marks a test run. It is resolved and recorded in the
	// configuration trace; no engine component reads it.
	// Env: ASSET_COMPUTE_TEST_MODE.
	TestMode bool `mapstructure:"test_mode"`

	// RetryEnabled governs whether the transfer adapter retries failed
	// downloads; uploads are not retried either way.
	// Env: ASSET_COMPUTE_DISABLE_RETRIES (inverted).
	RetryEnabled bool `mapstructure:"retry_enabled"`

	// KillOnCleanupLeak terminates the process when a working
	// directory cannot be removed during cleanup.
	// Env: ASSET_COMPUTE_KILL_ON_LEAK.
	KillOnCleanupLeak bool `mapstructure:"kill_on_cleanup_leak"`

	// CleanupLeakExitCode is the exit code used when KillOnCleanupLeak fires.
	CleanupLeakExitCode int `mapstructure:"cleanup_leak_exit_code"`

	// MetadataProbeTimeout bounds a single exiftool/mediainfo shell-out.
	MetadataProbeTimeout time.Duration `mapstructure:"metadata_probe_timeout"`

	// MaxPlanSteps bounds a single plan's step count (spec.md §3).
	MaxPlanSteps int `mapstructure:"max_plan_steps"`

	// MaxExpansions bounds the plan finder's BFS visit counter (spec.md §4.3).
	MaxExpansions int `mapstructure:"max_expansions"`

	// AllowedUserDataFields allow-lists the fields of a request's
	// UserData bag forwarded to transformers.
	AllowedUserDataFields []string `mapstructure:"allowed_user_data_fields"`
}

// DefaultEngineConfig returns the built-in defaults (spec.md §A.3).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		BaseDirectory:        "work",
		RetryEnabled:         true,
		KillOnCleanupLeak:    true,
		CleanupLeakExitCode:  70,
		MetadataProbeTimeout: 30 * time.Second,
		MaxPlanSteps:         100,
		MaxExpansions:        300,
	}
}

// Source indicates where a resolved configuration value came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceConfig  Source = "config"
	SourceDefault Source = "default"
)

// ResolvedValue tracks one configuration key's resolved value and the
// chain of lower-precedence sources it shadowed. Printed by `render
// --verbose` (SPEC_FULL.md §C.2).
type ResolvedValue struct {
	Key      string
	Value    any
	Source   Source
	Shadowed map[Source]any
}
