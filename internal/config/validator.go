package config

import (
	"embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema/config.cue
var schemaFS embed.FS

// Validator validates a resolved EngineConfig against the embedded
// #EngineConfig CUE schema, mirroring the teacher's
// internal/config/validator.go CUE-schema check.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema once.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	src, err := schemaFS.ReadFile("schema/config.cue")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config schema: %w", err)
	}

	schema := ctx.CompileBytes(src)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling config schema: %w", schema.Err())
	}

	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate checks cfg against #EngineConfig's bounds.
func (v *Validator) Validate(cfg *EngineConfig) error {
	allowedFields := cfg.AllowedUserDataFields
	if allowedFields == nil {
		allowedFields = []string{}
	}

	value := v.ctx.Encode(map[string]any{
		"base_directory":           cfg.BaseDirectory,
		"test_mode":                cfg.TestMode,
		"retry_enabled":            cfg.RetryEnabled,
		"kill_on_cleanup_leak":     cfg.KillOnCleanupLeak,
		"cleanup_leak_exit_code":   cfg.CleanupLeakExitCode,
		"metadata_probe_timeout":   int64(cfg.MetadataProbeTimeout),
		"max_plan_steps":           cfg.MaxPlanSteps,
		"max_expansions":           cfg.MaxExpansions,
		"allowed_user_data_fields": allowedFields,
	})
	if value.Err() != nil {
		return fmt.Errorf("encoding config for validation: %w", value.Err())
	}

	def := v.schema.LookupPath(cue.ParsePath("#EngineConfig"))
	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("config does not satisfy #EngineConfig schema: %w", err)
	}

	return nil
}
