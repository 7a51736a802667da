package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoaderOptions carries the root command's persistent flags that feed
// configuration resolution (--config, --base-dir, --kill-on-leak).
type LoaderOptions struct {
	// ConfigFileFlag is the --config flag value (empty if not set).
	ConfigFileFlag string

	// BaseDirectoryFlag is the --base-dir flag value (empty if not set).
	BaseDirectoryFlag string

	// KillOnCleanupLeakFlag/Set carry --kill-on-leak, which has no
	// natural "unset" zero value.
	KillOnCleanupLeakFlag    bool
	KillOnCleanupLeakFlagSet bool
}

// Load resolves EngineConfig from flags, environment variables, an
// optional YAML config file, and built-in defaults (spec.md §A.3).
// viper (which the teacher declared but never wired) reads only the
// config-file layer; flag and environment layers are resolved directly.
func Load(opts LoaderOptions) (*EngineConfig, []ResolvedValue, error) {
	paths, err := DefaultPaths()
	if err != nil {
		return nil, nil, fmt.Errorf("resolving default paths: %w", err)
	}

	configPath := opts.ConfigFileFlag
	if configPath == "" {
		configPath = os.Getenv("ASSET_COMPUTE_CONFIG")
	}
	if configPath == "" {
		configPath = paths.ConfigFile
	}
	configPath = ExpandTilde(configPath)

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	fileLoaded := false
	if _, statErr := os.Stat(configPath); statErr == nil {
		if readErr := v.ReadInConfig(); readErr != nil {
			return nil, nil, fmt.Errorf("reading config file %s: %w", configPath, readErr)
		}
		fileLoaded = true
	}

	defaults := DefaultEngineConfig()
	cfg := &EngineConfig{}
	var resolved []ResolvedValue

	baseDir, rv := resolveString(
		"base_directory", opts.BaseDirectoryFlag, "WORKER_BASE_DIRECTORY",
		v.GetString("base_directory"), fileLoaded && v.IsSet("base_directory"),
		defaults.BaseDirectory,
	)
	cfg.BaseDirectory = baseDir
	resolved = append(resolved, rv)

	testMode, rv := resolveBool(
		"test_mode", false, false, "ASSET_COMPUTE_TEST_MODE",
		v.GetBool("test_mode"), fileLoaded && v.IsSet("test_mode"),
		defaults.TestMode,
	)
	cfg.TestMode = testMode
	resolved = append(resolved, rv)

	retryEnabled, rv := resolveBool(
		"retry_enabled", false, false, "ASSET_COMPUTE_DISABLE_RETRIES",
		v.GetBool("retry_enabled"), fileLoaded && v.IsSet("retry_enabled"),
		defaults.RetryEnabled,
	)
	if disabled, ok := os.LookupEnv("ASSET_COMPUTE_DISABLE_RETRIES"); ok {
		// ASSET_COMPUTE_DISABLE_RETRIES disables retries, so its sense
		// is inverted relative to the RetryEnabled field it resolves.
		rv.Shadowed[rv.Source] = retryEnabled
		retryEnabled = !truthy(disabled)
		rv.Value, rv.Source = retryEnabled, SourceEnv
	}
	cfg.RetryEnabled = retryEnabled
	resolved = append(resolved, rv)

	killOnLeak, rv := resolveBool(
		"kill_on_cleanup_leak", opts.KillOnCleanupLeakFlag, opts.KillOnCleanupLeakFlagSet, "ASSET_COMPUTE_KILL_ON_LEAK",
		v.GetBool("kill_on_cleanup_leak"), fileLoaded && v.IsSet("kill_on_cleanup_leak"),
		defaults.KillOnCleanupLeak,
	)
	cfg.KillOnCleanupLeak = killOnLeak
	resolved = append(resolved, rv)

	exitCode, rv := resolveInt(
		"cleanup_leak_exit_code", v.GetInt("cleanup_leak_exit_code"), fileLoaded && v.IsSet("cleanup_leak_exit_code"),
		defaults.CleanupLeakExitCode,
	)
	cfg.CleanupLeakExitCode = exitCode
	resolved = append(resolved, rv)

	maxSteps, rv := resolveInt(
		"max_plan_steps", v.GetInt("max_plan_steps"), fileLoaded && v.IsSet("max_plan_steps"),
		defaults.MaxPlanSteps,
	)
	cfg.MaxPlanSteps = maxSteps
	resolved = append(resolved, rv)

	maxExpansions, rv := resolveInt(
		"max_expansions", v.GetInt("max_expansions"), fileLoaded && v.IsSet("max_expansions"),
		defaults.MaxExpansions,
	)
	cfg.MaxExpansions = maxExpansions
	resolved = append(resolved, rv)

	probeTimeout, rv := resolveDuration(
		"metadata_probe_timeout", v.GetDuration("metadata_probe_timeout"), fileLoaded && v.IsSet("metadata_probe_timeout"),
		defaults.MetadataProbeTimeout,
	)
	cfg.MetadataProbeTimeout = probeTimeout
	resolved = append(resolved, rv)

	if fileLoaded && v.IsSet("allowed_user_data_fields") {
		cfg.AllowedUserDataFields = v.GetStringSlice("allowed_user_data_fields")
	} else {
		cfg.AllowedUserDataFields = defaults.AllowedUserDataFields
	}

	if validator, verr := NewValidator(); verr == nil {
		if err := validator.Validate(cfg); err != nil {
			return nil, nil, err
		}
	}

	return cfg, resolved, nil
}

func truthy(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	default:
		return false
	}
}
