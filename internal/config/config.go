package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Target end policies for the backward pass.
const (
	TargetEndComputed = "computed"
	TargetEndDeclared = "declared"
)

// Config represents the complete planloom configuration
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
}

// EngineConfig controls scheduling calculations
type EngineConfig struct {
	// InProgressDefault is the completion percent assumed for in-progress
	// tasks without an explicit percentage (0-100)
	InProgressDefault int `mapstructure:"in_progress_default"`
	// TargetEnd selects the latest finish for sink tasks.
	// Options: "computed" (max earliest finish), "declared" (schedule end date
	// when it is later than the computed finish)
	TargetEnd string `mapstructure:"target_end"`
	// UpcomingDays is the default lookahead for deadline queries
	UpcomingDays int `mapstructure:"upcoming_days"`
}

// LoggerConfig controls the zap logger
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // "console" or "json"
}

// WorkspaceConfig locates the CLI's schedule file
type WorkspaceConfig struct {
	Path string `mapstructure:"path"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			InProgressDefault: 50,
			TargetEnd:         TargetEndComputed,
			UpcomingDays:      7,
		},
		Logger: LoggerConfig{
			Level:    "info",
			Encoding: "console",
		},
		Workspace: WorkspaceConfig{
			Path: ".planloom/workspace.json",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("engine.in_progress_default", defaults.Engine.InProgressDefault)
	viper.SetDefault("engine.target_end", defaults.Engine.TargetEnd)
	viper.SetDefault("engine.upcoming_days", defaults.Engine.UpcomingDays)

	viper.SetDefault("logger.level", defaults.Logger.Level)
	viper.SetDefault("logger.encoding", defaults.Logger.Encoding)

	viper.SetDefault("workspace.path", defaults.Workspace.Path)
}

// Init sets defaults, wires environment variables and reads the config file
// if one exists. An explicit cfgFile that cannot be read is an error.
func Init(cfgFile string) error {
	SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("planloom")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/planloom")
	}

	viper.SetEnvPrefix("PLANLOOM")
	// e.g. PLANLOOM_ENGINE_TARGET_END for engine.target_end
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

// Watch calls fn with the reloaded configuration whenever the config file
// changes. Invalid reloads are skipped.
func Watch(fn func(*Config)) {
	viper.OnConfigChange(func(in fsnotify.Event) {
		if !in.Has(fsnotify.Write) && !in.Has(fsnotify.Create) {
			return
		}
		if cfg, err := Load(); err == nil {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Engine.InProgressDefault < 0 || c.Engine.InProgressDefault > 100 {
		errs = append(errs, ValidationError{"engine.in_progress_default", c.Engine.InProgressDefault, "must be between 0 and 100"})
	}
	if c.Engine.TargetEnd != TargetEndComputed && c.Engine.TargetEnd != TargetEndDeclared {
		errs = append(errs, ValidationError{"engine.target_end", c.Engine.TargetEnd, "must be computed or declared"})
	}
	if c.Engine.UpcomingDays < 0 {
		errs = append(errs, ValidationError{"engine.upcoming_days", c.Engine.UpcomingDays, "must not be negative"})
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logger.Level)) {
		errs = append(errs, ValidationError{"logger.level", c.Logger.Level, "must be one of " + strings.Join(ValidLogLevels(), ", ")})
	}
	if c.Logger.Encoding != "console" && c.Logger.Encoding != "json" {
		errs = append(errs, ValidationError{"logger.encoding", c.Logger.Encoding, "must be console or json"})
	}
	if c.Workspace.Path == "" {
		errs = append(errs, ValidationError{"workspace.path", c.Workspace.Path, "must not be empty"})
	}

	return errs
}
