package cmd

import (
	"github.com/khanhnv2901/seca-headers/internal/policy"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultTimeoutSeconds = 10
	defaultConcurrency    = 4
	defaultResultsDir     = "./results"
	defaultLogLevel       = "warn"
	defaultFormat         = "text"
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Defaults DefaultValues
	Check    CheckRuntimeConfig
}

// DefaultValues hold settings that apply to every command.
type DefaultValues struct {
	ResultsDir string
	LogLevel   string
}

// CheckRuntimeConfig consolidates flag-driven settings for the check and serve commands.
type CheckRuntimeConfig struct {
	Profile           string
	Format            string
	TimeoutSecs       int
	Concurrency       int
	RateLimit         int
	NoFollowRedirects bool
	UserAgent         string
	NoHistory         bool
}

type defaultOverrides struct {
	Profile         string
	Format          string
	UserAgent       string
	ResultsDir      string
	LogLevel        string
	TimeoutSecs     *int
	Concurrency     *int
	RateLimit       *int
	FollowRedirects *bool
	History         *bool
}

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Defaults: DefaultValues{
			ResultsDir: defaultResultsDir,
			LogLevel:   defaultLogLevel,
		},
		Check: CheckRuntimeConfig{
			Profile:     policy.DefaultProfile,
			Format:      defaultFormat,
			TimeoutSecs: defaultTimeoutSeconds,
			Concurrency: defaultConcurrency,
			UserAgent:   consts.DefaultUserAgent,
		},
	}
}

func loadDefaultOverrides(v *viper.Viper) defaultOverrides {
	overrides := defaultOverrides{}

	if v.IsSet("defaults.profile") {
		overrides.Profile = v.GetString("defaults.profile")
	}

	if v.IsSet("defaults.format") {
		overrides.Format = v.GetString("defaults.format")
	}

	if v.IsSet("defaults.user_agent") {
		overrides.UserAgent = v.GetString("defaults.user_agent")
	}

	if v.IsSet("defaults.results_dir") {
		overrides.ResultsDir = v.GetString("defaults.results_dir")
	}

	if v.IsSet("log_level") {
		overrides.LogLevel = v.GetString("log_level")
	}

	if v.IsSet("defaults.timeout_secs") {
		val := v.GetInt("defaults.timeout_secs")
		overrides.TimeoutSecs = &val
	}

	if v.IsSet("defaults.concurrency") {
		val := v.GetInt("defaults.concurrency")
		overrides.Concurrency = &val
	}

	if v.IsSet("defaults.rate_limit") {
		val := v.GetInt("defaults.rate_limit")
		overrides.RateLimit = &val
	}

	if v.IsSet("defaults.follow_redirects") {
		val := v.GetBool("defaults.follow_redirects")
		overrides.FollowRedirects = &val
	}

	if v.IsSet("defaults.history") {
		val := v.GetBool("defaults.history")
		overrides.History = &val
	}

	return overrides
}

// applyConfigDefaults merges config file and environment defaults into cfg when
// the user did not explicitly set the corresponding flag.
func applyConfigDefaults(flags *pflag.FlagSet, v *viper.Viper, cfg *CLIConfig) {
	overrides := loadDefaultOverrides(v)

	if overrides.Profile != "" {
		applyStringDefault(flags, "profile", overrides.Profile, func(s string) { cfg.Check.Profile = s })
	}

	if overrides.Format != "" {
		applyStringDefault(flags, "format", overrides.Format, func(s string) { cfg.Check.Format = s })
	}

	if overrides.UserAgent != "" {
		applyStringDefault(flags, "user-agent", overrides.UserAgent, func(s string) { cfg.Check.UserAgent = s })
	}

	if overrides.ResultsDir != "" {
		applyStringDefault(flags, "results-dir", overrides.ResultsDir, func(s string) { cfg.Defaults.ResultsDir = s })
	}

	if overrides.LogLevel != "" {
		applyStringDefault(flags, "log-level", overrides.LogLevel, func(s string) { cfg.Defaults.LogLevel = s })
	}

	if overrides.TimeoutSecs != nil {
		applyIntDefault(flags, "timeout", *overrides.TimeoutSecs, func(v int) { cfg.Check.TimeoutSecs = v })
	}

	if overrides.Concurrency != nil {
		applyIntDefault(flags, "concurrency", *overrides.Concurrency, func(v int) { cfg.Check.Concurrency = v })
	}

	if overrides.RateLimit != nil {
		applyIntDefault(flags, "rate-limit", *overrides.RateLimit, func(v int) { cfg.Check.RateLimit = v })
	}

	if overrides.FollowRedirects != nil {
		applyBoolDefault(flags, "no-follow-redirects", !*overrides.FollowRedirects, func(v bool) { cfg.Check.NoFollowRedirects = v })
	}

	if overrides.History != nil {
		applyBoolDefault(flags, "no-history", !*overrides.History, func(v bool) { cfg.Check.NoHistory = v })
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyStringDefault(flags *pflag.FlagSet, name, value string, setter func(string)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}
