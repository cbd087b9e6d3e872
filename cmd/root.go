package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/khanhnv2901/seca-headers/internal/policy"
	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "SECA_HEADERS"

// AppContext carries what every subcommand needs once the root command has
// read configuration.
type AppContext struct {
	Logger     *zap.SugaredLogger
	Config     *CLIConfig
	Profiles   *policy.Registry
	ResultsDir string
}

type appContextKey struct{}

var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if cmd != nil {
		if ctx := cmd.Context(); ctx != nil {
			if appCtx, ok := ctx.Value(appContextKey{}).(*AppContext); ok {
				return appCtx
			}
		}
	}
	return globalAppContext
}

type rootOptions struct {
	cfgFile string
	viper   *viper.Viper
	config  *CLIConfig
}

var rootCmd *cobra.Command

func init() {
	rootCmd = NewRootCmd()
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{
		viper:  viper.New(),
		config: newCLIConfig(),
	}

	cmd := &cobra.Command{
		Use:   "seca-headers",
		Short: "Validate HTTP security headers against a named policy",
		Long: `seca-headers evaluates the security headers a site returns against a policy
profile, scores each header, assigns a letter grade and explains what to fix.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.initialize(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx := getAppContext(cmd); appCtx != nil && appCtx.Logger != nil {
				_ = appCtx.Logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "config file (default is $HOME/.seca-headers.yaml)")
	flags.StringVar(&opts.config.Defaults.ResultsDir, "results-dir", defaultResultsDir, "directory for history and saved reports")
	flags.StringVar(&opts.config.Defaults.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	cmd.AddCommand(newCheckCmd(opts.config))
	cmd.AddCommand(newPolicyCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newServeCmd(opts.config))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (o *rootOptions) initialize(cmd *cobra.Command) error {
	if err := o.readConfig(); err != nil {
		return err
	}
	applyConfigDefaults(cmd.Flags(), o.viper, o.config)

	l, err := newLogger(o.config.Defaults.LogLevel)
	if err != nil {
		return err
	}
	logger := l.Sugar()

	profiles, err := policy.Builtin()
	if err != nil {
		return fmt.Errorf("load built-in profiles: %w", err)
	}

	resultsDir := o.config.Defaults.ResultsDir
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}
	// Make final resultsDir absolute (for clarity in logs)
	if abs, err := filepath.Abs(resultsDir); err == nil {
		resultsDir = abs
	}

	logger.Debugw("configuration loaded",
		"config_file", o.viper.ConfigFileUsed(),
		"results_dir", resultsDir,
		"profile", o.config.Check.Profile,
	)

	storeAppContext(cmd, &AppContext{
		Logger:     logger,
		Config:     o.config,
		Profiles:   profiles,
		ResultsDir: resultsDir,
	})
	return nil
}

func (o *rootOptions) readConfig() error {
	v := o.viper
	if o.cfgFile != "" {
		v.SetConfigFile(o.cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".seca-headers")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q", sharedErrors.ErrInvalidInput, level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// Execute runs the root command and exits with the code the error maps to.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", colorError("Error:"), err)
		cancel()
		os.Exit(ExitCodeFromError(err))
	}
}
