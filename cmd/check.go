package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/khanhnv2901/seca-headers/internal/checker"
	"github.com/khanhnv2901/seca-headers/internal/history"
	"github.com/khanhnv2901/seca-headers/internal/report"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
	"github.com/khanhnv2901/seca-headers/internal/shared/security"
	"github.com/khanhnv2901/seca-headers/internal/source"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	output   string
	replay   string
	record   string
	noColor  bool
	progress bool
}

func newCheckCmd(cfg *CLIConfig) *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [url...]",
		Short: "Evaluate the security headers of one or more URLs",
		Long: `Fetch each URL (or read it from a replay file), evaluate its response headers
against a policy profile and print a report.

URLs without a scheme are treated as https. When no URL is given as an
argument, one URL per line is read from stdin.

Exit status is 0 when every target grades A to C, 2 when any target grades
D or F, and 1 when headers could not be fetched or the command failed.`,
		Example: `  seca-headers check example.com
  seca-headers check --profile strict --format json https://example.com
  seca-headers check --replay fixtures.yaml --format html --output report.html example.com
  cat urls.txt | seca-headers check --format md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Check.Profile, "profile", "p", cfg.Check.Profile, "policy profile to evaluate against")
	flags.StringVarP(&cfg.Check.Format, "format", "f", cfg.Check.Format, "report format (text, json, html, md, pdf)")
	flags.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	flags.StringVar(&opts.replay, "replay", "", "read headers from a replay file instead of the network")
	flags.StringVar(&opts.record, "record", "", "save fetched headers to a replay file")
	flags.BoolVar(&cfg.Check.NoFollowRedirects, "no-follow-redirects", false, "evaluate the first response instead of following redirects")
	flags.IntVar(&cfg.Check.Concurrency, "concurrency", cfg.Check.Concurrency, "maximum number of targets fetched at once")
	flags.IntVar(&cfg.Check.RateLimit, "rate-limit", 0, "maximum fetches per second across all targets (0 = unlimited)")
	flags.IntVar(&cfg.Check.TimeoutSecs, "timeout", cfg.Check.TimeoutSecs, "per-target fetch timeout in seconds")
	flags.StringVar(&cfg.Check.UserAgent, "user-agent", cfg.Check.UserAgent, "User-Agent sent with live requests")
	flags.BoolVar(&cfg.Check.NoHistory, "no-history", false, "do not append this run to the history file")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable coloured text output")
	flags.BoolVar(&opts.progress, "progress", false, "show a live progress line on stderr")

	cmd.MarkFlagsMutuallyExclusive("replay", "record")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *checkOptions) error {
	appCtx := getAppContext(cmd)
	cfg := appCtx.Config.Check
	ctx := cmd.Context()

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if format.Binary() && opts.output == "" {
		return fmt.Errorf("%w: %s reports need --output", sharedErrors.ErrMissingRequired, format)
	}

	p, err := appCtx.Profiles.Lookup(cfg.Profile)
	if err != nil {
		return err
	}

	targets, err := collectTargets(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: provide at least one URL as an argument or on stdin", sharedErrors.ErrMissingRequired)
	}

	src, err := buildSource(appCtx, cfg, opts)
	if err != nil {
		return err
	}

	runner := &checker.Runner{
		Concurrency: cfg.Concurrency,
		RateLimit:   cfg.RateLimit,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		Logger:      appCtx.Logger.Desugar(),
	}
	evaluator := checker.NewEvaluator(p)

	var progress *progressPrinter
	if opts.progress {
		progress = newProgressPrinter(cmd.ErrOrStderr(), len(targets))
		progress.Start()
	}

	appCtx.Logger.Infow("starting header check", "targets", len(targets), "profile", p.Name())
	outcomes := runner.Run(ctx, targets, src, evaluator, func(target string, o checker.Outcome, duration float64) error {
		if progress != nil {
			progress.Observe(o, duration)
		}
		if o.FetchFailed() {
			appCtx.Logger.Warnw("fetch failed", "target", target, "error", o.Error, "duration_secs", duration)
			return nil
		}
		appCtx.Logger.Infow("target evaluated", "target", target, "grade", o.Result.Grade, "score", o.Result.Score, "duration_secs", duration)
		return nil
	})
	if progress != nil {
		progress.Stop()
	}

	renderOpts := report.Options{
		Color: opts.output == "" && !opts.noColor && !color.NoColor && cmd.OutOrStdout() == os.Stdout,
	}
	if err := writeReport(cmd, opts.output, format, outcomes, renderOpts); err != nil {
		return err
	}

	if !cfg.NoHistory {
		if err := appendHistory(ctx, appCtx.ResultsDir, outcomes); err != nil {
			appCtx.Logger.Warnw("failed to append history", "results_dir", appCtx.ResultsDir, "error", err)
		}
	}

	return outcomeError(outcomes)
}

// collectTargets normalises URLs from args, or from one-per-line input when
// args is empty. Blank lines and lines starting with # are skipped.
func collectTargets(args []string, in io.Reader) ([]string, error) {
	raw := args
	if len(raw) == 0 && in != nil && !isTerminal(in) {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read targets: %w", err)
		}
	}

	targets := make([]string, 0, len(raw))
	for _, t := range raw {
		normalized, err := checker.NormalizeTarget(t)
		if err != nil {
			return nil, fmt.Errorf("target %q: %w", t, err)
		}
		targets = append(targets, normalized)
	}
	return targets, nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func buildSource(appCtx *AppContext, cfg CheckRuntimeConfig, opts *checkOptions) (checker.HeaderSource, error) {
	logger := appCtx.Logger.Desugar()

	if opts.replay != "" {
		return source.NewReplaySource(filepath.Clean(opts.replay))
	}

	httpSource := source.NewHTTPSource(logger)
	if cfg.TimeoutSecs > 0 {
		httpSource.Timeout = time.Duration(cfg.TimeoutSecs) * time.Second
	}
	httpSource.FollowRedirects = !cfg.NoFollowRedirects
	if cfg.UserAgent != "" {
		httpSource.UserAgent = cfg.UserAgent
	}

	if opts.record != "" {
		return &source.Recorder{Source: httpSource, Path: filepath.Clean(opts.record), Logger: logger}, nil
	}
	return httpSource, nil
}

func writeReport(cmd *cobra.Command, output string, format report.Format, outcomes []checker.Outcome, opts report.Options) (err error) {
	if output == "" {
		return report.Render(cmd.OutOrStdout(), format, outcomes, opts)
	}

	path := filepath.Clean(output)
	if err := security.EnsureParentDir(path, consts.DefaultDirPerm); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, consts.DefaultFilePerm) // #nosec G304 -- path supplied by the operator.
	if err != nil {
		return fmt.Errorf("open report file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", cerr)
		}
	}()

	if err := report.Render(f, format, outcomes, opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s Report written to %s\n", colorSuccess("✓"), path)
	return nil
}

func appendHistory(ctx context.Context, resultsDir string, outcomes []checker.Outcome) error {
	store, err := history.NewStore(resultsDir)
	if err != nil {
		return err
	}
	return store.Append(ctx, history.RecordsFromOutcomes(outcomes, time.Now().UTC()))
}

// outcomeError turns a finished run into the error that decides the exit
// code. Fetch failures take precedence over failing grades.
func outcomeError(outcomes []checker.Outcome) error {
	var unreachable, failing []string
	for _, o := range outcomes {
		switch {
		case o.FetchFailed():
			unreachable = append(unreachable, o.Target)
		case o.Result.Grade.Failing():
			failing = append(failing, o.Target)
		}
	}
	if len(unreachable) > 0 {
		return &FetchFailedError{Targets: unreachable}
	}
	if len(failing) > 0 {
		return &GradeThresholdError{Targets: failing}
	}
	return nil
}
