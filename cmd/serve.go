package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khanhnv2901/seca-headers/internal/api"
	"github.com/khanhnv2901/seca-headers/internal/source"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	addr            string
	authToken       string
	shutdownTimeout time.Duration
	corsOrigins     []string
	rateLimit       int
	rateBurst       int
	noFetch         bool
}

func newServeCmd(cfg *CLIConfig) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the header evaluator as a REST API service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.addr, "addr", "127.0.0.1:8080", "Address for the API server")
	flags.StringVar(&opts.authToken, "auth-token", "", "Optional shared secret for API requests")
	flags.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")
	flags.StringSliceVar(&opts.corsOrigins, "cors-origins", []string{}, "Allowed CORS origins (empty = allow all)")
	flags.IntVar(&opts.rateLimit, "rate-limit", 10, "Rate limit per IP (requests/second, 0 = disabled)")
	flags.IntVar(&opts.rateBurst, "rate-burst", 20, "Rate limit burst size")
	flags.BoolVar(&opts.noFetch, "no-fetch", false, "Only evaluate headers supplied in the request body")
	flags.IntVar(&cfg.Check.TimeoutSecs, "timeout", cfg.Check.TimeoutSecs, "Per-request fetch timeout in seconds")
	flags.StringVar(&cfg.Check.UserAgent, "user-agent", cfg.Check.UserAgent, "User-Agent sent when fetching headers")

	return cmd
}

func newAPIServer(appCtx *AppContext, opts *serveOptions) *api.Server {
	logger := appCtx.Logger.Desugar()
	cfg := api.Config{
		Profiles:    appCtx.Profiles,
		AuthToken:   opts.authToken,
		Logger:      logger,
		CORSOrigins: opts.corsOrigins,
		RateLimit:   opts.rateLimit,
		RateBurst:   opts.rateBurst,
	}
	if !opts.noFetch {
		src := source.NewHTTPSource(logger)
		if secs := appCtx.Config.Check.TimeoutSecs; secs > 0 {
			src.Timeout = time.Duration(secs) * time.Second
		}
		if ua := appCtx.Config.Check.UserAgent; ua != "" {
			src.UserAgent = ua
		}
		cfg.Source = src
	}
	return api.NewServer(cfg)
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	appCtx := getAppContext(cmd)
	server := newAPIServer(appCtx, opts)
	defer server.Close()

	httpServer := &http.Server{
		Addr:              opts.addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	out := cmd.OutOrStdout()

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Fprintf(out, "%s API server listening on %s\n", colorInfo("→"), opts.addr)
		fmt.Fprintf(out, "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
		serverErrors <- httpServer.ListenAndServe()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		fmt.Fprintf(out, "\n%s Shutdown requested, draining connections...\n", colorInfo("→"))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			if closeErr := httpServer.Close(); closeErr != nil {
				return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
			}
			return fmt.Errorf("failed to gracefully shutdown server: %w", err)
		}

		fmt.Fprintf(out, "%s Server shutdown complete\n", colorSuccess("✓"))
	}

	return nil
}
