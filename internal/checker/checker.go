package checker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Observation is what a HeaderSource saw for one target.
type Observation struct {
	URL        string  `json:"url"`
	FinalURL   string  `json:"final_url,omitempty"`
	StatusCode int     `json:"status,omitempty"`
	Headers    Headers `json:"headers"`
}

// HeaderSource supplies observed headers. The engine never fetches anything
// itself; live HTTP, replay files and fixtures all sit behind this interface.
type HeaderSource interface {
	Fetch(ctx context.Context, target string) (Observation, error)
}

// Outcome is the result of auditing one target: either a validation result
// or the reason its headers could not be obtained.
type Outcome struct {
	ID         string            `json:"id"`
	Target     string            `json:"target"`
	FinalURL   string            `json:"final_url,omitempty"`
	StatusCode int               `json:"http_status,omitempty"`
	Result     *ValidationResult `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMS float64           `json:"duration_ms"`

	err error
}

// FetchFailed reports whether the target's headers could not be obtained.
func (o Outcome) FetchFailed() bool {
	return o.Result == nil
}

// Err returns the fetch error, if any.
func (o Outcome) Err() error {
	return o.err
}

// AuditFunc is a callback invoked once per target after it completes.
type AuditFunc func(target string, outcome Outcome, duration float64) error

// Runner orchestrates fetching and evaluation with concurrency and rate limiting
type Runner struct {
	Concurrency int           // Maximum number of concurrent fetches
	RateLimit   int           // Requests per second (global)
	Timeout     time.Duration // Timeout for each fetch
	Logger      *zap.Logger
}

// Run fetches each target from source and evaluates it. Outcomes are returned
// in target order regardless of completion order.
func (r *Runner) Run(ctx context.Context, targets []string, source HeaderSource, evaluator *Evaluator, auditFn AuditFunc) []Outcome {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	concurrency := r.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	limit := rate.Inf
	burst := 1
	if r.RateLimit > 0 {
		limit = rate.Limit(r.RateLimit)
		burst = r.RateLimit
	}
	limiter := rate.NewLimiter(limit, burst)

	outcomes := make([]Outcome, len(targets))
	p := pool.New().WithMaxGoroutines(concurrency)

	for i, target := range targets {
		p.Go(func() {
			start := time.Now()
			outcome := Outcome{ID: uuid.NewString(), Target: target}

			var obs Observation
			err := limiter.Wait(ctx)
			if err == nil {
				fetchCtx := ctx
				if r.Timeout > 0 {
					var cancel context.CancelFunc
					fetchCtx, cancel = context.WithTimeout(ctx, r.Timeout)
					defer cancel()
				}
				obs, err = source.Fetch(fetchCtx, target)
			}
			if err != nil {
				outcome.err = err
				outcome.Error = err.Error()
				logger.Warn("fetch failed", zap.String("target", target), zap.Error(err))
			} else {
				url := obs.URL
				if url == "" {
					url = target
				}
				result := evaluator.Evaluate(url, obs.Headers)
				outcome.Result = &result
				outcome.FinalURL = obs.FinalURL
				outcome.StatusCode = obs.StatusCode
				logger.Debug("evaluated",
					zap.String("target", target),
					zap.String("grade", string(result.Grade)),
					zap.Int("score", result.Score),
					zap.Int("max_score", result.MaxScore))
			}

			duration := time.Since(start).Seconds()
			outcome.DurationMS = duration * 1000

			if auditFn != nil {
				if err := auditFn(target, outcome, duration); err != nil {
					logger.Warn("audit callback failed", zap.String("target", target), zap.Error(err))
				}
			}

			outcomes[i] = outcome
		})
	}

	p.Wait()
	return outcomes
}
