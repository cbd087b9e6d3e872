package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/khanhnv2901/seca-headers/internal/checker"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
	"go.uber.org/zap"
)

// HTTPSource fetches headers with a live GET request.
type HTTPSource struct {
	Timeout         time.Duration
	FollowRedirects bool
	UserAgent       string
	Logger          *zap.Logger

	// Transport overrides the default round tripper, mainly for tests.
	Transport http.RoundTripper
}

// NewHTTPSource returns an HTTPSource with the default timeout and user agent.
func NewHTTPSource(logger *zap.Logger) *HTTPSource {
	return &HTTPSource{
		Timeout:         consts.DefaultFetchTimeout,
		FollowRedirects: true,
		UserAgent:       consts.DefaultUserAgent,
		Logger:          logger,
	}
}

func (s *HTTPSource) client() *http.Client {
	client := &http.Client{Timeout: s.Timeout, Transport: s.Transport}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if !s.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= consts.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", consts.MaxRedirects)
		}
		return nil
	}
	return client
}

// Fetch performs a GET against target and returns the response headers.
// Any status code counts as a successful observation; only transport
// failures become a FetchError.
func (s *HTTPSource) Fetch(ctx context.Context, target string) (checker.Observation, error) {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	u, err := checker.NormalizeTarget(target)
	if err != nil {
		return checker.Observation{}, &FetchError{Target: target, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return checker.Observation{}, &FetchError{Target: target, Err: fmt.Errorf("create request: %w", err)}
	}
	ua := s.UserAgent
	if ua == "" {
		ua = consts.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	start := time.Now()
	resp, err := s.client().Do(req)
	if err != nil {
		return checker.Observation{}, &FetchError{Target: target, Err: err}
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused - ignore errors as this is just cleanup
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, consts.BodyDrainLimitBytes))

	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	logger.Debug("fetched headers",
		zap.String("url", u),
		zap.String("final_url", finalURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("headers", len(resp.Header)),
		zap.Duration("elapsed", time.Since(start)))

	return checker.Observation{
		URL:        u,
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Headers:    checker.HeadersFromHTTP(resp.Header),
	}, nil
}
