package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/khanhnv2901/seca-headers/internal/api/middleware"
	"github.com/khanhnv2901/seca-headers/internal/checker"
	"github.com/khanhnv2901/seca-headers/internal/policy"
	"github.com/khanhnv2901/seca-headers/internal/source"
	sharedErrors "github.com/khanhnv2901/seca-headers/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
	"golang.org/x/time/rate"
)

const (
	apiPrefix           = "/api/v1"
	maxRequestBodyBytes = 1 << 20
)

// Config wires the server to its collaborators.
type Config struct {
	Profiles    *policy.Registry
	Source      checker.HeaderSource // used when an evaluate request carries no headers; nil disables fetching
	Clock       func() time.Time
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // Allowed CORS origins (empty = allow all)
	RateLimit   int      // Requests per second per IP (0 = disabled)
	RateBurst   int      // Burst size for rate limiter
}

// Server exposes the evaluator over HTTP.
type Server struct {
	cfg      Config
	router   *mux.Router
	handler  http.Handler
	limiters *rateLimiterMap
}

// NewServer builds the router and middleware chain.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	srv := &Server{
		cfg:      cfg,
		router:   mux.NewRouter(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	// Middleware chain: RequestID -> Logging -> RateLimit -> CORS -> Router
	srv.handler = middleware.RequestID(srv.withLogging(srv.withRateLimit(srv.withCORS(srv.router))))
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops background maintenance.
func (s *Server) Close() {
	s.limiters.stop()
}

func (s *Server) routes() {
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, errors.New("not found"))
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)

	// Routes live on the root router so a method mismatch reaches MethodNotAllowedHandler.
	s.router.HandleFunc(apiPrefix+"/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle(apiPrefix+"/profiles", s.withAuth(http.HandlerFunc(s.handleProfiles))).Methods(http.MethodGet)
	s.router.Handle(apiPrefix+"/profiles/{name}", s.withAuth(http.HandlerFunc(s.handleProfile))).Methods(http.MethodGet)
	s.router.Handle(apiPrefix+"/evaluate", s.withAuth(http.HandlerFunc(s.handleEvaluate))).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := s.cfg.Profiles.Profiles()
	views := make([]policy.View, 0, len(profiles))
	for _, p := range profiles {
		views = append(views, p.View())
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	p, err := s.cfg.Profiles.Lookup(name)
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p.View())
}

// EvaluateRequest is the body of POST /api/v1/evaluate.
type EvaluateRequest struct {
	URL     string         `json:"url"`
	Profile string         `json:"profile,omitempty"`
	Headers requestHeaders `json:"headers,omitempty"`
}

// requestHeaders accepts either {"Name": "value"} or [{"name": ..., "value": ...}].
type requestHeaders struct {
	set     bool
	headers checker.Headers
}

func (h *requestHeaders) UnmarshalJSON(data []byte) error {
	h.set = true
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		h.set = false
		return nil
	case strings.HasPrefix(trimmed, "{"):
		var m map[string]string
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		h.headers = checker.HeadersFromMap(m)
	case strings.HasPrefix(trimmed, "["):
		var list checker.Headers
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		h.headers = list
	default:
		return errors.New("headers must be an object or a list")
	}
	return nil
}

func (h requestHeaders) validate() error {
	for _, hdr := range h.headers {
		if !httpguts.ValidHeaderFieldName(hdr.Name) {
			return fmt.Errorf("%w: invalid header name %q", sharedErrors.ErrInvalidInput, hdr.Name)
		}
		if !httpguts.ValidHeaderFieldValue(hdr.Value) {
			return fmt.Errorf("%w: invalid value for header %s", sharedErrors.ErrInvalidInput, hdr.Name)
		}
	}
	return nil
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req EvaluateRequest
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	target, err := checker.NormalizeTarget(req.URL)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := s.cfg.Profiles.Lookup(req.Profile)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := req.Headers.validate(); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	headers := req.Headers.headers
	if !req.Headers.set {
		if s.cfg.Source == nil {
			s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("%w: headers", sharedErrors.ErrMissingRequired))
			return
		}
		obs, err := s.cfg.Source.Fetch(r.Context(), target)
		if err != nil {
			status := http.StatusBadGateway
			if !source.IsFetchError(err) {
				status = http.StatusInternalServerError
			}
			s.writeError(w, r, status, err)
			return
		}
		headers = obs.Headers
	}

	var opts []checker.EvaluatorOption
	if s.cfg.Clock != nil {
		opts = append(opts, checker.WithClock(s.cfg.Clock))
	}
	result := checker.NewEvaluator(p, opts...).Evaluate(target, headers)

	s.requestLogger(r).Info("evaluated",
		zap.String("url", result.URL),
		zap.String("profile", result.Profile),
		zap.String("grade", string(result.Grade)),
		zap.Int("score", result.Score))

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientIPFromRequest(r)
		burst := s.cfg.RateBurst
		if burst <= 0 {
			burst = s.cfg.RateLimit
		}
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, burst)

		if !limiter.Allow() {
			s.requestLogger(r).Warn("rate_limit_exceeded", zap.String("client_ip", clientIP))
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIPFromRequest prefers the first X-Forwarded-For entry and drops the port.
func clientIPFromRequest(r *http.Request) string {
	clientIP := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		clientIP = strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(clientIP); err == nil {
		return host
	}
	return clientIP
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowOrigin = ""
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowOrigin = origin
					break
				}
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		s.cfg.Logger.Info("http_request",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
			zap.Int("status", lrw.statusCode),
			zap.Duration("duration", time.Since(start)),
			zap.Int64("bytes", lrw.bytesWritten),
		)
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()

	// 5xx details stay in the server log; an upstream fetch failure is the client's answer.
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error", zap.Error(err), zap.Int("status", status))
		if !source.IsFetchError(err) {
			msg = "internal server error"
		}
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}
	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	done     chan struct{}
	once     sync.Once
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
		done:     make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[ip]
	if !exists {
		limiter = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		m.limiters[ip] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter.limiter
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for ip, limiter := range m.limiters {
				if time.Since(limiter.lastSeen) > 5*time.Minute {
					delete(m.limiters, ip)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *rateLimiterMap) stop() {
	m.once.Do(func() { close(m.done) })
}
