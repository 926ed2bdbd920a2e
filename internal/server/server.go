package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osse101/playerledger/internal/auth"
	"github.com/osse101/playerledger/internal/database"
	"github.com/osse101/playerledger/internal/handler"
	"github.com/osse101/playerledger/internal/logger"
	"github.com/osse101/playerledger/internal/metrics"
	"github.com/osse101/playerledger/internal/rpc"
)

// Config holds the HTTP surface settings.
type Config struct {
	Port           int
	TrustedProxies []string
	MaxBodyBytes   int64
	AccountRate    float64
	AccountBurst   int
	CatalogVersion string
}

type Server struct {
	httpServer *http.Server
	dbPool     database.Pool
}

// NewServer wires the RPC protocol, session authentication and operational
// endpoints. dbPool may be nil when the ledger runs without a database.
func NewServer(cfg Config, dispatcher *rpc.Dispatcher, issuer *auth.Issuer, dbPool database.Pool) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, dispatcher, issuer, dbPool),
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
		},
		dbPool: dbPool,
	}
}

// NewRouter builds the chi router NewServer serves.
func NewRouter(cfg Config, dispatcher *rpc.Dispatcher, issuer *auth.Issuer, dbPool database.Pool) http.Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.AccountRate <= 0 {
		cfg.AccountRate = DefaultAccountRate
	}
	if cfg.AccountBurst <= 0 {
		cfg.AccountBurst = DefaultAccountBurst
	}

	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()
	limiter := NewAccountLimiter(cfg.AccountRate, cfg.AccountBurst, DefaultLimiterCacheSize, DefaultLimiterIdleTTL)

	r.Use(SecurityHeadersMiddleware())
	r.Use(loggingMiddleware)
	r.Use(SecurityLoggingMiddleware(cfg.TrustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(cfg.MaxBodyBytes))
	r.Use(metrics.Middleware)
	r.Use(SessionMiddleware(issuer, cfg.TrustedProxies, detector))
	r.Use(limiter.Middleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Version endpoint (public, for deployment verification)
	r.Get("/version", handler.HandleVersion(cfg.CatalogVersion))

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Post(rpc.AuthenticatePath, handler.HandleAuthenticate(issuer))
	r.Post(rpc.RPCPathPrefix+"{id}", handler.HandleRPC(dispatcher))

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		// Use HasPrefix to catch potential variations (e.g. /healthz/)
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		// Generate unique request ID
		requestID := logger.GenerateRequestID()

		// Add request ID to context
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		// Get scoped logger
		log := logger.FromContext(ctx)

		// Log request start with details
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		// Wrap response writer to capture status code
		rw := newResponseWriter(w)

		// Process request
		next.ServeHTTP(rw, r)

		// Log request completion with metrics
		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
