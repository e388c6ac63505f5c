// Package server is the HTTP boundary around the compressor: upload
// handling, temp-file lifecycle, response metadata, the static frontend and
// operational endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/toricodesthings/pdf-compression-service/internal/compressor"
	"github.com/toricodesthings/pdf-compression-service/internal/config"
	"github.com/toricodesthings/pdf-compression-service/internal/engine"
)

const version = "1.0.0"

// Compressor is what the handlers need from compressor.Compressor.
type Compressor interface {
	Compress(ctx context.Context, req compressor.Request) compressor.Result
	Engine() engine.Handle
	Timeout() time.Duration
	PresetOnly() bool
}

type Server struct {
	cfg    config.Config
	comp   Compressor
	logger *slog.Logger

	requestSem *semaphore.Weighted

	limMu    sync.Mutex
	limiters map[string]*rate.Limiter

	metrics *serverMetrics
}

func New(cfg config.Config, comp Compressor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:        cfg,
		comp:       comp,
		logger:     logger,
		requestSem: semaphore.NewWeighted(cfg.MaxConcurrentRequests),
		limiters:   make(map[string]*rate.Limiter),
		metrics:    &serverMetrics{},
	}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "not_found", "Not found")
	})
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	api.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)
	api.HandleFunc("/debug", s.handleDebug).Methods(http.MethodGet)
	api.HandleFunc("/compress",
		s.withRateLimit(
			s.withConcurrencyLimit(s.handleCompress))).Methods(http.MethodPost)

	r.PathPrefix("/").
		MatcherFunc(notAPI).
		Methods(http.MethodGet, http.MethodHead).
		Handler(spaHandler{staticPath: s.cfg.FrontendDir, indexPath: "index.html"})

	return s.withLogging(s.withRecovery(withCORS(r)))
}

// HTTPServer builds an http.Server from the configured timeouts.
func (s *Server) HTTPServer() *http.Server {
	maxHeaderBytes := 1 << 20
	if s.cfg.MaxHeaderBytes > 0 {
		maxHeaderBytes = s.cfg.MaxHeaderBytes
	}
	return &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
}

// RunHousekeeping logs periodic stats and drops idle rate limiters until ctx
// is done.
func (s *Server) RunHousekeeping(ctx context.Context) {
	interval := s.cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snap := s.metrics.snapshot()
		s.logger.Info("stats",
			"active", snap.active,
			"total", snap.total,
			"compressions", snap.compressions,
			"failures", snap.failures,
			"goroutines", runtime.NumGoroutine(),
			"mem_mb", m.Alloc/(1<<20),
		)

		// simple clear; a limiter that is mid-burst just starts over
		s.limMu.Lock()
		s.limiters = make(map[string]*rate.Limiter)
		s.limMu.Unlock()
	}
}

type serverMetrics struct {
	mu            sync.RWMutex
	totalRequests int64
	activeReqs    int64
	compressions  int64
	failures      int64
	bytesIn       int64
	bytesOut      int64
}

type metricsSnapshot struct {
	total, active, compressions, failures, bytesIn, bytesOut int64
}

func (m *serverMetrics) incActive() {
	m.mu.Lock()
	m.activeReqs++
	m.totalRequests++
	m.mu.Unlock()
}

func (m *serverMetrics) decActive() {
	m.mu.Lock()
	m.activeReqs--
	m.mu.Unlock()
}

func (m *serverMetrics) record(res compressor.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !res.Success {
		m.failures++
		return
	}
	m.compressions++
	m.bytesIn += res.OriginalSize
	m.bytesOut += res.CompressedSize
}

func (m *serverMetrics) snapshot() metricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return metricsSnapshot{
		total:        m.totalRequests,
		active:       m.activeReqs,
		compressions: m.compressions,
		failures:     m.failures,
		bytesIn:      m.bytesIn,
		bytesOut:     m.bytesOut,
	}
}
