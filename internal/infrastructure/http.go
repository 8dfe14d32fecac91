package infrastructure

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krobus00/wind-gateway/internal/config"
	"github.com/sirupsen/logrus"
)

const (
	defaultHTTPPort        = "8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	requestIDHeader = "X-Request-Id"
)

type HTTPServer struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

type HTTPServerConfig struct {
	Addr string
	// PortKey selects the config.Env.Port entry used when Addr is empty.
	PortKey         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// Ready backs /readyz, nil means always ready.
	Ready func() error
}

func DefaultHTTPServerConfig(portKey string) HTTPServerConfig {
	return HTTPServerConfig{
		PortKey:         portKey,
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// NewHTTPServerWithConfig serves mux plus /healthz and /readyz. Every request gets a request id,
// an access log line and panic recovery.
func NewHTTPServerWithConfig(cfg HTTPServerConfig, mux *http.ServeMux) *HTTPServer {
	if mux == nil {
		mux = http.NewServeMux()
	}
	registerHealthRoutes(mux, cfg.Ready)

	if cfg.Addr == "" {
		cfg.Addr = ":" + portFromConfig(cfg.PortKey)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	return &HTTPServer{
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           withRequestLogging(mux),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

func (h *HTTPServer) Start() error {
	logrus.WithField("addr", h.server.Addr).Info("http server starting")
	err := h.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (h *HTTPServer) Shutdown(ctx context.Context) error {
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), h.shutdownTimeout)
		defer cancel()
	}

	return h.server.Shutdown(ctx)
}

func (h *HTTPServer) Handler() http.Handler {
	return h.server.Handler
}

func registerHealthRoutes(mux *http.ServeMux, ready func() error) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil {
			if err := ready(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
}

// withRequestLogging tags the request, logs it once served and turns a handler panic into a 500.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		logger := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
		})

		defer func() {
			if recovered := recover(); recovered != nil {
				logger.WithField("panic", recovered).Error("panic recovered in http handler")
				if !recorder.wroteHeader {
					recorder.WriteHeader(http.StatusInternalServerError)
					_, _ = recorder.Write([]byte("internal server error"))
				}
			}

			logger.WithFields(logrus.Fields{
				"status":      recorder.status,
				"duration_ms": time.Since(started).Milliseconds(),
			}).Info("http request handled")
		}()

		next.ServeHTTP(recorder, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.wroteHeader = true
	r.ResponseWriter.WriteHeader(status)
}

func portFromConfig(portKey string) string {
	if config.Env == nil || portKey == "" {
		return defaultHTTPPort
	}

	port := strings.TrimPrefix(strings.TrimSpace(config.Env.Port[portKey]), ":")
	if port == "" {
		return defaultHTTPPort
	}
	return port
}
