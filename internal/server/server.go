// Package server provides the HTTP server for the mudra sign inference service.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/inference"
	"github.com/ayusman/mudra/internal/server/api"
)

// Config holds the server configuration.
type Config struct {
	Engine        *inference.Engine
	Detector      detector.Detector
	Logger        *zap.Logger
	PassThreshold float64
	MaxBodyBytes  int64
	Version       string
}

// Server represents the HTTP server of the inference service.
type Server struct {
	config  Config
	mux     *http.ServeMux
	handler http.Handler
	start   time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Engine == nil {
		config.Engine = inference.New(nil, nil)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	s.handler = chain(s.mux,
		s.instrument,
		requestID,
		cors,
		s.limitBody,
	)
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	predict := api.NewPredictHandler(s.config.Engine, s.config.Logger, s.config.PassThreshold)

	s.mux.HandleFunc("/", s.handleRoot)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/predict", predict.Predict)
	s.mux.HandleFunc("/practice/evaluate", predict.Evaluate)
	s.mux.Handle("/predict/stream", api.NewStreamHandler(predict))

	signs := api.NewSignHandler(s.config.Engine.Dictionary())
	s.mux.Handle("/signs", signs)
	s.mux.Handle("/signs/", signs)

	// Frame prediction needs a hand detector
	if s.config.Detector != nil {
		s.mux.Handle("/predict/frame", api.NewFrameHandler(predict, s.config.Detector))
	}

	s.mux.Handle("/metrics", promhttp.Handler())
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

type rootResponse struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// handleRoot handles GET / with a service description.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	endpoints := map[string]string{
		"predict":  "/predict",
		"practice": "/practice/evaluate",
		"stream":   "/predict/stream",
		"signs":    "/signs",
		"health":   "/health",
		"metrics":  "/metrics",
	}
	if s.config.Detector != nil {
		endpoints["frame"] = "/predict/frame"
	}

	writeJSON(w, http.StatusOK, rootResponse{
		Message:   "Sign language inference service",
		Status:    "running",
		Version:   s.config.Version,
		Endpoints: endpoints,
	})
}

type healthResponse struct {
	Status         string `json:"status"`
	ModelLoaded    bool   `json:"model_loaded"`
	DictionarySize int    `json:"dictionary_size"`
	Uptime         string `json:"uptime"`
}

// handleHealth handles GET requests to /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "healthy",
		ModelLoaded:    s.config.Engine.ClassifierLoaded(),
		DictionarySize: s.config.Engine.DictionarySize(),
		Uptime:         time.Since(s.start).Round(time.Second).String(),
	})
}

// ServeOptions holds the timeouts of the listening HTTP server.
type ServeOptions struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ListenAndServe starts the HTTP server on addr and blocks until ctx is
// cancelled, then drains in-flight requests for up to ShutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, opts ServeOptions) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, opts)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, opts ServeOptions) error {
	srv := &http.Server{
		Handler:      s,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.config.Logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.config.Logger.Info("shutting down", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
