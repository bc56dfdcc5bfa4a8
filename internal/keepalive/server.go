// Package keepalive serves a tiny HTTP endpoint so uptime monitors and hosting
// platforms that idle out silent processes can see the relay is running.
package keepalive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	aliveBody       = "I'm alive"
	shutdownTimeout = 5 * time.Second
)

// StatusFunc reports whether the chat gateway is connected.
type StatusFunc func() bool

// Server is the keep-alive HTTP server.
type Server struct {
	addr   string
	status StatusFunc
	log    *slog.Logger
}

// New returns a server listening on addr once Run is called.
func New(addr string, status StatusFunc, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if status == nil {
		status = func() bool { return false }
	}
	return &Server{addr: addr, status: status, log: logger.With("component", "keepalive")}
}

// Handler returns the routes served by the keep-alive endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(aliveBody))
	})
	mux.HandleFunc("GET /healthz", s.health)
	return mux
}

type healthResponse struct {
	Status  string `json:"status"`
	Gateway string `json:"gateway"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Gateway: "connected"}
	code := http.StatusOK
	if !s.status() {
		resp = healthResponse{Status: "degraded", Gateway: "disconnected"}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Warn("Failed to write health response", "error", err)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("keep-alive listen on %s: %w", s.addr, err)
	}
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Keep-alive server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("keep-alive server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("keep-alive shutdown: %w", err)
	}
	s.log.Info("Keep-alive server stopped")
	return nil
}
