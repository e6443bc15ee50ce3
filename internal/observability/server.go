package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// StatusFunc returns the JSON body of /status.
type StatusFunc func() any

// Server exposes /health, /metrics and /status.
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer builds the HTTP server. status may be nil.
func NewServer(addr string, status StatusFunc, logger zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewMux(status),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "http").Logger(),
	}
}

// NewMux returns the handler tree served by Server.
func NewMux(status StatusFunc) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		var body any = map[string]string{"status": "running"}
		if status != nil {
			body = status()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("starting HTTP server")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
