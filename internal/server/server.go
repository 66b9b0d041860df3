// Package server exposes discovery over HTTP: a health check, a JSON (or
// text/m3u) manifest endpoint, and a WebSocket that streams batches as they
// resolve.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/galleryscan/internal/config"
	"github.com/backmassage/galleryscan/internal/logging"
	"github.com/backmassage/galleryscan/internal/manifest"
	"github.com/backmassage/galleryscan/internal/naming"
	"github.com/backmassage/galleryscan/internal/pipeline"
	"github.com/backmassage/galleryscan/internal/probe"
)

// Server serves discovery for the configured base. Clients may narrow the
// scan with query parameters but never change the base.
type Server struct {
	cfg     *config.Config
	checker probe.Checker
	log     *logging.Logger
	mux     *http.ServeMux
}

// New wires the routes for cfg.Base using checker.
func New(cfg *config.Config, checker probe.Checker, log *logging.Logger) *Server {
	s := &Server{cfg: cfg, checker: checker, log: log, mux: http.NewServeMux()}
	s.mux.Handle("/health", HealthHandler())
	s.mux.HandleFunc("/api/discover", s.handleDiscover)
	s.mux.HandleFunc("/api/discover/ws", s.handleDiscoverWS)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// HealthHandler returns a simple health check endpoint.
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully, giving in-flight requests up to five seconds.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, log *logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Graceful shutdown failed: %v", err)
		_ = srv.Close()
	}
	return nil
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := s.requestFrom(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format := config.FormatJSON
	if v := r.URL.Query().Get("format"); v != "" {
		if format, err = config.ParseOutputFormat(v); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if r.URL.Query().Get("refresh") == "1" {
		s.purgeCache()
	}

	res := pipeline.Discover(r.Context(), s.checker, req, nil)
	s.log.Debug(s.cfg.Verbose, "GET %s: %d items, %d probes, stop=%s",
		r.URL.RequestURI(), res.Stats.Found, res.Stats.Probes, res.Stop)

	m := manifest.New(req, res)
	var buf strings.Builder
	if err := manifest.Encode(&buf, m, format); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", manifest.ContentType(format))
	_, _ = io.WriteString(w, buf.String())
}

// purgeCache drops cached probe outcomes so the next scan sees fresh
// uploads.
func (s *Server) purgeCache() {
	if cc, ok := s.checker.(*probe.CachedChecker); ok {
		cc.Purge()
	}
}

// requestFrom applies the ext, max and batch query overrides to the
// configured scan. Every override is bounded so one request cannot schedule
// more than MaxBatchSize*MaxExtensions probes per batch, and probes run at
// most DefaultServerInFlight at a time unless the config sets a limit.
func (s *Server) requestFrom(r *http.Request) (pipeline.Request, error) {
	req := pipeline.RequestFromConfig(s.cfg)
	if req.MaxInFlight == 0 {
		req.MaxInFlight = config.DefaultServerInFlight
	}
	q := r.URL.Query()

	if exts := q["ext"]; len(exts) > 0 {
		if len(exts) > config.MaxExtensions {
			return req, fmt.Errorf("at most %d ext values are allowed", config.MaxExtensions)
		}
		if err := config.CheckExtensions(exts); err != nil {
			return req, err
		}
		req.Extensions = naming.NormalizeExtensions(exts)
		if len(req.Extensions) == 0 {
			return req, errors.New("ext must name at least one extension")
		}
	}
	if v := q.Get("max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > config.MaxIndexLimit {
			return req, fmt.Errorf("max must be between 0 and %d", config.MaxIndexLimit)
		}
		req.MaxIndex = n
	}
	if v := q.Get("batch"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > config.MaxBatchSize {
			return req, fmt.Errorf("batch must be between 1 and %d", config.MaxBatchSize)
		}
		req.BatchSize = n
	}
	return req, nil
}
