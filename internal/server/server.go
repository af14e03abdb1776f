// Package server exposes computed wallet PnL over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"polymarket-pnl/internal/domain"
	"polymarket-pnl/internal/observability"
	"polymarket-pnl/internal/runner"
	"polymarket-pnl/internal/storage"
)

// Options for creating a Server.
type Options struct {
	Runner *runner.Runner

	// ResultStore serves cached results; nil forces recompute on every
	// request.
	ResultStore storage.ResultStore

	// MaxAge bounds how stale a cached result may be before the wallet is
	// recomputed. Zero means cached results never expire.
	MaxAge time.Duration

	Logger zerolog.Logger
}

// Server handles wallet PnL requests. Results are served from the result
// store when fresh enough and recomputed on demand otherwise.
type Server struct {
	runner      *runner.Runner
	resultStore storage.ResultStore
	maxAge      time.Duration
	logger      zerolog.Logger

	mu      sync.Mutex
	started time.Time
	served  int
}

// New creates a Server.
func New(opts Options) *Server {
	return &Server{
		runner:      opts.Runner,
		resultStore: opts.ResultStore,
		maxAge:      opts.MaxAge,
		logger:      opts.Logger,
		started:     time.Now(),
	}
}

// Handler returns the HTTP routing for the service.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/wallets/{address}/pnl", s.handleWalletPnL)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.Handle("GET /metrics", observability.Handler())

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handleWalletPnL serves the wallet result, recomputing when the cached
// copy is missing or stale. ?refresh=true forces a recompute.
func (s *Server) handleWalletPnL(w http.ResponseWriter, r *http.Request) {
	wallet := strings.ToLower(r.PathValue("address"))
	if wallet == "" {
		s.writeError(w, http.StatusBadRequest, "wallet address required")
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"

	result, err := s.lookup(r.Context(), wallet, refresh)
	if err != nil {
		if errors.Is(err, domain.ErrDataUnavailable) {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("wallet", wallet).Msg("wallet computation failed")
		s.writeError(w, http.StatusInternalServerError, "computation failed")
		return
	}

	s.mu.Lock()
	s.served++
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, result.Report())
}

// lookup returns a fresh-enough cached result or recomputes the wallet.
func (s *Server) lookup(ctx context.Context, wallet string, refresh bool) (*domain.WalletResult, error) {
	if !refresh && s.resultStore != nil {
		cached, err := s.resultStore.GetLatestByWallet(ctx, wallet)
		switch {
		case err == nil && s.fresh(cached):
			return cached, nil
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("load cached result: %w", err)
		}
	}

	return s.runner.ComputeWallet(ctx, wallet)
}

func (s *Server) fresh(r *domain.WalletResult) bool {
	if s.maxAge <= 0 {
		return true
	}
	computed := time.UnixMilli(r.ComputedAt)
	return time.Since(computed) <= s.maxAge
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// StatusResponse is the JSON response for the /status endpoint.
type StatusResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	WalletsServed int    `json:"wallets_served"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:        "running",
		Uptime:        time.Since(s.started).String(),
		WalletsServed: s.served,
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	s.writeJSON(w, code, map[string]string{"error": msg})
}
