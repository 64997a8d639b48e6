// Package web exposes the dashboard state over HTTP: an SSE stream for
// browser consumers, a health probe, and Prometheus metrics.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/tradeboard/internal/domain"
	"github.com/vadiminshakov/tradeboard/internal/state"
	"github.com/vadiminshakov/tradeboard/internal/trade"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"
)

const (
	streamPollInterval = 2 * time.Second
	heartbeatInterval  = 30 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type snapshotReader interface {
	Snapshot() state.Snapshot
}

// tradeRunner routes a manual trade intent through validation,
// confirmation and submission.
type tradeRunner interface {
	ExecuteTrade(ctx context.Context, intent domain.TradeIntent) trade.Outcome
}

// Server exposes HTTP endpoints streaming the dashboard state.
type Server struct {
	Addr   string
	Store  snapshotReader
	Logger *zap.Logger
	// Trades enables POST /trade; nil disables the endpoint.
	Trades tradeRunner
}

// NewServer creates a new web server instance.
func NewServer(addr string, store snapshotReader, logger *zap.Logger) *Server {
	return &Server{Addr: addr, Store: store, Logger: logger}
}

func (s *Server) mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/state/stream", s.handleStateStream)
	mux.HandleFunc("/trade", s.handleTrade)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// An extra HTTP server on port 80 answers ACME challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.mux(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Warn("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Warn("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Warn("http (acme) server error", zap.Error(err))
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type tradeRequest struct {
	Action string          `json:"action"`
	Amount decimal.Decimal `json:"amount"`
	Price  decimal.Decimal `json:"price"`
}

type tradeResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// handleTrade accepts a manual trade intent. The request still goes
// through the interactive confirmation flow, so the response arrives
// only after the user decided.
func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Trades == nil {
		http.Error(w, "manual trading not available", http.StatusServiceUnavailable)
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad trade payload", http.StatusBadRequest)
		return
	}
	side, ok := domain.SideFromString(req.Action)
	if !ok {
		http.Error(w, "action must be BUY or SELL", http.StatusBadRequest)
		return
	}

	outcome := s.Trades.ExecuteTrade(r.Context(), domain.TradeIntent{
		Side:   side,
		Amount: req.Amount,
		Price:  req.Price,
	})

	resp := tradeResponse{Status: outcome.State.String(), Message: outcome.Verdict.Message}
	if outcome.Err != nil {
		resp.Message = outcome.Err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	if outcome.State == trade.StateRejected {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.Warn("trade response encode", zap.Error(err))
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) handleStateStream(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "state store not available")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// comment heartbeats keep proxies from dropping the connection
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(streamPollInterval)
	defer pollTicker.Stop()

	var lastSent time.Time
	sendState := func() error {
		snap := s.Store.Snapshot()
		if !snap.UpdatedAt.After(lastSent) {
			return nil
		}
		payload, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "event: state\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
		lastSent = snap.UpdatedAt
		return nil
	}

	if err := sendState(); err != nil {
		http.Error(w, "failed to encode state", http.StatusInternalServerError)
		s.Logger.Warn("state stream initial send", zap.Error(err))
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendState(); err != nil {
				s.Logger.Warn("state stream poll err", zap.Error(err))
			}
		}
	}
}
