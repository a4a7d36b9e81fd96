package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Layr-Labs/metatx-relay-go/pkg/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server exposes the executor over HTTP:
//
//	GET  /digest   — compute the digest for a tuple (read-only, for signers)
//	POST /transfer — submit a signed intent for execution
//	GET  /health   — executed-set store health
//
// Relayers are untrusted and anonymous, so submissions are rate limited as a
// whole rather than per identity.
type Server struct {
	executor   *Executor
	httpServer *http.Server
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// ServerConfig controls the HTTP surface
type ServerConfig struct {
	Port int

	// SubmissionsPerSecond caps POST /transfer throughput. Zero disables
	// limiting (tests, trusted deployments).
	SubmissionsPerSecond float64

	// SubmissionBurst is the limiter burst size; defaults to
	// SubmissionsPerSecond rounded up when zero.
	SubmissionBurst int
}

// NewServer creates a new server instance
func NewServer(executor *Executor, cfg *ServerConfig, logger *zap.Logger) *Server {
	s := &Server{
		executor: executor,
		logger:   logger,
	}

	if cfg.SubmissionsPerSecond > 0 {
		burst := cfg.SubmissionBurst
		if burst <= 0 {
			burst = int(cfg.SubmissionsPerSecond) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.SubmissionsPerSecond), burst)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/digest", s.handleDigest)
	mux.HandleFunc("/transfer", s.handleTransfer)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Sugar().Infow("Relay server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the server's HTTP handler. Test helper.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	nonce, err := strconv.ParseUint(query.Get("nonce"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid nonce: %v", err), "")
		return
	}

	req := &types.DigestRequestV1{
		Sender:    query.Get("sender"),
		Amount:    query.Get("amount"),
		Recipient: query.Get("recipient"),
		Token:     query.Get("token"),
		Nonce:     nonce,
	}

	intent, err := req.Intent()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	d, err := s.executor.ComputeDigest(intent.Sender, intent.Amount, intent.Recipient, intent.Token, intent.Nonce)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	s.writeJSON(w, http.StatusOK, &types.DigestResponseV1{Digest: d.Hex()})
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	requestID := uuid.New().String()

	if s.limiter != nil && !s.limiter.Allow() {
		s.writeError(w, http.StatusTooManyRequests, "submission rate limit exceeded", requestID)
		return
	}

	var req types.TransferRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), requestID)
		return
	}

	intent, err := req.Intent()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid signature hex: %v", err), requestID)
		return
	}

	d, err := s.executor.Transfer(r.Context(), intent, signature)
	if err != nil {
		var ledgerErr *LedgerError
		switch {
		case errors.Is(err, ErrUnauthorized):
			s.writeError(w, http.StatusUnauthorized, err.Error(), requestID)
		case errors.Is(err, ErrAlreadyExecuted):
			s.writeError(w, http.StatusConflict, err.Error(), requestID)
		case errors.As(err, &ledgerErr):
			s.writeError(w, http.StatusUnprocessableEntity, err.Error(), requestID)
		default:
			s.logger.Sugar().Errorw("Transfer failed", "requestID", requestID, "error", err)
			s.writeError(w, http.StatusInternalServerError, "internal error", requestID)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, &types.TransferResponseV1{
		Digest:    d.Hex(),
		RequestID: requestID,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.executor.HealthCheck(); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, err.Error(), "")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Sugar().Warnw("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, requestID string) {
	s.writeJSON(w, status, &types.ErrorResponseV1{Error: message, RequestID: requestID})
}
