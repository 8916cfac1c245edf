// Package server exposes the chat chain over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/usecase"
)

const maxRequestBytes = 1 << 20

// Answerer is the chain operation served over HTTP.
type Answerer interface {
	Answer(ctx context.Context, turn domain.Turn) (*domain.Answer, error)
}

// Health describes the loaded index for GET /healthz.
type Health struct {
	Status string `json:"status"`
	Chunks int    `json:"chunks"`
	Model  string `json:"model"`
}

type Server struct {
	chain           Answerer
	health          Health
	log             *zap.Logger
	srv             *http.Server
	shutdownTimeout time.Duration
}

type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func New(cfg Config, chain Answerer, health Health, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	health.Status = "ok"
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	s := &Server{chain: chain, health: health, log: log, shutdownTimeout: cfg.ShutdownTimeout}
	s.srv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routes with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/invoke", s.handleInvoke)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return s.withRequestLog(mux)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

type chatRequest struct {
	Question    string `json:"question"`
	ChatHistory string `json:"chat_history"`
}

type chatResponse struct {
	Answer string `json:"answer"`
}

type invokeRequest struct {
	Input chatRequest `json:"input"`
}

type invokeResponse struct {
	Output string `json:"output"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ans, err := s.chain.Answer(r.Context(), domain.Turn{Question: req.Question, ChatHistory: req.ChatHistory})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Answer: ans.Text})
}

// handleInvoke accepts the {"input": {...}} envelope used by LangServe clients.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ans, err := s.chain.Answer(r.Context(), domain.Turn{Question: req.Input.Question, ChatHistory: req.Input.ChatHistory})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, invokeResponse{Output: ans.Text})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.health)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrMissingField):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmbedding), errors.Is(err, domain.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := []zap.Field{
		zap.String("request_id", requestID(r.Context())),
		zap.Int("status", status),
		zap.Error(err),
	}
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		fields = append(fields, zap.String("stage", stageErr.Stage))
	}
	s.log.Warn("request failed", fields...)

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

// compile-time check that the chain use case can be served.
var _ Answerer = (*usecase.ChainUseCase)(nil)
