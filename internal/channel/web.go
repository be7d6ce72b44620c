package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"retirebot/internal/domain"
	"retirebot/internal/metrics"
	"retirebot/internal/orchestrator"
)

const (
	maxBodySize    = 64 << 10 // 64KB, chat messages are short
	requestTimeout = 120 * time.Second
)

// Assistant is the synchronous surface the HTTP API serves. The
// orchestrator satisfies it; tests use a stub.
type Assistant interface {
	HandleMessage(ctx context.Context, sessionID, text string) (*orchestrator.Result, error)
	History(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error)
	NewSession(ctx context.Context) (string, error)
}

// Web serves the JSON chat API. Unlike the bus-driven channels it calls
// the orchestrator synchronously so each request gets its own reply.
type Web struct {
	host          string
	port          int
	assistant     Assistant
	logger        *slog.Logger
	server        *http.Server
	serveMetrics  bool
	metricsPath   string
}

type WebChannelConfig struct {
	Host         string
	Port         int
	Assistant    Assistant
	Logger       *slog.Logger
	ServeMetrics bool
	MetricsPath  string
}

func NewWeb(cfg WebChannelConfig) *Web {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}
	return &Web{
		host:         cfg.Host,
		port:         cfg.Port,
		assistant:    cfg.Assistant,
		logger:       cfg.Logger,
		serveMetrics: cfg.ServeMetrics,
		metricsPath:  cfg.MetricsPath,
	}
}

func (w *Web) Name() string { return "web" }

// Start starts the HTTP server and blocks until the context is
// cancelled.
func (w *Web) Start(ctx context.Context, bus domain.MessageBus) error {
	addr := fmt.Sprintf("%s:%d", w.host, w.port)
	w.server = &http.Server{
		Addr:              addr,
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	w.logger.Info("web API started", "addr", "http://"+addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		w.server.Shutdown(shutdownCtx)
	}()

	if err := w.server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (w *Web) Stop() error { return nil }

// Handler builds the route table. Split out so tests can drive it with
// httptest without binding a port.
func (w *Web) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", w.cors(w.handleChat))
	mux.HandleFunc("POST /api/session", w.cors(w.handleNewSession))
	mux.HandleFunc("GET /api/history/{id}", w.cors(w.handleHistory))
	mux.HandleFunc("GET /healthz", w.handleHealth)
	mux.HandleFunc("OPTIONS /api/", w.cors(func(http.ResponseWriter, *http.Request) {}))
	if w.serveMetrics {
		mux.HandleFunc("GET "+w.metricsPath, metrics.Default.Handler())
	}
	return mux
}

func (w *Web) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Access-Control-Allow-Origin", "*")
		rw.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		rw.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			rw.WriteHeader(http.StatusNoContent)
			return
		}
		next(rw, r)
	}
}

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID  string  `json:"session_id"`
	Reply      string  `json:"reply"`
	Domain     string  `json:"domain"`
	Confidence float64 `json:"confidence"`
	Failed     bool    `json:"failed,omitempty"`
}

func (w *Web) handleChat(rw http.ResponseWriter, r *http.Request) {
	var req chatRequest
	body := http.MaxBytesReader(rw, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(rw, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(rw, http.StatusBadRequest, "message is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sessionID := req.SessionID
	if sessionID == "" {
		id, err := w.assistant.NewSession(ctx)
		if err != nil {
			w.logger.Error("cannot create session", "error", err)
			writeError(rw, http.StatusInternalServerError, "cannot create session")
			return
		}
		sessionID = id
	}

	res, err := w.assistant.HandleMessage(ctx, sessionID, req.Message)
	if err != nil {
		w.logger.Error("chat request failed", "session", sessionID, "error", err)
		writeError(rw, http.StatusInternalServerError, "cannot process message")
		return
	}

	writeJSON(rw, http.StatusOK, chatResponse{
		SessionID:  sessionID,
		Reply:      res.Reply,
		Domain:     string(res.Decision.Domain),
		Confidence: res.Decision.Confidence,
		Failed:     res.Failed,
	})
}

func (w *Web) handleNewSession(rw http.ResponseWriter, r *http.Request) {
	id, err := w.assistant.NewSession(r.Context())
	if err != nil {
		w.logger.Error("cannot create session", "error", err)
		writeError(rw, http.StatusInternalServerError, "cannot create session")
		return
	}
	writeJSON(rw, http.StatusOK, map[string]string{"session_id": id})
}

type historyTurn struct {
	Seq       int       `json:"seq"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Domain    string    `json:"domain,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *Web) handleHistory(rw http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	turns, err := w.assistant.History(r.Context(), id, 0)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(rw, http.StatusNotFound, "session not found")
			return
		}
		w.logger.Error("history request failed", "session", id, "error", err)
		writeError(rw, http.StatusInternalServerError, "cannot load history")
		return
	}

	out := make([]historyTurn, len(turns))
	for i, t := range turns {
		out[i] = historyTurn{
			Seq:       t.Seq,
			Role:      string(t.Role),
			Content:   t.Content,
			Domain:    string(t.Domain),
			CreatedAt: t.CreatedAt,
		}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"session_id": id, "turns": out})
}

func (w *Web) handleHealth(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, msg string) {
	writeJSON(rw, status, map[string]string{"error": msg})
}
