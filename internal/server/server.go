// Package server 提供成交历史的 HTTP 查询接口和实时 WebSocket 推送。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"swap-history/internal/engine"
	"swap-history/internal/history"
	"swap-history/internal/pair"
	"swap-history/internal/render"
)

// Config 服务依赖
type Config struct {
	Addr        string
	Logger      *zap.Logger
	Pairs       *pair.Store
	History     *history.Buffer
	Renderer    *render.Renderer
	Engine      *engine.SwapEngine
	Broadcaster *Broadcaster
}

type Server struct {
	router *chi.Mux
	server *http.Server
	cfg    Config
	logger *zap.Logger
}

func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: cfg.Logger.With(zap.String("component", "server")),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/", s.handleText)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/swaps", s.handleSwaps)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)
		r.Get("/pair", s.handleGetPair)
		r.Put("/pair", s.handlePutPair)
		r.Delete("/pair", s.handleDeletePair)
	})

	if s.cfg.Broadcaster != nil {
		s.router.Get("/ws", s.cfg.Broadcaster.Handler())
	}
}

// Handler 用于测试
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.cfg.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	view := s.cfg.Renderer.Build(s.cfg.Pairs.Get(), s.cfg.History.Snapshot())
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := s.cfg.Renderer.WriteText(w, view); err != nil {
		s.logger.Warn("failed to write text view", zap.Error(err))
	}
}

// handleSwaps ?limit=N 只返回最近 N 条，缺省或 0 返回全部历史 (不受终端显示条数限制)
func (s *Server) handleSwaps(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.cfg.Renderer.BuildN(s.cfg.Pairs.Get(), s.cfg.History.Snapshot(), limit))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"capacity": s.cfg.History.Cap(),
		"total":    s.cfg.History.Total(),
		"swaps":    s.cfg.History.Snapshot(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not running")
		return
	}
	writeJSON(w, http.StatusOK, s.cfg.Engine.Stats())
}

func (s *Server) handleGetPair(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Pairs.Get())
}

// pairRequest PUT /api/pair 的请求体；status 省略时按 ready 处理
type pairRequest struct {
	Status       string `json:"status"`
	Address      string `json:"address"`
	Token0Symbol string `json:"token0Symbol"`
	Token1Symbol string `json:"token1Symbol"`
}

func (s *Server) handlePutPair(w http.ResponseWriter, r *http.Request) {
	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status := pair.StatusReady
	if req.Status != "" {
		st, err := pair.ParseStatus(req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		status = st
	}

	switch status {
	case pair.StatusReady:
		if req.Address == "" {
			writeError(w, http.StatusBadRequest, "address is required")
			return
		}
		s.cfg.Pairs.SetReady(pair.Pair{
			Address: req.Address,
			Token0:  pair.Token{Symbol: req.Token0Symbol},
			Token1:  pair.Token{Symbol: req.Token1Symbol},
		})
	case pair.StatusLoading:
		s.cfg.Pairs.SetLoading()
	case pair.StatusNotExists:
		s.cfg.Pairs.SetNotExists()
	default:
		s.cfg.Pairs.SetInvalid()
	}

	s.logger.Info("Pair selection changed", zap.String("status", string(status)), zap.String("address", req.Address))
	writeJSON(w, http.StatusOK, s.cfg.Pairs.Get())
}

func (s *Server) handleDeletePair(w http.ResponseWriter, r *http.Request) {
	s.cfg.Pairs.SetInvalid()
	writeJSON(w, http.StatusOK, s.cfg.Pairs.Get())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
