// Package server 通过 websocket 暴露 tick 接口：每条入站消息是一个快照，
// 回一条结果。另提供 /tick、/healthz 与 /metrics。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shadow-mm/infrastructure/logger"
	"shadow-mm/internal/engine"
	"shadow-mm/market"
)

// Ticker 是 server 依赖的引擎能力，*engine.Engine 实现了该接口。
type Ticker interface {
	Run(snap *market.Snapshot) (engine.Result, error)
	StrategyName() string
}

// Server handles the tick websocket and auxiliary HTTP routes.
type Server struct {
	engine   Ticker
	router   *mux.Router
	upgrader websocket.Upgrader
	logger   *logger.Logger
	metrics  http.Handler

	// tickMu 保证同一时刻只有一个 tick 进入引擎
	tickMu sync.Mutex
	ticks  atomic.Int64

	mu     sync.Mutex
	server *http.Server
}

// tickResponse 为单个 tick 的回复；出错时只有 Error。
type tickResponse struct {
	engine.Result
	Error string `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Strategy string `json:"strategy"`
	Ticks    int64  `json:"ticks"`
}

// New creates a server; metrics may be nil.
func New(eng Ticker, metrics http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	s := &Server{
		engine: eng,
		router: mux.NewRouter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  log,
		metrics: metrics,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/tick", s.handleTick).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
}

// Handler 返回路由，便于测试或外部挂载
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 在后台监听 addr，ctx 取消后优雅关闭。
func (s *Server) Start(ctx context.Context, addr string) error {
	s.mu.Lock()
	if s.server != nil {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.server = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// tick 串行执行一个快照
func (s *Server) tick(snap *market.Snapshot) (engine.Result, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	res, err := s.engine.Run(snap)
	if err == nil {
		s.ticks.Add(1)
	}
	return res, err
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	s.logger.Debug("websocket connected", zap.String("remote", r.RemoteAddr))

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var snap market.Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			if werr := conn.WriteJSON(tickResponse{Error: fmt.Sprintf("invalid snapshot: %v", err)}); werr != nil {
				return
			}
			continue
		}

		var resp tickResponse
		res, err := s.tick(&snap)
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Result = res
		}
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	var snap market.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		respondJSON(w, http.StatusBadRequest, tickResponse{Error: fmt.Sprintf("invalid snapshot: %v", err)})
		return
	}
	res, err := s.tick(&snap)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, tickResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, tickResponse{Result: res})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Strategy: s.engine.StrategyName(),
		Ticks:    s.ticks.Load(),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
