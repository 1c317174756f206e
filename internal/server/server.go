// Package server exposes the orchestration pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agent"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/agenterr"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/config"
	"github.com/ashutoshrp06/dealroom-orchestrator/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultRequestTimeout  = 120 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Runner executes one pipeline turn. *agent.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req agent.Request) (*agent.Result, error)
}

// ErrorResponse is the body returned when a turn fails.
type ErrorResponse struct {
	TurnID      string `json:"turn_id,omitempty"`
	Code        string `json:"code"`
	Recoverable bool   `json:"recoverable"`
	Message     string `json:"message"`
}

// Server is the HTTP surface.
type Server struct {
	cfg     config.ServerConfig
	runner  Runner
	metrics *metrics.Metrics
	logger  *zap.Logger
	router  *gin.Engine
}

// New builds the router. Call Run to start listening.
func New(cfg config.ServerConfig, runner Runner, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{cfg: cfg, runner: runner, metrics: m, logger: logger}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	v1 := r.Group("/v1")
	v1.POST("/query", s.handleQuery)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleQuery(c *gin.Context) {
	var req agent.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "BAD_REQUEST",
			Message: "Request body must be JSON with a messages array.",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result, err := s.runner.Run(ctx, req)
	if err != nil {
		s.writeError(c, result, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) writeError(c *gin.Context, result *agent.Result, err error) {
	body := ErrorResponse{
		Code:        string(agenterr.CodeState),
		Recoverable: agenterr.IsRecoverable(err),
		Message:     agenterr.UserMessage(err),
	}
	if result != nil {
		body.TurnID = result.TurnID
	}
	var agentErr *agenterr.AgentError
	if errors.As(err, &agentErr) {
		body.Code = string(agentErr.Code)
	}

	status := http.StatusInternalServerError
	if body.Recoverable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, body)
}

// Run listens until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("Server shutdown completed")
	return nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
