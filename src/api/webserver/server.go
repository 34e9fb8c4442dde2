package webserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stake-plus/raiinmaker-verify/src/actions/core"
	"go.uber.org/zap"
)

var _ core.Module = (*Server)(nil)

// Server runs the HTTP API as a lifecycle module.
type Server struct {
	addr   string
	engine *gin.Engine
	logger *zap.Logger
	srv    *http.Server
}

// NewServer prepares the API on addr.
func NewServer(addr string, cfg RouterConfig, actions Actions, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		addr:   addr,
		engine: NewRouter(cfg, actions, logger),
		logger: logger.Named("api"),
	}
}

func (s *Server) Name() string { return "api" }

func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		s.logger.Info("listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", zap.Error(err))
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) {
	if s.srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("shutdown", zap.Error(err))
	}
}
