package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Server exposes liveness and the latest cycle outcome over HTTP.
type Server struct {
	addr   string
	state  *State
	engine *gin.Engine
	log    *slog.Logger
}

func New(addr string, state *State, log *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{addr: addr, state: state, engine: r, log: log}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "jobwatch is running!",
			"status":  "healthy",
		})
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/status", s.status)
	return s
}

func (s *Server) status(c *gin.Context) {
	v := s.state.view()
	code := http.StatusOK
	// a failing session needs a human, surface it to uptime checks
	if v.LastSession != nil && !v.LastSession.Healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, v)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("🌐 Status server listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
