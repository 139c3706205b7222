package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
	"github.com/DevRickLin/wingman/internal/service"
)

// Operations are the pipeline actions exposed on the dashboard
type Operations interface {
	Status() service.Status
	RunPass(ctx context.Context, trigger string) (service.PassResult, error)
	RunOutreach(ctx context.Context, count int) (service.OutreachResult, error)
	SwipeSession(ctx context.Context, limit int) (domain.SwipeResult, error)
	ListPending(ctx context.Context) ([]*domain.PendingReply, error)
	Approve(ctx context.Context, id, text string) (*domain.PendingReply, error)
	Discard(ctx context.Context, id string) (*domain.PendingReply, error)
}

// SettingsStore reads and updates runtime settings
type SettingsStore interface {
	Get() domain.Settings
	Update(fn func(*domain.Settings)) (domain.Settings, error)
}

// Personalities lists the selectable personalities
type Personalities interface {
	Names() []string
	Has(name string) bool
}

// Ledger is the subset of the reply ledger the dashboard manages
type Ledger interface {
	Rejected(ctx context.Context) []string
	MarkRejected(ctx context.Context, conversationID string) error
	UnmarkRejected(ctx context.Context, conversationID string) error
	RepliedCount(ctx context.Context) int
}

// UsageReader reports accumulated token usage
type UsageReader interface {
	Totals(ctx context.Context) domain.UsageRecord
}

// Deps are the collaborators of the dashboard server
type Deps struct {
	Ops           Operations
	Settings      SettingsStore
	Personalities Personalities
	Ledger        Ledger
	Usage         UsageReader
	Stats         repo.StatsRepo
	Decisions     repo.DecisionLog
}

// Server is the operator dashboard HTTP API
type Server struct {
	deps   Deps
	addr   string
	engine *gin.Engine
	log    zerolog.Logger

	// Background runs started from the API outlive the request
	bg     context.Context
	stopBg context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates the dashboard server and registers its routes
func NewServer(deps Deps, addr string, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	s := &Server{
		deps:   deps,
		addr:   addr,
		engine: engine,
		log:    log.With().Str("component", "dashboard").Logger(),
	}
	s.bg, s.stopBg = context.WithCancel(context.Background())

	engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handleUpdateSettings)
	api.GET("/personalities", s.handlePersonalities)
	api.GET("/stats", s.handleStats)
	api.GET("/usage", s.handleUsage)
	api.GET("/decisions", s.handleDecisions)

	api.GET("/pending", s.handleListPending)
	api.POST("/pending/:id/approve", s.handleApprove)
	api.POST("/pending/:id/discard", s.handleDiscard)

	api.GET("/rejected", s.handleListRejected)
	api.POST("/rejected", s.handleAddRejected)
	api.DELETE("/rejected/:id", s.handleRemoveRejected)

	api.POST("/pass", s.handlePass)
	api.POST("/outreach", s.handleOutreach)
	api.POST("/swipe", s.handleSwipe)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("Dashboard listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		s.Close()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := server.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close cancels background runs and waits for them to return
func (s *Server) Close() {
	s.stopBg()
	s.wg.Wait()
}

// background runs fn detached from the request
func (s *Server) background(name string, fn func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := fn(s.bg); err != nil {
			s.log.Error().Err(err).Str("run", name).Msg("Background run failed")
		}
	}()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metricsRecord(c.Request.Method, route, status)

		ev := s.log.Debug()
		if status >= 500 {
			ev = s.log.Error()
		} else if status >= 400 {
			ev = s.log.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Err(c.Errors.Last().Err)
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("Request completed")
	}
}
