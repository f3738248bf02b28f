package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agriscope/agriscope/internal/sentinelhub"
	"github.com/agriscope/agriscope/internal/session"
)

// Server bundles the router and its dependencies for the dashboard API.
type Server struct {
	registry *session.Registry
	catalog  *session.CatalogStore
	client   *sentinelhub.Client
	visitors *VisitorCounter
	engine   *gin.Engine
}

// New constructs a server with routes and middleware.
func New(client *sentinelhub.Client, registry *session.Registry) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	server := &Server{
		registry: registry,
		catalog:  session.NewCatalogStore(),
		client:   client,
		visitors: NewVisitorCounter(),
		engine:   engine,
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connected": s.client.Connected()})
	})

	v1 := s.engine.Group("/api/v1")
	v1.Use(s.countVisitor())

	sessions := v1.Group("/sessions")
	{
		sessions.POST("", s.handleCreateSession)
		sessions.GET("/:id", s.handleGetSession)
		sessions.PUT("/:id/aoi", s.handleSetAOI)
		sessions.PUT("/:id/settings", s.handleSetSettings)
		sessions.GET("/:id/images", s.handleListImages)
		sessions.POST("/:id/map", s.handleBuildMap)
		sessions.POST("/:id/timeseries", s.handleTimeSeries)
		sessions.POST("/:id/compare", s.handleCompare)
		sessions.GET("/:id/export/timeseries.csv", s.handleExportCSV)
	}

	drone := v1.Group("/drone")
	{
		drone.POST("/analyze", s.handleDroneAnalyze)
	}

	stats := v1.Group("/stats")
	{
		stats.GET("/visitors", s.handleVisitors)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) countVisitor() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.visitors.Record(c.ClientIP())
		c.Next()
	}
}
