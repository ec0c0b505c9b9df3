// Package api provides the HTTP/WebSocket API for the interview
// orchestrator: bootstrapping an interview, driving its session over a
// WebSocket connection, and polling its completion summary.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/candidflow/interviewer/pkg/config"
	"github.com/candidflow/interviewer/pkg/database"
	"github.com/candidflow/interviewer/pkg/orchestrator"
	"github.com/candidflow/interviewer/pkg/ports"
	"github.com/candidflow/interviewer/pkg/repository/postgres"
	"github.com/candidflow/interviewer/pkg/version"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server
	cfg        *config.Config
	dbClient   *database.Client

	// orchDeps is the shared collaborator bundle every per-connection
	// Orchestrator is built from; only the interview id varies per
	// connection (spec §9: no process-wide session cache, but the
	// collaborators themselves are stateless singletons).
	orchDeps orchestrator.Deps

	interviews ports.InterviewRepository
	questions  *postgres.QuestionRepository
	planPort   ports.QuestionPlanPort
}

// NewServer creates a new API server with Echo v5.
func NewServer(
	cfg *config.Config,
	dbClient *database.Client,
	orchDeps orchestrator.Deps,
	questions *postgres.QuestionRepository,
	planPort ports.QuestionPlanPort,
) *Server {
	e := echo.New()

	s := &Server{
		echo:       e,
		cfg:        cfg,
		dbClient:   dbClient,
		orchDeps:   orchDeps,
		interviews: orchDeps.Interviews,
		questions:  questions,
		planPort:   planPort,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	s.echo.GET("/health", s.healthHandler)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/interviews", s.createInterviewHandler)
	v1.GET("/interviews/:id/summary", s.summaryHandler)
	v1.GET("/ws/interviews/:id", s.wsHandler)
}

// Start starts the HTTP server on the given address and blocks until
// the server stops.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.echo}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	reqCtx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status, err := s.dbClient.Health(reqCtx)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, &HealthResponse{
			Status:   "unhealthy",
			Database: HealthCheck{Status: status.Status, Message: err.Error()},
		})
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:   "healthy",
		Version:  version.Full(),
		Database: HealthCheck{Status: status.Status},
	})
}
