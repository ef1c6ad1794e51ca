// Package api provides the gin-based HTTP API: the conversation interface,
// project admin calls, run inspection, and the WebSocket progress feed
// named in SPEC_FULL.md §4.14/§6.
package api

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/codeready-toolchain/nurseresearch/pkg/agent"
	"github.com/codeready-toolchain/nurseresearch/pkg/audit"
	"github.com/codeready-toolchain/nurseresearch/pkg/config"
	"github.com/codeready-toolchain/nurseresearch/pkg/convo"
	"github.com/codeready-toolchain/nurseresearch/pkg/events"
	"github.com/codeready-toolchain/nurseresearch/pkg/llm"
	"github.com/codeready-toolchain/nurseresearch/pkg/planner"
	"github.com/codeready-toolchain/nurseresearch/pkg/project"
	"github.com/codeready-toolchain/nurseresearch/pkg/version"
)

// maxBodyBytes caps request bodies at 2 MB — an utterance is plain text,
// never a multi-MB payload, so this rejects abuse at the HTTP read level.
const maxBodyBytes = 2 * 1024 * 1024

// Server is the HTTP API server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server

	cfg       *config.Config
	projects  *project.Manager
	registry  *agent.Registry
	planner   *planner.Planner
	llm       llm.Client
	audit     *audit.Logger
	conn      *events.ConnectionManager
	publisher *events.Publisher

	convoMu sync.Mutex
	convos  map[string]*convo.Context
}

// NewServer builds a Server with every dependency wired up front — unlike
// the teacher's NewServer-then-Set* sequence, this module has no optional
// subsystem (no MCP health monitor, no dashboard) to wire in afterward.
func NewServer(
	cfg *config.Config,
	projects *project.Manager,
	registry *agent.Registry,
	plnr *planner.Planner,
	llmClient llm.Client,
	auditLog *audit.Logger,
	conn *events.ConnectionManager,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), securityHeaders(), bodyLimit(maxBodyBytes))

	s := &Server{
		router:    router,
		cfg:       cfg,
		projects:  projects,
		registry:  registry,
		planner:   plnr,
		llm:       llmClient,
		audit:     auditLog,
		conn:      conn,
		publisher: events.NewPublisher(conn),
		convos:    make(map[string]*convo.Context),
	}
	s.setupRoutes()
	return s
}

// bodyLimit rejects request bodies larger than n bytes.
func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	v1 := s.router.Group("/api/v1")
	v1.POST("/projects", s.createProjectHandler)
	v1.GET("/projects", s.listProjectsHandler)
	v1.POST("/projects/:project/activate", s.activateProjectHandler)
	v1.POST("/projects/:project/archive", s.archiveProjectHandler)
	v1.POST("/projects/:project/utterances", s.utteranceHandler)
	v1.GET("/projects/:project/runs/:run_id", s.getRunHandler)

	s.router.GET("/ws", s.wsHandler)
}

// Start starts the HTTP server on addr (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener. Used
// by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.router}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.cfg.Stats()
	c.JSON(http.StatusOK, HealthResponse{
		Status:       "healthy",
		Version:      version.Full(),
		Agents:       stats.Agents,
		Tools:        stats.Tools,
		LLMProviders: stats.LLMProviders,
		Projects:     len(s.projects.List()),
	})
}
