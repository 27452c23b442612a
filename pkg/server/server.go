// Package server exposes discovery and execution over HTTP and streams
// progress over a websocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pilotlabs/webops/pkg/discovery"
	"github.com/pilotlabs/webops/pkg/executor"
	"github.com/pilotlabs/webops/pkg/logging"
	"github.com/pilotlabs/webops/pkg/progress"
	"github.com/pilotlabs/webops/pkg/store"
	"github.com/pilotlabs/webops/pkg/types"
)

// discoveryTimeout bounds one background discovery run end to end.
const discoveryTimeout = 10 * time.Minute

// Server wires the HTTP surface to the discovery pipeline, execution
// queue, and persistence layer.
type Server struct {
	router   *gin.Engine
	pipeline *discovery.Pipeline
	queue    *executor.ExecutionQueue
	store    *store.Store
	hub      *progress.Hub
	sink     progress.Sink
	logger   *logging.Logger
}

// New creates a server and registers its routes. The sink receives
// discovery progress; pass a Multi combining the hub and a log sink to
// both stream and record it.
func New(pipeline *discovery.Pipeline, queue *executor.ExecutionQueue, st *store.Store, hub *progress.Hub, sink progress.Sink) *Server {
	logger, _ := logging.NewLogger("server")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		pipeline: pipeline,
		queue:    queue,
		store:    st,
		hub:      hub,
		sink:     sink,
		logger:   logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.ServeWS(c.Writer, c.Request)
	})

	api := s.router.Group("/api")
	{
		api.GET("/services", s.handleListServices)
		api.GET("/services/:id", s.handleGetService)
		api.DELETE("/services/:id", s.handleDeleteService)
		api.POST("/services/:id/discover", s.handleDiscover)
		api.POST("/services/:id/execute", s.handleExecute)
		api.DELETE("/services/:id/queue", s.handleStopQueue)
		api.GET("/tasks/:id", s.handleGetTask)
	}
}

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.logger.Infof("listening on %s", addr)
	return s.router.Run(addr)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleListServices(c *gin.Context) {
	ids, err := s.store.ListServiceIDs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"services": ids})
}

func (s *Server) handleGetService(c *gin.Context) {
	config, err := s.store.GetServiceConfig(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, config)
}

func (s *Server) handleDeleteService(c *gin.Context) {
	serviceID := c.Param("id")
	s.queue.StopQueue(serviceID)
	if err := s.store.DeleteService(c.Request.Context(), serviceID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type discoverRequest struct {
	URL         string `json:"url" binding:"required"`
	Credentials struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		APIKey   string `json:"api_key"`
	} `json:"credentials"`
}

// handleDiscover kicks off discovery in the background and returns
// immediately; progress streams over the websocket. The resulting config
// is persisted only on full success.
func (s *Server) handleDiscover(c *gin.Context) {
	serviceID := c.Param("id")

	var req discoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := types.Credentials{
		Email:    req.Credentials.Email,
		Password: req.Credentials.Password,
		APIKey:   req.Credentials.APIKey,
	}

	go s.runDiscovery(serviceID, req.URL, creds)

	c.JSON(http.StatusAccepted, gin.H{
		"service_id": serviceID,
		"status":     "discovering",
	})
}

func (s *Server) runDiscovery(serviceID, url string, creds types.Credentials) {
	ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
	defer cancel()

	// The browser context id is the service id so discovery and later
	// execution share one authenticated session.
	config, err := s.pipeline.Discover(ctx, serviceID, url, creds, serviceID, s.sink)
	if err != nil {
		s.logger.Errorf("service %s: discovery failed: %v", serviceID, err)
		return
	}

	if err := s.store.SaveServiceConfig(ctx, config); err != nil {
		s.logger.Errorf("service %s: failed to persist config: %v", serviceID, err)
		return
	}
	if err := s.store.SaveCredentials(ctx, serviceID, creds); err != nil {
		s.logger.Errorf("service %s: failed to persist credentials: %v", serviceID, err)
	}
}

type executeRequest struct {
	OperationID string                 `json:"operation_id" binding:"required"`
	Parameters  map[string]interface{} `json:"parameters"`
}

func (s *Server) handleExecute(c *gin.Context) {
	serviceID := c.Param("id")

	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.store.GetServiceConfig(c.Request.Context(), serviceID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "service not found, run discovery first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	taskID, err := s.queue.AddTask(serviceID, req.OperationID, req.Parameters)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": taskID})
}

func (s *Server) handleStopQueue(c *gin.Context) {
	s.queue.StopQueue(c.Param("id"))
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task := s.queue.GetTaskStatus(c.Param("id"))
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}
