// Package api provides the REST API for Strand.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/strand-ai/strand/internal/api/handlers"
	"github.com/strand-ai/strand/internal/core/run"
	"github.com/strand-ai/strand/internal/models"
	"github.com/strand-ai/strand/internal/store"
	"github.com/strand-ai/strand/pkg/types"
)

// Router holds all API dependencies and routes.
type Router struct {
	engine    *gin.Engine
	workflows *store.WorkflowStore
	providers *store.ProviderStore
	catalog   *models.Catalog
	runEngine *run.Engine

	// WebSocket upgrader
	upgrader websocket.Upgrader

	// WebSocket clients, each with a write lock: gorilla allows only
	// one concurrent writer per connection.
	wsClientsMu sync.RWMutex
	wsClients   map[*websocket.Conn]*sync.Mutex
}

// NewRouter creates a new API router.
func NewRouter(
	workflows *store.WorkflowStore,
	providers *store.ProviderStore,
	catalog *models.Catalog,
	runEngine *run.Engine,
) *Router {
	r := &Router{
		engine:    gin.Default(),
		workflows: workflows,
		providers: providers,
		catalog:   catalog,
		runEngine: runEngine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for development
			},
		},
		wsClients: make(map[*websocket.Conn]*sync.Mutex),
	}

	r.setupRoutes()

	// Start broadcasting run state if an engine is available
	if runEngine != nil {
		go r.broadcastRunState()
	}

	return r
}

// setupRoutes configures all API routes.
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := r.engine.Group("/api/v1")
	{
		// Workflows
		workflows := v1.Group("/workflows")
		{
			workflows.GET("", r.listWorkflows)
			workflows.POST("", r.createWorkflow)
			workflows.GET("/:id", r.getWorkflow)
			workflows.PUT("/:id", r.updateWorkflow)
			workflows.DELETE("/:id", r.deleteWorkflow)
			workflows.POST("/:id/run", r.runWorkflow)
		}

		// Active run
		runRoutes := v1.Group("/run")
		{
			runRoutes.GET("/state", r.getRunState)
			runRoutes.POST("/cancel", r.cancelRun)
		}

		// Providers
		providers := v1.Group("/providers")
		{
			providers.GET("", r.listProviders)
			providers.POST("", r.createProvider)
			providers.GET("/:id", r.getProvider)
			providers.PUT("/:id", r.updateProvider)
			providers.DELETE("/:id", r.deleteProvider)
			providers.GET("/:id/models", r.listProviderModels)
			providers.PUT("/:id/credential", r.setCredential)
			providers.DELETE("/:id/credential", r.deleteCredential)
		}

		// Export and import
		v1.GET("/export", r.exportConfig)
		v1.POST("/import", r.importConfig)
	}

	// WebSocket for real-time run updates
	r.engine.GET("/ws", r.handleWebSocket)
}

// Handler returns the HTTP handler.
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Workflow handlers

func (r *Router) listWorkflows(c *gin.Context) {
	h := handlers.NewWorkflowHandler(r.workflows, r.runEngine)
	h.List(c)
}

func (r *Router) createWorkflow(c *gin.Context) {
	h := handlers.NewWorkflowHandler(r.workflows, r.runEngine)
	h.Create(c)
}

func (r *Router) getWorkflow(c *gin.Context) {
	h := handlers.NewWorkflowHandler(r.workflows, r.runEngine)
	h.Get(c)
}

func (r *Router) updateWorkflow(c *gin.Context) {
	h := handlers.NewWorkflowHandler(r.workflows, r.runEngine)
	h.Update(c)
}

func (r *Router) deleteWorkflow(c *gin.Context) {
	h := handlers.NewWorkflowHandler(r.workflows, r.runEngine)
	h.Delete(c)
}

func (r *Router) runWorkflow(c *gin.Context) {
	h := handlers.NewWorkflowHandler(r.workflows, r.runEngine)
	h.Run(c)
}

// Run handlers

func (r *Router) getRunState(c *gin.Context) {
	h := handlers.NewRunHandler(r.runEngine)
	h.State(c)
}

func (r *Router) cancelRun(c *gin.Context) {
	h := handlers.NewRunHandler(r.runEngine)
	h.Cancel(c)
}

// Provider handlers

func (r *Router) listProviders(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.List(c)
}

func (r *Router) createProvider(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.Create(c)
}

func (r *Router) getProvider(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.Get(c)
}

func (r *Router) updateProvider(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.Update(c)
}

func (r *Router) deleteProvider(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.Delete(c)
}

func (r *Router) listProviderModels(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.Models(c)
}

func (r *Router) setCredential(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.SetCredential(c)
}

func (r *Router) deleteCredential(c *gin.Context) {
	h := handlers.NewProviderHandler(r.providers, r.catalog)
	h.DeleteCredential(c)
}

// Export handlers

func (r *Router) exportConfig(c *gin.Context) {
	h := handlers.NewExportHandler(r.workflows, r.providers)
	h.Export(c)
}

func (r *Router) importConfig(c *gin.Context) {
	h := handlers.NewExportHandler(r.workflows, r.providers)
	h.Import(c)
}

// WebSocket handler

func (r *Router) handleWebSocket(c *gin.Context) {
	conn, err := r.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	// Register client
	writeMu := &sync.Mutex{}
	r.wsClientsMu.Lock()
	r.wsClients[conn] = writeMu
	r.wsClientsMu.Unlock()

	defer func() {
		r.wsClientsMu.Lock()
		delete(r.wsClients, conn)
		r.wsClientsMu.Unlock()
		conn.Close()
	}()

	// Send the current run state so clients don't start blind
	if r.runEngine != nil {
		msg := types.WebSocketMessage{
			Type:    "run_state",
			Payload: r.runEngine.Snapshot(),
		}
		data, _ := json.Marshal(msg)
		writeConn(conn, writeMu, data)
	}

	// Handle incoming messages
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var req struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(message, &req); err != nil {
			continue
		}

		switch req.Action {
		case "get_state":
			if r.runEngine != nil {
				msg := types.WebSocketMessage{
					Type:    "run_state",
					Payload: r.runEngine.Snapshot(),
				}
				data, _ := json.Marshal(msg)
				writeConn(conn, writeMu, data)
			}
		}
	}
}

// writeConn serializes writes to a single WebSocket connection.
func writeConn(conn *websocket.Conn, mu *sync.Mutex, data []byte) error {
	mu.Lock()
	defer mu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// broadcastRunState streams engine snapshots to all WebSocket clients.
func (r *Router) broadcastRunState() {
	if r.runEngine == nil {
		return
	}

	snapshots := r.runEngine.Subscribe("api_broadcaster")
	defer r.runEngine.Unsubscribe("api_broadcaster")

	for snapshot := range snapshots {
		msg := types.WebSocketMessage{
			Type:    "run_state",
			Payload: snapshot,
		}
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}

		r.wsClientsMu.RLock()
		for conn, mu := range r.wsClients {
			if err := writeConn(conn, mu, data); err != nil {
				// Client will be removed when read fails
				continue
			}
		}
		r.wsClientsMu.RUnlock()
	}
}

// BroadcastMessage sends a message to all WebSocket clients.
func (r *Router) BroadcastMessage(msgType string, payload interface{}) {
	msg := types.WebSocketMessage{
		Type:    msgType,
		Payload: payload,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.wsClientsMu.RLock()
	defer r.wsClientsMu.RUnlock()

	for conn, mu := range r.wsClients {
		writeConn(conn, mu, data)
	}
}
