package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strand-ai/strand/internal/core/run"
)

// RunHandler exposes the engine's run state.
type RunHandler struct {
	engine *run.Engine
}

// NewRunHandler creates a new RunHandler.
func NewRunHandler(engine *run.Engine) *RunHandler {
	return &RunHandler{engine: engine}
}

// State returns a snapshot of the current run.
func (h *RunHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Snapshot())
}

// Cancel stops the active run.
func (h *RunHandler) Cancel(c *gin.Context) {
	if err := h.engine.Cancel(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelling"})
}
