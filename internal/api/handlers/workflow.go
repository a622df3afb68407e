// Package handlers provides HTTP request handlers.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/strand-ai/strand/internal/core/run"
	"github.com/strand-ai/strand/internal/store"
	"github.com/strand-ai/strand/pkg/types"
)

// WorkflowHandler handles workflow-related requests.
type WorkflowHandler struct {
	workflows *store.WorkflowStore
	engine    *run.Engine
}

// NewWorkflowHandler creates a new WorkflowHandler.
func NewWorkflowHandler(workflows *store.WorkflowStore, engine *run.Engine) *WorkflowHandler {
	return &WorkflowHandler{
		workflows: workflows,
		engine:    engine,
	}
}

// List returns all saved workflows.
func (h *WorkflowHandler) List(c *gin.Context) {
	workflows, err := h.workflows.ListWorkflows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, workflows)
}

// Create saves a new workflow.
func (h *WorkflowHandler) Create(c *gin.Context) {
	var workflow types.Workflow
	if err := c.ShouldBindJSON(&workflow); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.workflows.SaveWorkflow(&workflow); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, workflow)
}

// Get retrieves a workflow by ID.
func (h *WorkflowHandler) Get(c *gin.Context) {
	workflow, err := h.workflows.GetWorkflow(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if workflow == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}
	c.JSON(http.StatusOK, workflow)
}

// Update updates a saved workflow.
func (h *WorkflowHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var update types.WorkflowUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.workflows.UpdateWorkflow(id, &update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	workflow, _ := h.workflows.GetWorkflow(id)
	c.JSON(http.StatusOK, workflow)
}

// Delete removes a saved workflow.
func (h *WorkflowHandler) Delete(c *gin.Context) {
	if err := h.workflows.DeleteWorkflow(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Run starts executing a workflow. The from_index query parameter
// resumes a failed run from that agent; 0 (the default) is a full
// restart. Retrying only the failed agent and retrying the whole chain
// are the same call with different indexes.
func (h *WorkflowHandler) Run(c *gin.Context) {
	workflow, err := h.workflows.GetWorkflow(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if workflow == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return
	}

	fromIndex := 0
	if raw := c.Query("from_index"); raw != "" {
		fromIndex, err = strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from_index"})
			return
		}
	}

	runID, err := h.engine.RunAsync(workflow.Agents, fromIndex)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, run.ErrRunInProgress) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "started",
		"run_id": runID,
	})
}
