package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/strand-ai/strand/internal/models"
	"github.com/strand-ai/strand/internal/store"
	"github.com/strand-ai/strand/pkg/types"
)

// ProviderHandler handles custom provider configurations and credentials.
type ProviderHandler struct {
	providers *store.ProviderStore
	catalog   *models.Catalog
}

// NewProviderHandler creates a new ProviderHandler.
func NewProviderHandler(providers *store.ProviderStore, catalog *models.Catalog) *ProviderHandler {
	return &ProviderHandler{
		providers: providers,
		catalog:   catalog,
	}
}

// List returns all custom provider configurations.
func (h *ProviderHandler) List(c *gin.Context) {
	providers, err := h.providers.ListProviders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, providers)
}

// Create saves a new custom provider configuration.
func (h *ProviderHandler) Create(c *gin.Context) {
	var cfg types.CustomProvider
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if cfg.Endpoint == "" || cfg.ResponsePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "endpoint and response_path are required"})
		return
	}

	if err := h.providers.SaveProvider(&cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

// Get retrieves a custom provider by ID.
func (h *ProviderHandler) Get(c *gin.Context) {
	cfg, err := h.providers.GetProvider(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cfg == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "provider not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

// Update updates a custom provider configuration.
func (h *ProviderHandler) Update(c *gin.Context) {
	id := c.Param("id")

	var update types.CustomProviderUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.providers.UpdateProvider(id, &update); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	cfg, _ := h.providers.GetProvider(id)
	c.JSON(http.StatusOK, cfg)
}

// Delete removes a custom provider configuration.
func (h *ProviderHandler) Delete(c *gin.Context) {
	if err := h.providers.DeleteProvider(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// Models lists the known models for a provider reference (built-in tag
// or custom provider ID).
func (h *ProviderHandler) Models(c *gin.Context) {
	modelList, err := h.catalog.ListModels(types.ProviderRef(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, modelList)
}

// SetCredential encrypts and stores the API key for a provider
// reference. The plaintext key is never echoed back.
func (h *ProviderHandler) SetCredential(c *gin.Context) {
	var body struct {
		APIKey string `json:"api_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref := types.ProviderRef(c.Param("id"))
	if err := h.catalog.SetAPIKey(ref, body.APIKey); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stored"})
}

// DeleteCredential removes the stored API key for a provider reference.
func (h *ProviderHandler) DeleteCredential(c *gin.Context) {
	ref := types.ProviderRef(c.Param("id"))
	if err := h.catalog.DeleteAPIKey(ref); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
