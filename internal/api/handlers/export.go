package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v3"

	"github.com/strand-ai/strand/internal/store"
	"github.com/strand-ai/strand/pkg/types"
)

// ExportHandler serializes workflows and provider configurations for
// backup or transfer. Credentials are deliberately excluded: an export
// never contains key material, encrypted or otherwise.
type ExportHandler struct {
	workflows *store.WorkflowStore
	providers *store.ProviderStore
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(workflows *store.WorkflowStore, providers *store.ProviderStore) *ExportHandler {
	return &ExportHandler{
		workflows: workflows,
		providers: providers,
	}
}

// exportBundle is the export/import document format.
type exportBundle struct {
	Workflows []*types.Workflow       `yaml:"workflows"`
	Providers []*types.CustomProvider `yaml:"providers"`
}

// Export returns all configurations as a YAML document.
func (h *ExportHandler) Export(c *gin.Context) {
	workflows, err := h.workflows.ListWorkflows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	providers, err := h.providers.ListProviders()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := yaml.Marshal(exportBundle{
		Workflows: workflows,
		Providers: providers,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="strand-export.yaml"`)
	c.Data(http.StatusOK, "application/x-yaml", data)
}

// Import loads a previously exported YAML document, upserting every
// workflow and provider it contains.
func (h *ExportHandler) Import(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var bundle exportBundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, workflow := range bundle.Workflows {
		if err := h.workflows.SaveWorkflow(workflow); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	for _, provider := range bundle.Providers {
		if err := h.providers.SaveProvider(provider); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"workflows": len(bundle.Workflows),
		"providers": len(bundle.Providers),
	})
}
