package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strand-ai/strand/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, s.Initialize())
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleWorkflow() *types.Workflow {
	return &types.Workflow{
		Name:        "Research pipeline",
		Description: "gather then summarize",
		Agents: []types.AgentDefinition{
			{
				ID:       "gather",
				Title:    "Researcher",
				Prompt:   "Collect facts about the topic.",
				Provider: types.ProviderAnthropic,
				Model:    "claude-3-5-haiku-20241022",
			},
			{
				ID:       "summarize",
				Title:    "Summarizer",
				Prompt:   "Summarize the facts.",
				Provider: types.ProviderOpenAI,
				Model:    "gpt-4o-mini",
			},
		},
	}
}

func TestWorkflowSaveAndGet(t *testing.T) {
	ws := NewWorkflowStore(testStore(t))

	wf := sampleWorkflow()
	require.NoError(t, ws.SaveWorkflow(wf))
	assert.NotEmpty(t, wf.ID)
	assert.False(t, wf.CreatedAt.IsZero())

	got, err := ws.GetWorkflow(wf.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, wf.Name, got.Name)
	require.Len(t, got.Agents, 2)
	assert.Equal(t, "gather", got.Agents[0].ID)
	assert.Equal(t, types.ProviderOpenAI, got.Agents[1].Provider)
}

func TestWorkflowGetMissingReturnsNil(t *testing.T) {
	ws := NewWorkflowStore(testStore(t))

	got, err := ws.GetWorkflow("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWorkflowSaveUpsertsByID(t *testing.T) {
	ws := NewWorkflowStore(testStore(t))

	wf := sampleWorkflow()
	require.NoError(t, ws.SaveWorkflow(wf))

	wf.Name = "Renamed"
	require.NoError(t, ws.SaveWorkflow(wf))

	all, err := ws.ListWorkflows()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Renamed", all[0].Name)
}

func TestWorkflowUpdatePartial(t *testing.T) {
	ws := NewWorkflowStore(testStore(t))

	wf := sampleWorkflow()
	require.NoError(t, ws.SaveWorkflow(wf))

	name := "Updated name"
	require.NoError(t, ws.UpdateWorkflow(wf.ID, &types.WorkflowUpdate{Name: &name}))

	got, err := ws.GetWorkflow(wf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated name", got.Name)
	// Untouched fields survive.
	assert.Equal(t, wf.Description, got.Description)
	assert.Len(t, got.Agents, 2)

	err = ws.UpdateWorkflow("missing", &types.WorkflowUpdate{Name: &name})
	assert.ErrorContains(t, err, "workflow not found")
}

func TestWorkflowDelete(t *testing.T) {
	ws := NewWorkflowStore(testStore(t))

	wf := sampleWorkflow()
	require.NoError(t, ws.SaveWorkflow(wf))
	require.NoError(t, ws.DeleteWorkflow(wf.ID))

	got, err := ws.GetWorkflow(wf.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.ErrorContains(t, ws.DeleteWorkflow(wf.ID), "workflow not found")
}
