package run

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/strand-ai/strand/pkg/types"
)

func chain(n int) []types.AgentDefinition {
	agents := make([]types.AgentDefinition, n)
	for i := range agents {
		agents[i] = types.AgentDefinition{
			ID:       string(rune('a' + i)),
			Title:    "Agent " + string(rune('A'+i)),
			Prompt:   "do step",
			Provider: types.ProviderAnthropic,
			Model:    "claude-3-5-haiku-20241022",
		}
	}
	return agents
}

func TestNewRunStateIsIdle(t *testing.T) {
	s := newRunState()
	snap := s.snapshot()

	assert.False(t, snap.IsRunning)
	assert.Equal(t, types.NoIndex, snap.CurrentIndex)
	assert.Equal(t, types.NoIndex, snap.FailedIndex)
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.RunError)
}

func TestStartFromZeroResetsEverything(t *testing.T) {
	agents := chain(3)
	s := newRunState()
	s.start("run-1", agents, 0)
	s.beginAgent(0, "a")
	s.recordSuccess("a", types.AgentResult{AgentIndex: 0, Output: "out"}, 0)
	s.recordFailure(1, "b", "boom", 5, 3)

	s.start("run-2", agents, 0)
	snap := s.snapshot()

	assert.Equal(t, "run-2", snap.RunID)
	assert.True(t, snap.IsRunning)
	assert.Equal(t, 0, snap.CurrentIndex)
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.AgentStatus)
	assert.Empty(t, snap.RunError)
	assert.Equal(t, types.NoIndex, snap.FailedIndex)
}

func TestStartResumePreservesPrefix(t *testing.T) {
	agents := chain(3)
	s := newRunState()
	s.start("run-1", agents, 0)
	s.beginAgent(0, "a")
	s.recordSuccess("a", types.AgentResult{AgentIndex: 0, Output: "first"}, 1)
	s.beginAgent(1, "b")
	s.recordFailure(1, "b", "boom", 5, 3)

	s.start("run-2", agents, 1)
	snap := s.snapshot()

	assert.True(t, snap.IsRunning)
	assert.Equal(t, 1, snap.CurrentIndex)
	assert.Len(t, snap.Results, 1)
	assert.Equal(t, "first", snap.Results[0].Output)
	assert.Equal(t, types.NoIndex, snap.FailedIndex)
	assert.Empty(t, snap.RunError)

	// The succeeded agent keeps its status; the failed one is cleared.
	assert.True(t, snap.AgentStatus["a"].IsComplete)
	_, hasB := snap.AgentStatus["b"]
	assert.False(t, hasB)
}

func TestStartClampsResultPrefix(t *testing.T) {
	agents := chain(3)
	s := newRunState()

	// No results yet, but a resume index of 2 must not panic.
	s.start("run-1", agents, 2)
	assert.Empty(t, s.snapshot().Results)
}

func TestRecordFailureKeepsEarlierResults(t *testing.T) {
	agents := chain(3)
	s := newRunState()
	s.start("run-1", agents, 0)
	s.recordSuccess("a", types.AgentResult{AgentIndex: 0, Output: "kept"}, 0)
	s.recordFailure(1, "b", "agent b: boom", 42, 3)

	snap := s.snapshot()
	assert.False(t, snap.IsRunning)
	assert.Equal(t, types.NoIndex, snap.CurrentIndex)
	assert.Equal(t, 1, snap.FailedIndex)
	assert.Equal(t, "agent b: boom", snap.RunError)
	assert.Len(t, snap.Results, 1)
	assert.Equal(t, "kept", snap.Results[0].Output)

	st := snap.AgentStatus["b"]
	assert.Equal(t, "agent b: boom", st.Error)
	assert.Equal(t, int64(42), st.ExecutionTimeMS)
	assert.Equal(t, 3, st.RetryCount)
}

func TestCancelClearsExecutingAgent(t *testing.T) {
	agents := chain(2)
	s := newRunState()
	s.start("run-1", agents, 0)
	s.beginAgent(0, "a")

	s.cancel("a", "run cancelled by user")
	snap := s.snapshot()

	assert.False(t, snap.IsRunning)
	assert.Equal(t, types.NoIndex, snap.CurrentIndex)
	assert.Equal(t, types.NoIndex, snap.FailedIndex)
	assert.Equal(t, "run cancelled by user", snap.RunError)
	assert.False(t, snap.AgentStatus["a"].IsExecuting)
}

func TestCompleteTransition(t *testing.T) {
	agents := chain(1)
	s := newRunState()
	s.start("run-1", agents, 0)
	s.recordSuccess("a", types.AgentResult{AgentIndex: 0, Output: "done"}, 0)
	s.complete()

	snap := s.snapshot()
	assert.False(t, snap.IsRunning)
	assert.Equal(t, types.NoIndex, snap.CurrentIndex)
	assert.Empty(t, snap.RunError)
	assert.Len(t, snap.Results, 1)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	agents := chain(2)
	s := newRunState()
	s.start("run-1", agents, 0)
	s.recordSuccess("a", types.AgentResult{AgentIndex: 0, Output: "original"}, 0)

	snap := s.snapshot()
	snap.Results[0].Output = "mutated"
	snap.AgentStatus["a"] = types.AgentStatus{Error: "mutated"}

	fresh := s.snapshot()
	assert.Equal(t, "original", fresh.Results[0].Output)
	assert.True(t, fresh.AgentStatus["a"].IsComplete)
	assert.Empty(t, fresh.AgentStatus["a"].Error)
}
