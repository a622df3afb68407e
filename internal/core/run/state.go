// Package run provides the workflow execution engine: a state machine
// that drives an agent chain to completion, one agent at a time.
package run

import (
	"github.com/strand-ai/strand/pkg/types"
)

// runState is the single mutable record of a run. It is owned by the
// Engine and mutated only through the transition methods below, always
// under the Engine's lock. Everything handed outside is a deep copy.
type runState struct {
	runID        string
	isRunning    bool
	currentIndex int
	results      []types.AgentResult
	agentStatus  map[string]types.AgentStatus
	runError     string
	failedIndex  int
}

func newRunState() *runState {
	return &runState{
		currentIndex: types.NoIndex,
		failedIndex:  types.NoIndex,
		agentStatus:  make(map[string]types.AgentStatus),
	}
}

// start transitions to Running(fromIndex). A resume keeps the preserved
// result prefix and the statuses of the agents that produced it; a start
// from zero replaces the state in full.
func (s *runState) start(runID string, agents []types.AgentDefinition, fromIndex int) {
	s.runID = runID
	s.isRunning = true
	s.currentIndex = fromIndex
	s.runError = ""
	s.failedIndex = types.NoIndex

	keep := fromIndex
	if keep > len(s.results) {
		keep = len(s.results)
	}
	s.results = s.results[:keep]
	preserved := make(map[string]types.AgentStatus, fromIndex)
	for i := 0; i < fromIndex && i < len(agents); i++ {
		if st, ok := s.agentStatus[agents[i].ID]; ok {
			preserved[agents[i].ID] = st
		}
	}
	s.agentStatus = preserved
}

// beginAgent marks agent i as the one currently executing.
func (s *runState) beginAgent(i int, agentID string) {
	s.currentIndex = i
	s.agentStatus[agentID] = types.AgentStatus{IsExecuting: true}
}

// recordSuccess appends the result for the current agent and marks it
// complete. Results are append-only within a run.
func (s *runState) recordSuccess(agentID string, result types.AgentResult, retries int) {
	s.results = append(s.results, result)
	s.agentStatus[agentID] = types.AgentStatus{
		IsComplete:      true,
		ExecutionTimeMS: result.ExecutionTimeMS,
		RetryCount:      retries,
	}
}

// recordFailure transitions to Failed(i), preserving every earlier
// result untouched.
func (s *runState) recordFailure(i int, agentID, message string, elapsedMS int64, retries int) {
	s.isRunning = false
	s.currentIndex = types.NoIndex
	s.failedIndex = i
	s.runError = message
	s.agentStatus[agentID] = types.AgentStatus{
		Error:           message,
		ExecutionTimeMS: elapsedMS,
		RetryCount:      retries,
	}
}

// cancel transitions to Cancelled: no failed agent is designated, the
// current agent is simply abandoned for future steps.
func (s *runState) cancel(agentID, message string) {
	s.isRunning = false
	s.currentIndex = types.NoIndex
	s.runError = message
	if agentID != "" {
		st := s.agentStatus[agentID]
		st.IsExecuting = false
		s.agentStatus[agentID] = st
	}
}

// complete transitions to Completed.
func (s *runState) complete() {
	s.isRunning = false
	s.currentIndex = types.NoIndex
}

// snapshot returns a deep copy safe to hand to consumers.
func (s *runState) snapshot() types.RunSnapshot {
	results := make([]types.AgentResult, len(s.results))
	copy(results, s.results)

	status := make(map[string]types.AgentStatus, len(s.agentStatus))
	for id, st := range s.agentStatus {
		status[id] = st
	}

	return types.RunSnapshot{
		RunID:        s.runID,
		IsRunning:    s.isRunning,
		CurrentIndex: s.currentIndex,
		Results:      results,
		AgentStatus:  status,
		RunError:     s.runError,
		FailedIndex:  s.failedIndex,
	}
}
