package types

import "time"

// NoIndex is the sentinel for "no agent": currentIndex when idle,
// failedIndex when nothing has failed.
const NoIndex = -1

// TokenUsage reports token counts for one provider call. Approximate is
// set when the vendor did not report usage and the counts were estimated.
type TokenUsage struct {
	InputTokens  int  `json:"input_tokens"`
	OutputTokens int  `json:"output_tokens"`
	Approximate  bool `json:"approximate,omitempty"`
}

// AgentResult records one successfully completed agent step. Created
// exactly once per completed agent and never mutated within a run.
type AgentResult struct {
	AgentIndex      int        `json:"agent_index"`
	Input           string     `json:"input"`
	Output          string     `json:"output"`
	ExecutionTimeMS int64      `json:"execution_time_ms"` // wall clock, retries included
	Usage           TokenUsage `json:"usage"`
	Timestamp       time.Time  `json:"timestamp"`
}

// AgentStatus tracks per-agent progress within the current run.
type AgentStatus struct {
	IsExecuting     bool   `json:"is_executing"`
	IsComplete      bool   `json:"is_complete"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMS int64  `json:"execution_time_ms"`
	RetryCount      int    `json:"retry_count"`
}

// RunSnapshot is a consistent, read-only copy of the engine's run state.
// Consumers must never share references into live state; the engine hands
// out deep copies only.
type RunSnapshot struct {
	RunID        string                 `json:"run_id,omitempty"`
	IsRunning    bool                   `json:"is_running"`
	CurrentIndex int                    `json:"current_index"`
	Results      []AgentResult          `json:"results"`
	AgentStatus  map[string]AgentStatus `json:"agent_status"`
	RunError     string                 `json:"run_error,omitempty"`
	FailedIndex  int                    `json:"failed_index"`
}
