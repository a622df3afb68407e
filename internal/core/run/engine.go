package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/strand-ai/strand/internal/core/executor"
	"github.com/strand-ai/strand/internal/provider"
	"github.com/strand-ai/strand/pkg/types"
)

// cancelledMarker is the runError value for a user-cancelled run.
const cancelledMarker = "run cancelled by user"

// ErrRunInProgress is returned when a start is attempted while a run is
// already active. Only one run may be active per engine.
var ErrRunInProgress = errors.New("a run is already in progress")

// CredentialSource looks up the API key for a provider reference,
// returning an error when the provider is not configured.
type CredentialSource interface {
	APIKey(ref types.ProviderRef) (string, error)
}

// AdapterSource resolves a provider reference and credential into a
// callable adapter.
type AdapterSource interface {
	Adapter(ref types.ProviderRef, apiKey string) (provider.Adapter, error)
}

// Engine executes an agent chain sequentially, threading each agent's
// output into the next agent's input. It is the sole mutator of its run
// state; consumers only see snapshots.
type Engine struct {
	mu        sync.Mutex
	state     *runState
	cancelRun context.CancelFunc

	exec     *executor.Executor
	adapters AdapterSource
	creds    CredentialSource
	logger   *zap.Logger

	subsMu      sync.RWMutex
	subscribers map[string]chan types.RunSnapshot
}

// NewEngine creates an execution Engine.
func NewEngine(exec *executor.Executor, adapters AdapterSource, creds CredentialSource, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		state:       newRunState(),
		exec:        exec,
		adapters:    adapters,
		creds:       creds,
		logger:      logger,
		subscribers: make(map[string]chan types.RunSnapshot),
	}
}

// Run executes the chain synchronously from fromIndex. The returned
// error covers start rejections only; the run outcome (completed,
// failed, cancelled) is reflected in the snapshot.
func (e *Engine) Run(ctx context.Context, agents []types.AgentDefinition, fromIndex int) error {
	runCtx, err := e.begin(ctx, agents, fromIndex)
	if err != nil {
		return err
	}
	e.loop(runCtx, agents, fromIndex)
	return nil
}

// RunAsync starts the chain in the background and returns the run ID.
// The start guards run synchronously so a rejection is reported to the
// caller rather than swallowed.
func (e *Engine) RunAsync(agents []types.AgentDefinition, fromIndex int) (string, error) {
	runCtx, err := e.begin(context.Background(), agents, fromIndex)
	if err != nil {
		return "", err
	}
	runID := e.Snapshot().RunID
	go e.loop(runCtx, agents, fromIndex)
	return runID, nil
}

// begin validates the start transition and, on success, moves the state
// to Running(fromIndex) and installs the run's cancellation context.
func (e *Engine) begin(ctx context.Context, agents []types.AgentDefinition, fromIndex int) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.isRunning {
		return nil, ErrRunInProgress
	}
	if err := e.validate(agents, fromIndex); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancelRun = cancel
	e.state.start(uuid.NewString(), agents, fromIndex)
	e.logger.Info("run started",
		zap.String("run_id", e.state.runID),
		zap.Int("agents", len(agents)),
		zap.Int("from_index", fromIndex),
	)
	return runCtx, nil
}

// validate enforces the start guards: a non-empty chain, a resumable
// index, and a resolved provider, model and credential for every agent
// that will execute. All checks happen before any network call.
func (e *Engine) validate(agents []types.AgentDefinition, fromIndex int) error {
	if len(agents) == 0 {
		return errors.New("workflow has no agents")
	}
	if fromIndex < 0 || fromIndex >= len(agents) {
		return fmt.Errorf("start index %d out of range", fromIndex)
	}
	if fromIndex > len(e.state.results) {
		return fmt.Errorf("cannot resume from agent %d: only %d results preserved", fromIndex, len(e.state.results))
	}
	for i := fromIndex; i < len(agents); i++ {
		if !agents[i].Resolved() {
			return fmt.Errorf("agent %q has no provider or model configured", agents[i].Label())
		}
		if _, err := e.creds.APIKey(agents[i].Provider); err != nil {
			return fmt.Errorf("agent %q: %w", agents[i].Label(), err)
		}
	}
	return nil
}

// loop is the sequential execution loop. Agent k+1 never starts before
// agent k's outcome is known.
func (e *Engine) loop(ctx context.Context, agents []types.AgentDefinition, fromIndex int) {
	input := ""
	if fromIndex > 0 {
		e.mu.Lock()
		input = e.state.results[fromIndex-1].Output
		e.mu.Unlock()
	}

	for i := fromIndex; i < len(agents); i++ {
		if ctx.Err() != nil {
			e.markCancelled(agents[i].ID)
			return
		}
		agent := agents[i]

		apiKey, err := e.creds.APIKey(agent.Provider)
		if err != nil {
			e.markFailure(i, agent, executor.Result{}, err)
			return
		}
		adapter, err := e.adapters.Adapter(agent.Provider, apiKey)
		if err != nil {
			e.markFailure(i, agent, executor.Result{}, err)
			return
		}

		output, ok := e.runAgent(ctx, i, agent, adapter, input)
		if !ok {
			return
		}
		input = output
	}

	e.markComplete()
}

// runAgent executes one agent step. ok is false when the run has
// terminated (failure or cancellation).
func (e *Engine) runAgent(ctx context.Context, i int, agent types.AgentDefinition, adapter provider.Adapter, input string) (output string, ok bool) {
	prompt := composeInput(agent.Prompt, input)
	stepInput := input
	if i == 0 && stepInput == "" {
		stepInput = agent.Prompt
	}

	e.mu.Lock()
	e.state.beginAgent(i, agent.ID)
	e.mu.Unlock()
	e.broadcast()

	res, err := e.exec.Execute(ctx, adapter, provider.GenerateRequest{
		Model:  agent.Model,
		Prompt: prompt,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			e.markCancelled(agent.ID)
			return "", false
		}
		e.markFailure(i, agent, res, err)
		return "", false
	}

	result := types.AgentResult{
		AgentIndex:      i,
		Input:           stepInput,
		Output:          res.Output,
		ExecutionTimeMS: res.ElapsedMS,
		Usage:           res.Usage,
		Timestamp:       time.Now(),
	}
	e.mu.Lock()
	e.state.recordSuccess(agent.ID, result, res.Retries)
	e.mu.Unlock()
	e.broadcast()

	e.logger.Info("agent completed",
		zap.Int("index", i),
		zap.String("agent", agent.Label()),
		zap.Int64("elapsed_ms", res.ElapsedMS),
		zap.Int("retries", res.Retries),
	)
	return res.Output, true
}

// Cancel aborts the active run. The in-flight provider call is
// interrupted through its context rather than waited out.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.isRunning {
		return errors.New("no run in progress")
	}
	e.cancelRun()
	return nil
}

// Snapshot returns a consistent copy of the current run state.
func (e *Engine) Snapshot() types.RunSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.snapshot()
}

// Subscribe registers a named consumer of run-state snapshots. Slow
// consumers miss updates instead of blocking the engine. Re-subscribing
// with an existing id closes the displaced channel.
func (e *Engine) Subscribe(id string) <-chan types.RunSnapshot {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	if old, ok := e.subscribers[id]; ok {
		close(old)
	}
	ch := make(chan types.RunSnapshot, 16)
	e.subscribers[id] = ch
	return ch
}

// Unsubscribe removes a consumer and closes its channel.
func (e *Engine) Unsubscribe(id string) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	if ch, ok := e.subscribers[id]; ok {
		delete(e.subscribers, id)
		close(ch)
	}
}

func (e *Engine) broadcast() {
	snap := e.Snapshot()

	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, ch := range e.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}

// release frees the run's cancellation context. Must be called with the
// lock held, on every terminal transition.
func (e *Engine) release() {
	if e.cancelRun != nil {
		e.cancelRun()
		e.cancelRun = nil
	}
}

func (e *Engine) markFailure(i int, agent types.AgentDefinition, res executor.Result, err error) {
	message := fmt.Sprintf("%s: %v", agent.Label(), err)

	e.mu.Lock()
	e.state.recordFailure(i, agent.ID, message, res.ElapsedMS, res.Retries)
	e.release()
	e.mu.Unlock()
	e.broadcast()

	e.logger.Warn("run failed",
		zap.Int("index", i),
		zap.String("agent", agent.Label()),
		zap.Error(err),
	)
}

func (e *Engine) markCancelled(agentID string) {
	e.mu.Lock()
	e.state.cancel(agentID, cancelledMarker)
	e.release()
	e.mu.Unlock()
	e.broadcast()

	e.logger.Info("run cancelled")
}

func (e *Engine) markComplete() {
	e.mu.Lock()
	e.state.complete()
	e.release()
	e.mu.Unlock()
	e.broadcast()

	e.logger.Info("run completed")
}

// composeInput combines an agent's role prompt with the content it
// should process; the role text always comes first.
func composeInput(prompt, input string) string {
	if strings.TrimSpace(input) == "" {
		return prompt
	}
	return prompt + "\n\n" + input
}
