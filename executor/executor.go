package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowsmith/engine/analytics"
	"github.com/flowsmith/engine/flow"
	"github.com/flowsmith/engine/logger"
	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/task"
	"github.com/flowsmith/engine/util"
	"go.uber.org/zap"
)

// NodeError attributes a task failure to the state that raised it and, when
// it happened inside a parallel fan out, to the originating branch index.
// Branch is -1 outside parallel execution.
type NodeError struct {
	State  string
	Branch int
	Err    error
}

func (e *NodeError) Error() string {
	if e.Branch >= 0 {
		return fmt.Sprintf("branch %d state %s: %v", e.Branch, e.State, e.Err)
	}
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *NodeError) Unwrap() error {
	return e.Err
}

// RunExecutor drives one run of a compiled graph to a terminal status.
// It performs no retries and supports no mid graph resume; a failed run is
// retried, if at all, by re-triggering the whole graph, which is why every
// task must be idempotent.
type RunExecutor struct {
	ec task.ExecutionContext
}

func NewRunExecutor(ec task.ExecutionContext) *RunExecutor {
	return &RunExecutor{ec: ec}
}

// Execute walks the graph from its start state and returns the terminal run
// record. The run id is assigned by the caller so activations can be tracked
// before the walk begins.
func (e *RunExecutor) Execute(ctx context.Context, runId string, g *flow.Graph, input map[string]any) *model.Run {
	run := &model.Run{
		Id:           runId,
		FlowName:     g.Name,
		StartedAt:    time.Now(),
		State:        model.RUN_STATE_RUNNING,
		CurrentState: g.StartAt,
		FailedBranch: -1,
		Input:        input,
	}
	w := &walker{
		executor: e,
		flowName: g.Name,
		runId:    runId,
	}
	nodeErr := w.walk(ctx, g, util.CopyMap(input), func(state string) {
		run.CurrentState = state
	})
	run.EndedAt = time.Now()
	if nodeErr != nil {
		run.State = model.RUN_STATE_FAILED
		run.FailedState = nodeErr.State
		run.FailedBranch = nodeErr.Branch
		run.Error = nodeErr.Error()
		logger.Error("run failed", zap.String("flow", g.Name), zap.String("runId", runId),
			zap.String("state", nodeErr.State), zap.Int("branch", nodeErr.Branch), zap.Error(nodeErr.Err))
		return run
	}
	run.State = model.RUN_STATE_SUCCEEDED
	logger.Info("run succeeded", zap.String("flow", g.Name), zap.String("runId", runId))
	return run
}

type walker struct {
	executor *RunExecutor
	flowName string
	runId    string
}

// walk executes one branch sequentially in strict next order. trace reports
// the node about to execute; branch walks pass a no-op so only the top level
// updates the run's current state.
func (w *walker) walk(ctx context.Context, g *flow.Graph, input map[string]any, trace func(string)) *NodeError {
	current := g.StartAt
	for {
		trace(current)
		node := g.Nodes[current]
		switch n := node.(type) {
		case *flow.TaskNode:
			output, err := n.Task.Execute(ctx, w.executor.ec, input)
			if err != nil {
				analytics.RecordTaskFailure(w.flowName, w.runId, current, err.Error())
				return &NodeError{State: current, Branch: -1, Err: err}
			}
			analytics.RecordTaskSuccess(w.flowName, w.runId, current)
			input = output
			if n.Next == "" {
				return nil
			}
			current = n.Next
		case *flow.ParallelNode:
			if err := w.fanOut(ctx, n, input); err != nil {
				return err
			}
			if n.Next == "" {
				return nil
			}
			current = n.Next
		case *flow.SucceedNode:
			return nil
		default:
			return &NodeError{State: current, Branch: -1, Err: fmt.Errorf("unknown node type %T", node)}
		}
	}
}

// fanOut runs every branch concurrently with its own snapshot of the input
// and waits for all of them to reach a terminal state. A failing branch
// never cancels its siblings; isolation, not cancellation, is the guarantee.
// With several failures the lowest branch index is attributed and the rest
// are logged.
func (w *walker) fanOut(ctx context.Context, n *flow.ParallelNode, input map[string]any) *NodeError {
	if len(n.Branches) == 0 {
		return nil
	}
	branchErrs := make([]*NodeError, len(n.Branches))
	var wg sync.WaitGroup
	for i, branch := range n.Branches {
		wg.Add(1)
		go func(idx int, b *flow.Graph) {
			defer wg.Done()
			branchErrs[idx] = w.walk(ctx, b, util.CopyMap(input), func(string) {})
		}(i, branch)
	}
	wg.Wait()
	var first *NodeError
	for idx, berr := range branchErrs {
		if berr == nil {
			continue
		}
		if berr.Branch < 0 {
			berr.Branch = idx
		}
		if first == nil {
			first = berr
		} else {
			logger.Error("additional branch failure", zap.String("flow", w.flowName), zap.String("runId", w.runId),
				zap.String("parallel", n.Name), zap.Int("branch", berr.Branch), zap.Error(berr.Err))
		}
	}
	return first
}
