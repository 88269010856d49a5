package flow

import (
	"context"
	"testing"

	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/task"
	"github.com/stretchr/testify/require"
)

type noopTask struct {
	name string
}

func (t *noopTask) GetName() string { return t.name }
func (t *noopTask) Execute(ctx context.Context, ec task.ExecutionContext, input map[string]any) (map[string]any, error) {
	return input, nil
}

func newTestRegistry(t *testing.T) *task.Registry {
	r := task.NewRegistry()
	err := r.Register("noop", func(name string, params map[string]any) (task.Task, error) {
		return &noopTask{name: name}, nil
	})
	require.NoError(t, err)
	return r
}

func TestCompile(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, handlers *task.Registry,
	){
		"test compile chain":             testCompileChain,
		"test compile parallel":          testCompileParallel,
		"test unknown handler":           testUnknownHandler,
		"test undefined next":            testUndefinedNext,
		"test next cycle":                testNextCycle,
		"test unreachable state":         testUnreachableState,
		"test succeed with next":         testSucceedWithNext,
		"test missing startAt":           testMissingStartAt,
		"test invalid state type":        testInvalidStateType,
		"test task without handler":      testTaskWithoutHandler,
		"test invalid branch definition": testInvalidBranch,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newTestRegistry(t))
		})
	}
}

func testCompileChain(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "orders",
		StartAt: "extract",
		States: map[string]model.StateDefinition{
			"extract": {Type: "task", Handler: "noop", Next: "load"},
			"load":    {Type: "task", Handler: "noop", Next: "done"},
			"done":    {Type: "succeed"},
		},
	}
	g, err := Compile(def, handlers)
	require.NoError(t, err)
	require.Equal(t, "orders", g.Name)
	require.Equal(t, "extract", g.StartAt)
	require.Len(t, g.Nodes, 3)

	require.Equal(t, model.STATE_TYPE_TASK, g.Nodes["extract"].GetType())
	require.Equal(t, "load", g.Nodes["extract"].GetNext())
	require.Equal(t, model.STATE_TYPE_SUCCEED, g.Nodes["done"].GetType())
	require.Equal(t, "", g.Nodes["done"].GetNext())
}

func testCompileParallel(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "daily",
		StartAt: "fanout",
		States: map[string]model.StateDefinition{
			"fanout": {
				Type: "parallel",
				Branches: []model.BranchDefinition{
					{StartAt: "a", States: map[string]model.StateDefinition{
						"a": {Type: "task", Handler: "noop"},
					}},
					{StartAt: "b", States: map[string]model.StateDefinition{
						"b": {Type: "task", Handler: "noop", Next: "c"},
						"c": {Type: "task", Handler: "noop"},
					}},
				},
				Next: "done",
			},
			"done": {Type: "succeed"},
		},
	}
	g, err := Compile(def, handlers)
	require.NoError(t, err)

	node, ok := g.Nodes["fanout"].(*ParallelNode)
	require.True(t, ok)
	require.Len(t, node.Branches, 2)
	require.Equal(t, "a", node.Branches[0].StartAt)
	require.Len(t, node.Branches[1].Nodes, 2)
	require.Equal(t, "done", node.GetNext())
}

func testUnknownHandler(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "s1",
		States: map[string]model.StateDefinition{
			"s1": {Type: "task", Handler: "no-such-handler"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testUndefinedNext(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "s1",
		States: map[string]model.StateDefinition{
			"s1": {Type: "task", Handler: "noop", Next: "missing"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testNextCycle(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "s1",
		States: map[string]model.StateDefinition{
			"s1": {Type: "task", Handler: "noop", Next: "s2"},
			"s2": {Type: "task", Handler: "noop", Next: "s1"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testUnreachableState(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "s1",
		States: map[string]model.StateDefinition{
			"s1":     {Type: "task", Handler: "noop"},
			"orphan": {Type: "task", Handler: "noop"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testSucceedWithNext(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "done",
		States: map[string]model.StateDefinition{
			"done":  {Type: "succeed", Next: "extra"},
			"extra": {Type: "task", Handler: "noop"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testMissingStartAt(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name: "bad",
		States: map[string]model.StateDefinition{
			"s1": {Type: "task", Handler: "noop"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testInvalidStateType(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "s1",
		States: map[string]model.StateDefinition{
			"s1": {Type: "choice"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testTaskWithoutHandler(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "s1",
		States: map[string]model.StateDefinition{
			"s1": {Type: "task"},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}

func testInvalidBranch(t *testing.T, handlers *task.Registry) {
	def := model.FlowDefinition{
		Name:    "bad",
		StartAt: "fanout",
		States: map[string]model.StateDefinition{
			"fanout": {
				Type: "parallel",
				Branches: []model.BranchDefinition{
					{StartAt: "missing", States: map[string]model.StateDefinition{
						"a": {Type: "task", Handler: "noop"},
					}},
				},
			},
		},
	}
	_, err := Compile(def, handlers)
	require.Error(t, err)
}
