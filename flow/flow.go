package flow

import (
	"fmt"
	"strings"

	"github.com/flowsmith/engine/model"
	"github.com/flowsmith/engine/task"
)

// Node is one state in a compiled graph. Variants: TaskNode, ParallelNode,
// SucceedNode. A node with an empty next is terminal.
type Node interface {
	GetName() string
	GetType() model.StateType
	GetNext() string
}

type TaskNode struct {
	Name string
	Task task.Task
	Next string
}

func (n *TaskNode) GetName() string          { return n.Name }
func (n *TaskNode) GetType() model.StateType { return model.STATE_TYPE_TASK }
func (n *TaskNode) GetNext() string          { return n.Next }

type ParallelNode struct {
	Name     string
	Branches []*Graph
	Next     string
}

func (n *ParallelNode) GetName() string          { return n.Name }
func (n *ParallelNode) GetType() model.StateType { return model.STATE_TYPE_PARALLEL }
func (n *ParallelNode) GetNext() string          { return n.Next }

type SucceedNode struct {
	Name string
}

func (n *SucceedNode) GetName() string          { return n.Name }
func (n *SucceedNode) GetType() model.StateType { return model.STATE_TYPE_SUCCEED }
func (n *SucceedNode) GetNext() string          { return "" }

// Graph is a compiled, immutable state graph. Defined once at registration,
// only executed afterwards.
type Graph struct {
	Name    string
	StartAt string
	Nodes   map[string]Node
}

// Compile turns an authored definition into a validated graph. Handler names
// resolve against the task registry; unknown handlers, undefined next targets
// and next cycles are all registration time errors.
func Compile(def model.FlowDefinition, handlers *task.Registry) (*Graph, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("flow name can not be empty")
	}
	g, err := compileGraph(def.Name, def.StartAt, def.States, handlers)
	if err != nil {
		return nil, fmt.Errorf("flow %s: %w", def.Name, err)
	}
	return g, nil
}

func compileGraph(name string, startAt string, states map[string]model.StateDefinition, handlers *task.Registry) (*Graph, error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("graph has no states")
	}
	if startAt == "" {
		return nil, fmt.Errorf("graph has no startAt")
	}
	nodes := make(map[string]Node, len(states))
	for stateName, stateDef := range states {
		node, err := compileState(name, stateName, stateDef, handlers)
		if err != nil {
			return nil, err
		}
		nodes[stateName] = node
	}
	g := &Graph{
		Name:    name,
		StartAt: startAt,
		Nodes:   nodes,
	}
	if err := validate(g); err != nil {
		return nil, err
	}
	return g, nil
}

func compileState(flowName string, stateName string, def model.StateDefinition, handlers *task.Registry) (Node, error) {
	switch {
	case strings.EqualFold(def.Type, string(model.STATE_TYPE_TASK)):
		if def.Handler == "" {
			return nil, fmt.Errorf("state %s: task state requires a handler", stateName)
		}
		t, err := handlers.Build(def.Handler, stateName, def.Params)
		if err != nil {
			return nil, fmt.Errorf("state %s: %w", stateName, err)
		}
		return &TaskNode{Name: stateName, Task: t, Next: def.Next}, nil
	case strings.EqualFold(def.Type, string(model.STATE_TYPE_PARALLEL)):
		branches := make([]*Graph, 0, len(def.Branches))
		for i, branchDef := range def.Branches {
			branchName := fmt.Sprintf("%s.%s[%d]", flowName, stateName, i)
			branch, err := compileGraph(branchName, branchDef.StartAt, branchDef.States, handlers)
			if err != nil {
				return nil, fmt.Errorf("state %s branch %d: %w", stateName, i, err)
			}
			branches = append(branches, branch)
		}
		return &ParallelNode{Name: stateName, Branches: branches, Next: def.Next}, nil
	case strings.EqualFold(def.Type, string(model.STATE_TYPE_SUCCEED)):
		if def.Next != "" {
			return nil, fmt.Errorf("state %s: succeed state can not have next", stateName)
		}
		return &SucceedNode{Name: stateName}, nil
	default:
		return nil, fmt.Errorf("state %s: invalid state type %q", stateName, def.Type)
	}
}
