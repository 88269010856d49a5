package task

import (
	"context"
	"fmt"

	"github.com/flowsmith/engine/store"
	"github.com/flowsmith/engine/warehouse"
	"go.uber.org/zap"
)

// ExecutionContext carries the ambient collaborators a task may use. Tasks
// never construct their own connections; the hosting process supplies them.
type ExecutionContext struct {
	Warehouse warehouse.Warehouse
	Objects   store.ObjectStore
	Logger    *zap.Logger
}

// Task is the smallest schedulable unit of work. Execute performs exactly one
// side effecting operation and reports a typed result. Tasks never retry
// internally and must stay idempotent under re-execution, because a failed
// run is retried from the start state, never resumed.
type Task interface {
	GetName() string
	Execute(ctx context.Context, ec ExecutionContext, input map[string]any) (map[string]any, error)
}

// Builder constructs a task instance for one flow state from its params.
// Param validation happens here, at flow registration time.
type Builder func(name string, params map[string]any) (Task, error)

type Registry struct {
	builders map[string]Builder
}

func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]Builder),
	}
}

func (r *Registry) Register(handler string, builder Builder) error {
	if _, ok := r.builders[handler]; ok {
		return fmt.Errorf("handler %s already registered", handler)
	}
	r.builders[handler] = builder
	return nil
}

func (r *Registry) Build(handler string, stateName string, params map[string]any) (Task, error) {
	builder, ok := r.builders[handler]
	if !ok {
		return nil, fmt.Errorf("handler %s not registered", handler)
	}
	return builder(stateName, params)
}

// RegisterBuiltins wires the handlers every hosting process gets for free.
func RegisterBuiltins(r *Registry) error {
	builtins := map[string]Builder{
		HANDLER_SQL_MATERIALIZE: NewSQLTask,
		HANDLER_OBJECT_LOAD:     NewObjectLoadTask,
		HANDLER_SCRIPT:          NewScriptTask,
	}
	for handler, builder := range builtins {
		if err := r.Register(handler, builder); err != nil {
			return err
		}
	}
	return nil
}

type baseTask struct {
	name string
}

func (bt *baseTask) GetName() string {
	return bt.name
}

func stringParam(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
