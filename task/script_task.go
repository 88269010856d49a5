package task

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dop251/goja"
)

const HANDLER_SCRIPT = "script"

var _ Task = new(scriptTask)

// scriptTask transforms the run input with a javascript expression. The input
// is bound to $ and the final value of $ becomes the task output. Used to
// project event detail between states.
type scriptTask struct {
	baseTask
	expression string
}

func NewScriptTask(name string, params map[string]any) (Task, error) {
	expression := stringParam(params, "expression")
	if expression == "" {
		return nil, fmt.Errorf("state=%s, script expression can not be empty", name)
	}
	return &scriptTask{
		baseTask:   baseTask{name: name},
		expression: expression,
	}, nil
}

func (t *scriptTask) Execute(ctx context.Context, ec ExecutionContext, input map[string]any) (map[string]any, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	script := fmt.Sprintf("var $ = %s;\n%s", data, t.expression)
	vm := goja.New()
	if _, err := vm.RunString(script); err != nil {
		return nil, fmt.Errorf("error executing script: %w", err)
	}
	val, err := vm.RunString("$")
	if err != nil {
		return nil, fmt.Errorf("error executing script: %w", err)
	}
	res, err := json.Marshal(val.Export())
	if err != nil {
		return nil, err
	}
	var output map[string]any
	if err := json.Unmarshal(res, &output); err != nil {
		return nil, fmt.Errorf("script must leave $ as an object: %w", err)
	}
	return output, nil
}
