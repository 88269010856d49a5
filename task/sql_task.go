package task

import (
	"context"
	"fmt"

	"github.com/flowsmith/engine/util"
	"go.uber.org/zap"
)

const HANDLER_SQL_MATERIALIZE = "sql-materialize"

var _ Task = new(sqlTask)

// sqlTask materializes one warehouse table with one of the idempotent
// rewrite patterns. The select param supports {$.path} templating against
// the run input.
type sqlTask struct {
	baseTask
	pattern MaterializePattern
	target  string
	sel     string
	staging string
	key     string
}

func NewSQLTask(name string, params map[string]any) (Task, error) {
	t := &sqlTask{
		baseTask: baseTask{name: name},
		pattern:  MaterializePattern(stringParam(params, "pattern")),
		target:   stringParam(params, "target"),
		sel:      stringParam(params, "select"),
		staging:  stringParam(params, "staging"),
		key:      stringParam(params, "key"),
	}
	if t.target == "" {
		return nil, fmt.Errorf("state=%s, sql task requires a target table", name)
	}
	switch t.pattern {
	case PATTERN_DROP_RECREATE, PATTERN_TRUNCATE_RELOAD:
		if t.sel == "" {
			return nil, fmt.Errorf("state=%s, pattern %s requires a select", name, t.pattern)
		}
	case PATTERN_STAGE_RENAME:
		if t.sel == "" || t.staging == "" {
			return nil, fmt.Errorf("state=%s, pattern %s requires select and staging", name, t.pattern)
		}
	case PATTERN_DELETE_INSERT:
		if t.staging == "" || t.key == "" {
			return nil, fmt.Errorf("state=%s, pattern %s requires staging and key", name, t.pattern)
		}
	default:
		return nil, fmt.Errorf("state=%s, unknown materialize pattern %q", name, t.pattern)
	}
	return t, nil
}

func (t *sqlTask) Execute(ctx context.Context, ec ExecutionContext, input map[string]any) (map[string]any, error) {
	resolved := util.ResolveParams(input, map[string]any{"select": t.sel})
	sel, _ := resolved["select"].(string)

	var batch []string
	switch t.pattern {
	case PATTERN_DROP_RECREATE:
		batch = DropAndRecreate(t.target, sel)
	case PATTERN_TRUNCATE_RELOAD:
		batch = TruncateAndReload(t.target, sel)
	case PATTERN_STAGE_RENAME:
		batch = StageAndRename(t.target, t.staging, sel)
	case PATTERN_DELETE_INSERT:
		batch = DeleteThenInsert(t.target, t.staging, t.key)
	}
	if ec.Logger != nil {
		ec.Logger.Info("materializing table", zap.String("state", t.name), zap.String("target", t.target), zap.String("pattern", string(t.pattern)))
	}
	if err := ec.Warehouse.RunTransaction(ctx, batch); err != nil {
		return nil, fmt.Errorf("error materializing %s: %w", t.target, err)
	}
	return input, nil
}
