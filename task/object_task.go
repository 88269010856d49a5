package task

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowsmith/engine/util"
)

const HANDLER_OBJECT_LOAD = "object-load"

var _ Task = new(objectLoadTask)

// objectLoadTask fetches a JSON rows object by key and reloads the target
// table from it inside one transaction. The full delete before the insert
// keeps the reload idempotent.
type objectLoadTask struct {
	baseTask
	objectKey string
	target    string
	columns   []string
}

func NewObjectLoadTask(name string, params map[string]any) (Task, error) {
	t := &objectLoadTask{
		baseTask:  baseTask{name: name},
		objectKey: stringParam(params, "objectKey"),
		target:    stringParam(params, "target"),
	}
	if t.objectKey == "" || t.target == "" {
		return nil, fmt.Errorf("state=%s, object load requires objectKey and target", name)
	}
	if cols, ok := params["columns"].([]any); ok {
		for _, c := range cols {
			s, ok := c.(string)
			if !ok {
				return nil, fmt.Errorf("state=%s, columns must be strings", name)
			}
			t.columns = append(t.columns, s)
		}
	}
	if len(t.columns) == 0 {
		return nil, fmt.Errorf("state=%s, object load requires columns", name)
	}
	return t, nil
}

func (t *objectLoadTask) Execute(ctx context.Context, ec ExecutionContext, input map[string]any) (map[string]any, error) {
	resolved := util.ResolveParams(input, map[string]any{"objectKey": t.objectKey})
	key, _ := resolved["objectKey"].(string)

	data, err := ec.Objects.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("error fetching object %s: %w", key, err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("object %s is not a JSON row list: %w", key, err)
	}

	batch := []string{fmt.Sprintf("DELETE FROM %s", t.target)}
	for _, row := range rows {
		stmt, err := t.insertStatement(row)
		if err != nil {
			return nil, err
		}
		batch = append(batch, stmt)
	}
	if err := ec.Warehouse.RunTransaction(ctx, batch); err != nil {
		return nil, fmt.Errorf("error loading object %s into %s: %w", key, t.target, err)
	}
	return input, nil
}

func (t *objectLoadTask) insertStatement(row map[string]any) (string, error) {
	values := make([]string, 0, len(t.columns))
	for _, col := range t.columns {
		lit, err := sqlLiteral(row[col])
		if err != nil {
			return "", fmt.Errorf("state=%s, column %s: %w", t.name, col, err)
		}
		values = append(values, lit)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.target, strings.Join(t.columns, ", "), strings.Join(values, ", ")), nil
}

func sqlLiteral(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return "'" + strings.ReplaceAll(val, "'", "''") + "'", nil
	case bool:
		if val {
			return "TRUE", nil
		}
		return "FALSE", nil
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val)), nil
		}
		return fmt.Sprintf("%v", val), nil
	case int, int64:
		return fmt.Sprintf("%d", val), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", v)
	}
}
