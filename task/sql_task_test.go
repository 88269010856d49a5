package task

import (
	"context"
	"testing"

	"github.com/flowsmith/engine/warehouse"
	"github.com/stretchr/testify/require"
)

func newTestWarehouse(t *testing.T) *warehouse.SQLWarehouse {
	w, err := warehouse.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func seedOrders(t *testing.T, w *warehouse.SQLWarehouse) {
	stmts := []string{
		"CREATE TABLE raw_orders (order_id INTEGER, day TEXT, amount INTEGER)",
		"INSERT INTO raw_orders VALUES (1, '2024-01-01', 100)",
		"INSERT INTO raw_orders VALUES (2, '2024-01-01', 250)",
		"INSERT INTO raw_orders VALUES (3, '2024-01-02', 75)",
	}
	for _, stmt := range stmts {
		_, err := w.DB().Exec(stmt)
		require.NoError(t, err)
	}
}

func tableCount(t *testing.T, w *warehouse.SQLWarehouse, table string) int {
	var count int
	err := w.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestSQLTaskValidation(t *testing.T) {
	for scenario, params := range map[string]map[string]any{
		"test missing target": {
			"pattern": "drop_recreate",
			"select":  "SELECT 1",
		},
		"test unknown pattern": {
			"pattern": "merge_magic",
			"target":  "t",
		},
		"test drop recreate without select": {
			"pattern": "drop_recreate",
			"target":  "t",
		},
		"test stage rename without staging": {
			"pattern": "stage_rename",
			"target":  "t",
			"select":  "SELECT 1",
		},
		"test delete insert without key": {
			"pattern": "delete_insert",
			"target":  "t",
			"staging": "t_stg",
		},
	} {
		t.Run(scenario, func(t *testing.T) {
			_, err := NewSQLTask("load", params)
			require.Error(t, err)
		})
	}
}

func TestSQLTaskExecute(t *testing.T) {
	for scenario, fn := range map[string]func(
		t *testing.T, w *warehouse.SQLWarehouse,
	){
		"test drop recreate":                 testDropRecreateExecute,
		"test drop recreate is idempotent":   testDropRecreateIdempotent,
		"test truncate reload is idempotent": testTruncateReloadIdempotent,
		"test stage rename":                  testStageRenameExecute,
		"test delete insert upsert":       testDeleteInsertExecute,
		"test select templating":          testSelectTemplating,
		"test failed batch returns error": testFailedBatchError,
	} {
		t.Run(scenario, func(t *testing.T) {
			w := newTestWarehouse(t)
			seedOrders(t, w)

			fn(t, w)
		})
	}
}

func testDropRecreateExecute(t *testing.T, w *warehouse.SQLWarehouse) {
	task, err := NewSQLTask("build-daily", map[string]any{
		"pattern": "drop_recreate",
		"target":  "orders_daily",
		"select":  "SELECT day, SUM(amount) AS total FROM raw_orders GROUP BY day",
	})
	require.NoError(t, err)

	input := map[string]any{"day": "2024-01-01"}
	output, err := task.Execute(context.Background(), ExecutionContext{Warehouse: w}, input)
	require.NoError(t, err)
	require.Equal(t, input, output)
	require.Equal(t, 2, tableCount(t, w, "orders_daily"))
}

func testDropRecreateIdempotent(t *testing.T, w *warehouse.SQLWarehouse) {
	task, err := NewSQLTask("build-daily", map[string]any{
		"pattern": "drop_recreate",
		"target":  "orders_daily",
		"select":  "SELECT day, SUM(amount) AS total FROM raw_orders GROUP BY day",
	})
	require.NoError(t, err)

	ec := ExecutionContext{Warehouse: w}
	for i := 0; i < 3; i++ {
		_, err := task.Execute(context.Background(), ec, nil)
		require.NoError(t, err)
		require.Equal(t, 2, tableCount(t, w, "orders_daily"))
	}
}

func testTruncateReloadIdempotent(t *testing.T, w *warehouse.SQLWarehouse) {
	stmts := []string{
		"CREATE TABLE orders_rollup (day TEXT PRIMARY KEY, total INTEGER)",
		"INSERT INTO orders_rollup VALUES ('2023-12-31', 999)",
	}
	for _, stmt := range stmts {
		_, err := w.DB().Exec(stmt)
		require.NoError(t, err)
	}

	task, err := NewSQLTask("reload-rollup", map[string]any{
		"pattern": "truncate_reload",
		"target":  "orders_rollup",
		"select":  "SELECT day, SUM(amount) FROM raw_orders GROUP BY day",
	})
	require.NoError(t, err)

	ec := ExecutionContext{Warehouse: w}
	for i := 0; i < 3; i++ {
		_, err := task.Execute(context.Background(), ec, nil)
		require.NoError(t, err)
		require.Equal(t, 2, tableCount(t, w, "orders_rollup"))
	}

	// the stale pre-reload row is gone and the primary key survived the reload
	var total int
	err = w.DB().QueryRow("SELECT total FROM orders_rollup WHERE day = '2024-01-01'").Scan(&total)
	require.NoError(t, err)
	require.Equal(t, 350, total)

	var stale int
	err = w.DB().QueryRow("SELECT COUNT(*) FROM orders_rollup WHERE day = '2023-12-31'").Scan(&stale)
	require.NoError(t, err)
	require.Equal(t, 0, stale)
}

func testStageRenameExecute(t *testing.T, w *warehouse.SQLWarehouse) {
	_, err := w.DB().Exec("CREATE TABLE orders_copy AS SELECT * FROM raw_orders WHERE 1=0")
	require.NoError(t, err)

	task, err := NewSQLTask("swap", map[string]any{
		"pattern": "stage_rename",
		"target":  "orders_copy",
		"staging": "orders_copy_stg",
		"select":  "SELECT * FROM raw_orders",
	})
	require.NoError(t, err)

	ec := ExecutionContext{Warehouse: w}
	for i := 0; i < 2; i++ {
		_, err := task.Execute(context.Background(), ec, nil)
		require.NoError(t, err)
		require.Equal(t, 3, tableCount(t, w, "orders_copy"))
	}

	// staging table was renamed away
	var count int
	err = w.DB().QueryRow("SELECT COUNT(*) FROM orders_copy_stg").Scan(&count)
	require.Error(t, err)
}

func testDeleteInsertExecute(t *testing.T, w *warehouse.SQLWarehouse) {
	stmts := []string{
		"CREATE TABLE fact_orders (order_id INTEGER, day TEXT, amount INTEGER)",
		"INSERT INTO fact_orders VALUES (1, '2023-12-31', 999)",
		"CREATE TABLE staging_orders AS SELECT * FROM raw_orders",
	}
	for _, stmt := range stmts {
		_, err := w.DB().Exec(stmt)
		require.NoError(t, err)
	}

	task, err := NewSQLTask("upsert", map[string]any{
		"pattern": "delete_insert",
		"target":  "fact_orders",
		"staging": "staging_orders",
		"key":     "order_id",
	})
	require.NoError(t, err)

	ec := ExecutionContext{Warehouse: w}
	for i := 0; i < 2; i++ {
		_, err := task.Execute(context.Background(), ec, nil)
		require.NoError(t, err)
		require.Equal(t, 3, tableCount(t, w, "fact_orders"))
	}

	// the stale row for order 1 was replaced by the staged one
	var amount int
	err = w.DB().QueryRow("SELECT amount FROM fact_orders WHERE order_id = 1").Scan(&amount)
	require.NoError(t, err)
	require.Equal(t, 100, amount)
}

func testSelectTemplating(t *testing.T, w *warehouse.SQLWarehouse) {
	task, err := NewSQLTask("build-day", map[string]any{
		"pattern": "drop_recreate",
		"target":  "orders_one_day",
		"select":  "SELECT * FROM raw_orders WHERE day = '{$.day}'",
	})
	require.NoError(t, err)

	_, err = task.Execute(context.Background(), ExecutionContext{Warehouse: w},
		map[string]any{"day": "2024-01-01"})
	require.NoError(t, err)
	require.Equal(t, 2, tableCount(t, w, "orders_one_day"))

	_, err = task.Execute(context.Background(), ExecutionContext{Warehouse: w},
		map[string]any{"day": "2024-01-02"})
	require.NoError(t, err)
	require.Equal(t, 1, tableCount(t, w, "orders_one_day"))
}

func testFailedBatchError(t *testing.T, w *warehouse.SQLWarehouse) {
	task, err := NewSQLTask("broken", map[string]any{
		"pattern": "drop_recreate",
		"target":  "broken_target",
		"select":  "SELECT * FROM no_such_source",
	})
	require.NoError(t, err)

	_, err = task.Execute(context.Background(), ExecutionContext{Warehouse: w}, nil)
	require.Error(t, err)
}
