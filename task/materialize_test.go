package task

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaterializeBatches(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test drop recreate": func(t *testing.T) {
			batch := DropAndRecreate("dim_customers", "SELECT * FROM raw_customers")
			require.Equal(t, []string{
				"DROP TABLE IF EXISTS dim_customers",
				"CREATE TABLE dim_customers AS SELECT * FROM raw_customers",
			}, batch)
		},
		"test truncate reload": func(t *testing.T) {
			batch := TruncateAndReload("fact_orders", "SELECT * FROM staging_orders")
			require.Equal(t, []string{
				"DELETE FROM fact_orders",
				"INSERT INTO fact_orders SELECT * FROM staging_orders",
			}, batch)
		},
		"test stage rename": func(t *testing.T) {
			batch := StageAndRename("dim_products", "dim_products_stg", "SELECT * FROM raw_products")
			require.Equal(t, []string{
				"DROP TABLE IF EXISTS dim_products_stg",
				"CREATE TABLE dim_products_stg AS SELECT * FROM raw_products",
				"DROP TABLE IF EXISTS dim_products",
				"ALTER TABLE dim_products_stg RENAME TO dim_products",
			}, batch)
		},
		"test delete insert": func(t *testing.T) {
			batch := DeleteThenInsert("fact_events", "staging_events", "event_id")
			require.Equal(t, []string{
				"DELETE FROM fact_events WHERE event_id IN (SELECT event_id FROM staging_events)",
				"INSERT INTO fact_events SELECT * FROM staging_events",
			}, batch)
		},
	} {
		t.Run(scenario, fn)
	}
}
