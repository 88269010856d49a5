package task

import "fmt"

type MaterializePattern string

const PATTERN_DROP_RECREATE MaterializePattern = "drop_recreate"
const PATTERN_TRUNCATE_RELOAD MaterializePattern = "truncate_reload"
const PATTERN_STAGE_RENAME MaterializePattern = "stage_rename"
const PATTERN_DELETE_INSERT MaterializePattern = "delete_insert"

// The materialization builders assemble the statement batch for one task.
// Every batch runs inside a single warehouse transaction, so re-running a
// task any number of times yields the same target table as running it once.

// DropAndRecreate fully replaces the target table from the select.
func DropAndRecreate(target string, selectSQL string) []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", target),
		fmt.Sprintf("CREATE TABLE %s AS %s", target, selectSQL),
	}
}

// TruncateAndReload keeps the target's schema and constraints (distribution
// and sort keys survive) while replacing its rows. The clear step is a DELETE,
// not TRUNCATE: sqlite has no TRUNCATE statement and mysql's TRUNCATE commits
// implicitly, which would split the batch across transactions.
func TruncateAndReload(target string, selectSQL string) []string {
	return []string{
		fmt.Sprintf("DELETE FROM %s", target),
		fmt.Sprintf("INSERT INTO %s %s", target, selectSQL),
	}
}

// StageAndRename builds into a shadow table and swaps it in atomically, so
// concurrent readers never observe a partially built target.
func StageAndRename(target string, staging string, selectSQL string) []string {
	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", staging),
		fmt.Sprintf("CREATE TABLE %s AS %s", staging, selectSQL),
		fmt.Sprintf("DROP TABLE IF EXISTS %s", target),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", staging, target),
	}
}

// DeleteThenInsert upserts from a staging table by key. The delete step makes
// the insert idempotent per key, which is what allows append-mostly event
// tables to skip a full rebuild.
func DeleteThenInsert(target string, staging string, key string) []string {
	return []string{
		fmt.Sprintf("DELETE FROM %s WHERE %s IN (SELECT %s FROM %s)", target, key, key, staging),
		fmt.Sprintf("INSERT INTO %s SELECT * FROM %s", target, staging),
	}
}
