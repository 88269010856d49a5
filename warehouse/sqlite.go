package warehouse

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

const DRIVER_SQLITE = "sqlite"

// NewSQLite opens a sqlite backed warehouse. Connections are capped at one so
// that ":memory:" databases behave and DDL batches never interleave.
func NewSQLite(path string) (*SQLWarehouse, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &SQLWarehouse{db: db}, nil
}
