package warehouse

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

const DRIVER_MYSQL = "mysql"

func NewMySQL(dsn string) (*SQLWarehouse, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &SQLWarehouse{db: db}, nil
}
