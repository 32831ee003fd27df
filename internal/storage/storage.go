package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

//go:embed schema_postgres.sql
var schemaPostgresSQL string

// ErrNotFound is returned when a report or checkpoint does not exist.
var ErrNotFound = errors.New("not found")

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// DB wraps a sql.DB for the report and checkpoint store.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Open opens (or creates) the SQLite database at the given path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{conn: conn, dialect: dialectSQLite}, nil
}

// OpenPostgres connects to a shared Postgres store (lib/pq DSN or URL) and applies the schema.
func OpenPostgres(dsn string) (*DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := conn.Exec(schemaPostgresSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{conn: conn, dialect: dialectPostgres}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// q rewrites ?-placeholders to $n for Postgres.
func (db *DB) q(query string) string {
	if db.dialect != dialectPostgres {
		return query
	}
	return rebind(query)
}

func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Counts returns the number of stored reports and analysis checkpoints.
func (db *DB) Counts() (reports, checkpoints int, err error) {
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM scouting_reports`).Scan(&reports); err != nil {
		return 0, 0, fmt.Errorf("count reports: %w", err)
	}
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM analysis_checkpoints`).Scan(&checkpoints); err != nil {
		return 0, 0, fmt.Errorf("count checkpoints: %w", err)
	}
	return reports, checkpoints, nil
}

// Purge deletes every report and checkpoint in one transaction. The schema is kept.
func (db *DB) Purge() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, table := range []string{"scouting_reports", "analysis_checkpoints"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("purge %s: %w", table, err)
		}
	}
	return tx.Commit()
}
