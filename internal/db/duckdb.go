package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// readBatch bounds the number of files passed to one read_text call
const readBatch = 512

var (
	dbInstance *sql.DB
	dbOnce     sync.Once
	dbErr      error
)

// GetDB returns a singleton in-memory DuckDB connection
func GetDB() (*sql.DB, error) {
	dbOnce.Do(func() {
		dbInstance, dbErr = initializeDuckDB()
	})
	return dbInstance, dbErr
}

func initializeDuckDB() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	// DuckDB works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DuckDB: %w", err)
	}
	return db, nil
}

// ReadTextFiles loads the contents of files through DuckDB's read_text
// table function. The result is keyed by the paths as given.
func ReadTextFiles(ctx context.Context, database *sql.DB, files []string) (map[string]string, error) {
	out := make(map[string]string, len(files))
	for start := 0; start < len(files); start += readBatch {
		end := min(start+readBatch, len(files))
		if err := readTextBatch(ctx, database, files[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func readTextBatch(ctx context.Context, database *sql.DB, files []string, out map[string]string) error {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = quoteLiteral(f)
	}
	query := fmt.Sprintf(`SELECT filename, content FROM read_text([%s])`, strings.Join(quoted, ", "))

	rows, err := database.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to read files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var content sql.NullString
		if err := rows.Scan(&name, &content); err != nil {
			return fmt.Errorf("failed to scan file row: %w", err)
		}
		out[name] = content.String
	}
	return rows.Err()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
