// Package export writes derived tables to files for download.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/surveyboard/internal/table"
)

// DefaultCSVName is the download name of the merged billboard table.
const DefaultCSVName = "merged_billboard_data.csv"

// DefaultSQLiteTable is the table name used for SQLite exports.
const DefaultSQLiteTable = "billboards"

// WriteCSVFile writes t as delimited text to path, creating its directory.
func WriteCSVFile(path string, t *table.Table, delim rune) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := t.WriteCSV(f, delim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteSQLite replaces the file at path with a SQLite database holding t as
// tableName. Columns listed in real are typed REAL and parsed as numbers;
// everything else is TEXT. Missing values are NULL.
func WriteSQLite(ctx context.Context, path, tableName string, t *table.Table, real ...string) error {
	_ = os.Remove(path)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	isReal := map[string]bool{}
	for _, c := range real {
		isReal[c] = true
	}
	cols := t.Columns()
	if len(cols) == 0 {
		return fmt.Errorf("export %s: table has no columns", tableName)
	}
	var defs, quoted []string
	for _, c := range cols {
		typ := "TEXT"
		if isReal[c] {
			typ = "REAL"
		}
		defs = append(defs, fmt.Sprintf("%q %s", c, typ))
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, tableName)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %q (%s)`, tableName, strings.Join(defs, ","))); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`, tableName, strings.Join(quoted, ","), ph))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for r := 0; r < t.Len(); r++ {
		for i, c := range cols {
			args[i] = sqliteValue(t.At(r, c), isReal[c])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert row %d: %w", r+1, err)
		}
	}
	return tx.Commit()
}

func sqliteValue(c table.Cell, real bool) any {
	if !c.Valid {
		return nil
	}
	if real {
		if f, ok := table.ParseNumber(c.S); ok {
			return f
		}
		return nil
	}
	return c.S
}
