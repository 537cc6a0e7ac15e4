package database

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/learntools/schemas"
)

// Migrate runs the embedded migrations of the connection's driver in file
// name order. Every statement is idempotent, so it is safe on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	driver := DriverSQLite
	if db.DriverName() == DriverMySQL {
		driver = DriverMySQL
	}
	statements, err := migrationStatements(driver)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db.ExecContext() > %w", err)
		}
	}
	return nil
}

// migrationStatements splits the driver's migration files into statements.
func migrationStatements(driver string) ([]string, error) {
	files, err := fs.Glob(schemas.Migrations, path.Join("migrations", driver, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("fs.Glob() > %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	var statements []string
	for _, file := range files {
		content, err := fs.ReadFile(schemas.Migrations, file)
		if err != nil {
			return nil, fmt.Errorf("fs.ReadFile(%s) > %w", file, err)
		}
		for _, stmt := range strings.Split(string(content), ";") {
			if stmt = strings.TrimSpace(stmt); stmt != "" {
				statements = append(statements, stmt)
			}
		}
	}
	return statements, nil
}
