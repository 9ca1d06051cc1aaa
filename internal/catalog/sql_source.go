package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/terra-clan/health-package-engine/internal/models"
)

const listLabTestsQuery = `
	SELECT code, id, name, unit_price
	FROM lab_tests
	WHERE active = TRUE
	ORDER BY position, code
`

// OpenDB opens a database/sql handle on the lib/pq driver
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// LoadFromDB reads the active lab tests from the lab_tests table.
// The version label is supplied by the caller since the table carries none.
func LoadFromDB(ctx context.Context, db *sql.DB, version string) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, listLabTestsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query lab tests: %w", err)
	}
	defer rows.Close()

	var tests []models.LabTest
	for rows.Next() {
		var t models.LabTest
		if err := rows.Scan(&t.Code, &t.ID, &t.Name, &t.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan lab test: %w", err)
		}
		tests = append(tests, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lab tests: %w", err)
	}

	if len(tests) == 0 {
		return nil, fmt.Errorf("lab_tests table has no active rows")
	}

	c, err := New(version, tests)
	if err != nil {
		return nil, err
	}

	slog.Info("catalog loaded from database", "version", version, "tests", c.Len())
	return c, nil
}
