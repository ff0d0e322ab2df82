package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bimworks/portal-backend/internal/pkg/database"
)

// TestDatabaseSetup owns a connection to the integration database.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects to TEST_DATABASE_URL and recreates the schema from
// the migrations directory. It returns nil, nil when the variable is unset.
func NewTestDatabase(ctx context.Context) (*TestDatabaseSetup, error) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		return nil, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	setup := &TestDatabaseSetup{DB: db}
	if err := setup.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return setup, nil
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "..", "migrations")
}

func (t *TestDatabaseSetup) migrate(ctx context.Context) error {
	for _, name := range []string{"0001_init.down.sql", "0001_init.up.sql"} {
		script, err := os.ReadFile(filepath.Join(migrationsDir(), name))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		if _, err := t.DB.Exec(ctx, string(script)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}
	return nil
}

// TruncateAllTables removes every row between tests.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	_, err := t.DB.Exec(ctx, `
		TRUNCATE TABLE
			salary_slips, payrolls, assignment_members, assignments, ip_whitelist,
			leave_balances, leave_rejections, attendance_records, employees,
			refresh_tokens, projects, users
		CASCADE
	`)
	return err
}

func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}
