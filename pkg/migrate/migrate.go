package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"
)

// DefaultDir holds the Postgres SQL migrations. sqlite databases are built
// from the gorm models instead (see AutoMigrateModels).
const DefaultDir = "pkg/migrate/migrations"

// Runner applies the SQL migrations in a directory through a goose provider.
type Runner struct {
	provider *goose.Provider
}

func NewRunner(db *sql.DB, dir string) (*Runner, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Runner{provider: provider}, nil
}

// Up applies every pending migration.
func (r *Runner) Up(ctx context.Context) ([]*goose.MigrationResult, error) {
	results, err := r.provider.Up(ctx)
	if err != nil {
		return results, fmt.Errorf("goose up: %w", err)
	}
	return results, nil
}

// Down rolls back the most recent migration.
func (r *Runner) Down(ctx context.Context) (*goose.MigrationResult, error) {
	result, err := r.provider.Down(ctx)
	if err != nil {
		return result, fmt.Errorf("goose down: %w", err)
	}
	return result, nil
}

func (r *Runner) Status(ctx context.Context) ([]*goose.MigrationStatus, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("goose status: %w", err)
	}
	return statuses, nil
}

// ToVersion moves the schema up or down to targetVersion (YYYYMMDDHHMMSS).
func (r *Runner) ToVersion(ctx context.Context, targetVersion string) ([]*goose.MigrationResult, error) {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	current, err := r.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("get db version: %w", err)
	}
	switch {
	case current == target:
		return nil, nil
	case current < target:
		results, err := r.provider.UpTo(ctx, target)
		if err != nil {
			return results, fmt.Errorf("goose up-to %d: %w", target, err)
		}
		return results, nil
	default:
		results, err := r.provider.DownTo(ctx, target)
		if err != nil {
			return results, fmt.Errorf("goose down-to %d: %w", target, err)
		}
		return results, nil
	}
}
