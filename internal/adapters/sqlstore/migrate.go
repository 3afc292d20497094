package sqlstore

import (
	"context"
	"embed"
	"fmt"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate creates the schema for the executor's dialect. Statements are
// idempotent, so it runs on every start.
func Migrate(ctx context.Context, exec Executor) error {
	name := fmt.Sprintf("migrations/%s.sql", exec.Dialect().Name())
	schema, err := migrationsFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("no schema for dialect %s: %w", exec.Dialect().Name(), err)
	}
	if _, err := exec.Exec(ctx, string(schema)); err != nil {
		return fmt.Errorf("apply %s: %w", name, err)
	}
	return nil
}
