package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
)

// Open creates the store backend named by driver. SQLite paths get their
// parent directory created so a fresh checkout works without setup.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite":
		if dir := filepath.Dir(databaseURL); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, eris.Wrapf(err, "store: create data dir %s", dir)
			}
		}
		return NewSQLite(databaseURL)
	case "postgres":
		pool, err := db.Connect(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgres(pool), nil
	default:
		return nil, eris.Errorf("store: unknown driver %q (expected sqlite or postgres)", driver)
	}
}
