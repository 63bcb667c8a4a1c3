package main

import (
	"context"

	"github.com/sells-group/outreach-cli/internal/pipeline"
	"github.com/sells-group/outreach-cli/internal/store"
)

// openRunner opens the configured store and wraps it in a pipeline runner.
// Callers own Close on the returned store.
func openRunner(ctx context.Context) (*pipeline.Runner, store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return pipeline.New(st, cfg), st, nil
}
