package common

import (
	"context"
	"fmt"

	"github.com/jonesrussell/threadsync/internal/search"
	"github.com/jonesrussell/threadsync/internal/store"
)

// OpenStore connects to PostgreSQL, ensures the schema, and builds the
// store. This consolidates the common pattern used across all commands.
func OpenStore(ctx context.Context, deps CommandDeps) (*store.Store, error) {
	db, err := store.NewPostgresConnection(&deps.Config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if schemaErr := store.EnsureSchema(ctx, db); schemaErr != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", schemaErr)
	}

	return store.New(db), nil
}

// OpenSearch builds the content-index service when search is enabled; it
// returns nil without error when it is not.
func OpenSearch(ctx context.Context, deps CommandDeps) (*search.Service, error) {
	if !deps.Config.Search.Enabled {
		return nil, nil
	}

	svc, err := search.NewServiceFromConfig(&deps.Config.Search, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("create search service: %w", err)
	}

	if ensureErr := svc.EnsureIndex(ctx); ensureErr != nil {
		return nil, fmt.Errorf("ensure search index: %w", ensureErr)
	}

	return svc, nil
}
