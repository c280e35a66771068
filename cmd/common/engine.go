package common

import (
	"github.com/jonesrussell/threadsync/internal/config"
	"github.com/jonesrussell/threadsync/internal/fetcher"
	"github.com/jonesrussell/threadsync/internal/search"
	"github.com/jonesrussell/threadsync/internal/store"
	"github.com/jonesrussell/threadsync/internal/syncer"
)

// NewFetcher builds the thread fetcher from the fetcher config section.
func NewFetcher(deps CommandDeps) *fetcher.ThreadFetcher {
	return fetcher.NewThreadFetcher(fetcherConfigFrom(&deps.Config.Fetcher), deps.Logger)
}

// NewSyncEngine wires fetcher, store, and the optional search indexer into
// a sync orchestrator. A nil index service leaves indexing off.
func NewSyncEngine(deps CommandDeps, st *store.Store, idx *search.Service) *syncer.Orchestrator {
	engine := syncer.New(NewFetcher(deps), st, &deps.Config.Sync, deps.Logger)
	if idx != nil {
		engine.WithIndexer(idx)
	}
	return engine
}

// fetcherConfigFrom converts the config section into the fetcher's own
// config struct.
func fetcherConfigFrom(cfg *config.FetcherConfig) fetcher.Config {
	return fetcher.Config{
		UserAgent:      cfg.UserAgent,
		RequestTimeout: cfg.RequestTimeout,
		RequestDelay:   cfg.RequestDelay,
		Parallelism:    cfg.Parallelism,
		MaxPages:       cfg.MaxPages,
		Cookie:         cfg.Cookie,
	}
}
