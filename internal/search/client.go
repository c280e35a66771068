// Package search maintains the optional post content index. The index is a
// rebuildable mirror of the relational store: sync correctness never depends
// on it, and a future resync can repopulate it from scratch.
package search

import (
	"errors"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/threadsync/internal/config"
	"github.com/jonesrussell/threadsync/internal/logger"
)

// NewClient creates an Elasticsearch client from the search configuration
// and verifies the connection.
func NewClient(cfg *config.SearchConfig, log logger.Interface) (*es.Client, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, errors.New("search configuration with addresses is required")
	}

	log.Debug("Connecting to Elasticsearch", "addresses", cfg.Addresses)

	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}

	return client, nil
}
