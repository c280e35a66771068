// Package helpers provides testing utilities for integration tests.
package helpers

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/jonesrussell/threadsync/internal/config"
)

const (
	testDBName = "threadsync_test"
	testDBUser = "threadsync"
	testDBPass = "threadsync"

	testMaxOpenConns    = 5
	testMaxIdleConns    = 2
	testConnMaxLifetime = 5 * time.Minute
)

// PostgresContainer manages a test PostgreSQL instance.
type PostgresContainer struct {
	Container testcontainers.Container
	Host      string
	Port      int
}

// StartPostgres starts a PostgreSQL container for testing.
// It returns a container instance that should be stopped with Stop().
func StartPostgres(ctx context.Context) (*PostgresContainer, error) {
	pgContainer, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(testDBName),
		postgres.WithUsername(testDBUser),
		postgres.WithPassword(testDBPass),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	mappedPort, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	port, err := strconv.Atoi(mappedPort.Port())
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to parse container port: %w", err)
	}

	return &PostgresContainer{
		Container: pgContainer,
		Host:      host,
		Port:      port,
	}, nil
}

// Stop stops and removes the PostgreSQL container.
func (p *PostgresContainer) Stop(ctx context.Context) error {
	if p.Container == nil {
		return nil
	}
	return p.Container.Terminate(ctx)
}

// DatabaseConfig returns a database config pointing at the container.
// This matches the format expected by store.NewPostgresConnection.
func (p *PostgresContainer) DatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:            p.Host,
		Port:            p.Port,
		User:            testDBUser,
		Password:        testDBPass,
		Name:            testDBName,
		SSLMode:         "disable",
		MaxOpenConns:    testMaxOpenConns,
		MaxIdleConns:    testMaxIdleConns,
		ConnMaxLifetime: testConnMaxLifetime,
	}
}
