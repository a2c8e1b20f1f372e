//go:build integration

// Package containers starts throwaway service containers for integration
// tests. It is compiled only with the "integration" build tag so unit test
// builds do not pull in Docker dependencies.
package containers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/postgres"
	"github.com/StricklySoft/stricklysoft-auth/pkg/clients/redis"
)

// PostgreSQL container settings.
const (
	DefaultPostgresImage    = "docker.io/postgres:16-alpine"
	DefaultPostgresDatabase = "auth_test"
	DefaultPostgresUser     = "testuser"
	DefaultPostgresPassword = "testpassword"
)

// StartPostgres starts a PostgreSQL 16 container and returns a connected
// client. Container and client are released by t.Cleanup.
func StartPostgres(t testing.TB) *postgres.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		DefaultPostgresImage,
		tcpostgres.WithDatabase(DefaultPostgresDatabase),
		tcpostgres.WithUsername(DefaultPostgresUser),
		tcpostgres.WithPassword(DefaultPostgresPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("failed to terminate postgres container: %v", termErr)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	client, err := postgres.NewClient(ctx, postgres.Config{URI: connStr, MaxConns: 5, MinConns: 1})
	require.NoError(t, err, "failed to connect to postgres container")
	t.Cleanup(client.Close)
	return client
}

// DefaultRedisImage is the Redis image for the identity cache tests.
const DefaultRedisImage = "docker.io/redis:7-alpine"

// StartRedis starts a Redis 7 container without authentication and returns
// a connected client. Container and client are released by t.Cleanup.
func StartRedis(t testing.TB) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, DefaultRedisImage)
	require.NoError(t, err, "failed to start redis container")
	t.Cleanup(func() {
		if termErr := container.Terminate(ctx); termErr != nil {
			t.Logf("failed to terminate redis container: %v", termErr)
		}
	})

	connStr, err := container.ConnectionString(ctx)
	require.NoError(t, err, "failed to get connection string")

	client, err := redis.NewClient(ctx, redis.Config{URI: connStr})
	require.NoError(t, err, "failed to connect to redis container")
	t.Cleanup(func() { _ = client.Close() })
	return client
}
