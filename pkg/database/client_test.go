package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("interviewer_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	client, err := NewClient(ctx, Config{DSN: dsn, MaxConns: 5, ConnectTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func TestClientConnectsAndMigrates(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	health, err := client.Health(ctx)
	require.NoError(t, err)
	require.Equal(t, "healthy", health.Status)
	require.Greater(t, health.MaxConns, int32(0))

	var exists bool
	err = client.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'interviews')`,
	).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "interviews table should exist after migrations")
}
