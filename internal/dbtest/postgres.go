// Package dbtest starts a throwaway PostgreSQL for integration tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"storefront-be/internal/db"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Postgres runs a migrated postgres container and returns a connection to it.
// The test is skipped in -short mode or when no container runtime is reachable.
func Postgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()

	var (
		pgContainer *postgres.PostgresContainer
		err         error
	)
	func() {
		// testcontainers panics when docker is not available at all.
		defer func() {
			if r := recover(); r != nil {
				t.Skipf("container runtime unavailable: %v", r)
			}
		}()
		pgContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("testdb"),
			postgres.WithUsername("testuser"),
			postgres.WithPassword("testpass"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
	}()
	if err != nil {
		t.Skipf("container runtime unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, db.Migrate(conn, migrationsDir(), db.MigrateUp))
	return conn
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// SeedVariant inserts a product with a single variant.
func SeedVariant(t *testing.T, conn *sql.DB, variantID string, price string, stock int64) {
	t.Helper()
	_, err := conn.Exec(`INSERT INTO products (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`,
		"p-"+variantID, "Product "+variantID)
	require.NoError(t, err)
	_, err = conn.Exec(`
		INSERT INTO variants (id, product_id, name, price, stock)
		VALUES ($1, $2, $3, $4, $5)
	`, variantID, "p-"+variantID, "Variant "+variantID, price, stock)
	require.NoError(t, err)
}

// SeedCart inserts an active cart for ownerID.
func SeedCart(t *testing.T, conn *sql.DB, cartID, ownerID string) {
	t.Helper()
	_, err := conn.Exec(`INSERT INTO carts (id, owner_id) VALUES ($1, $2)`, cartID, ownerID)
	require.NoError(t, err)
}
