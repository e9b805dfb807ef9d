package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"vendora/internal/config"
	"vendora/internal/database"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	dbConfig := config.DatabaseConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "testuser",
		Password:        "testpass",
		Database:        "testdb",
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	}

	logger := zerolog.Nop()
	pool, err := database.NewPool(ctx, dbConfig, logger)
	if err != nil {
		// Try with connection string directly
		poolConfig, parseErr := pgxpool.ParseConfig(connStr)
		if parseErr != nil {
			t.Fatalf("failed to parse connection string: %v", parseErr)
		}
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			t.Fatalf("failed to create connection pool: %v", err)
		}
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(64) PRIMARY KEY,
			cart JSONB NOT NULL DEFAULT '[]'::jsonb,
			wallet_balance DECIMAL(12, 2) NOT NULL DEFAULT 0 CHECK (wallet_balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(64) PRIMARY KEY,
			seller_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			price DECIMAL(12, 2) NOT NULL,
			offer_price DECIMAL(12, 2) NOT NULL DEFAULT 0,
			flash_sale_price DECIMAL(12, 2),
			flash_sale_end_date TIMESTAMPTZ,
			stock INTEGER NOT NULL CHECK (stock >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL REFERENCES users(id),
			address TEXT NOT NULL,
			amount DECIMAL(12, 2) NOT NULL,
			payment_method VARCHAR(16) NOT NULL,
			tx_ref VARCHAR(64) NOT NULL UNIQUE,
			status VARCHAR(32) NOT NULL,
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id VARCHAR(64) NOT NULL REFERENCES products(id),
			seller_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			unit_price DECIMAL(12, 2) NOT NULL,
			offer_price DECIMAL(12, 2) NOT NULL,
			status VARCHAR(32) NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

		CREATE TABLE IF NOT EXISTS seller_wallets (
			user_id VARCHAR(64) PRIMARY KEY,
			balance DECIMAL(12, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0)
		);

		CREATE TABLE IF NOT EXISTS wallet_entries (
			reference VARCHAR(64) NOT NULL,
			user_id VARCHAR(64) NOT NULL,
			wallet VARCHAR(16) NOT NULL,
			type VARCHAR(32) NOT NULL,
			amount DECIMAL(12, 2) NOT NULL,
			gross_sale DECIMAL(12, 2) NOT NULL DEFAULT 0,
			commission DECIMAL(12, 2) NOT NULL DEFAULT 0,
			net_earnings DECIMAL(12, 2) NOT NULL DEFAULT 0,
			method VARCHAR(16) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, wallet, reference)
		);

		CREATE TABLE IF NOT EXISTS topups (
			tx_ref VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL REFERENCES users(id),
			amount DECIMAL(12, 2) NOT NULL,
			status VARCHAR(16) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS withdrawals (
			id UUID PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			amount DECIMAL(12, 2) NOT NULL,
			bank_name VARCHAR(128) NOT NULL,
			bank_code VARCHAR(16) NOT NULL DEFAULT '',
			account_number VARCHAR(32) NOT NULL,
			state VARCHAR(32) NOT NULL,
			failure_reason TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_withdrawals_state_updated ON withdrawals(state, updated_at);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedUser inserts a user with the given buyer wallet balance.
func SeedUser(t *testing.T, pool *pgxpool.Pool, id string, balance float64) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO users (id, wallet_balance, cart) VALUES ($1, $2, '[{"productId":"P001"}]'::jsonb)`,
		id, balance,
	)
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

// SeedProduct inserts a product with the given stock and price.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, id, sellerID string, price float64, stock int) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, seller_id, name, price, stock) VALUES ($1, $2, $3, $4, $5)`,
		id, sellerID, "Product "+id, price, stock,
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", id, err)
	}
}

// SellerBalance reads a seller wallet balance directly.
func SellerBalance(t *testing.T, pool *pgxpool.Pool, userID string) float64 {
	t.Helper()

	var balance float64
	err := pool.QueryRow(context.Background(),
		`SELECT balance FROM seller_wallets WHERE user_id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("failed to read seller balance for %s: %v", userID, err)
	}
	return balance
}

// BuyerBalance reads a buyer wallet balance directly.
func BuyerBalance(t *testing.T, pool *pgxpool.Pool, userID string) float64 {
	t.Helper()

	var balance float64
	err := pool.QueryRow(context.Background(),
		`SELECT wallet_balance FROM users WHERE id = $1`, userID,
	).Scan(&balance)
	if err != nil {
		t.Fatalf("failed to read buyer balance for %s: %v", userID, err)
	}
	return balance
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"order_items", "orders", "wallet_entries", "topups",
		"withdrawals", "seller_wallets", "products", "users",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
