// Package testdb opens throwaway sqlite databases carrying the fulfillment
// schema for repository and service tests.
package testdb

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/angelmondragon/fulfillment-backend/pkg/db"
)

var schema = []string{
	`CREATE TABLE products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit TEXT NOT NULL,
		product_group TEXT NOT NULL,
		base_price TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE option_groups (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		is_required BOOLEAN NOT NULL DEFAULT 0,
		allow_multiple BOOLEAN NOT NULL DEFAULT 0,
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE option_items (
		id TEXT PRIMARY KEY,
		option_group_id TEXT NOT NULL REFERENCES option_groups(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		price_adjustment TEXT NOT NULL DEFAULT '0',
		multiplier TEXT NOT NULL DEFAULT '1',
		position INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		distributor_id TEXT,
		product_group TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE price_lists (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		distributor_id TEXT,
		is_default BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_price_lists_default_type ON price_lists (type) WHERE is_default`,
	`CREATE TABLE price_list_items (
		id TEXT PRIMARY KEY,
		price_list_id TEXT NOT NULL REFERENCES price_lists(id) ON DELETE CASCADE,
		option_item_id TEXT NOT NULL,
		price TEXT,
		multiplier TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_price_list_items_list_option ON price_list_items (price_list_id, option_item_id)`,
	`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		order_number INTEGER NOT NULL,
		user_id TEXT NOT NULL,
		notes TEXT,
		attachment_ref TEXT,
		delivery_status TEXT NOT NULL DEFAULT 'PENDING',
		production_status TEXT NOT NULL DEFAULT 'PENDING',
		initial_wholesale_total TEXT NOT NULL,
		initial_retail_total TEXT NOT NULL,
		final_wholesale_total TEXT NOT NULL,
		final_retail_total TEXT NOT NULL,
		driver_id TEXT,
		claimed_at DATETIME,
		delivery_outcome TEXT,
		delivered_at DATETIME,
		delivery_notes TEXT,
		canceled_at DATETIME,
		canceled_by TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX ux_orders_order_number ON orders (order_number)`,
	`CREATE TABLE order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		selected_option_ids TEXT NOT NULL DEFAULT '{}',
		production_status TEXT NOT NULL DEFAULT 'PENDING',
		produced_quantity INTEGER NOT NULL DEFAULT 0,
		production_notes TEXT,
		delivery_status TEXT NOT NULL DEFAULT 'READY_FOR_DELIVERY',
		delivered_quantity INTEGER NOT NULL DEFAULT 0,
		delivery_notes TEXT,
		wholesale_unit_price TEXT NOT NULL,
		wholesale_total_price TEXT NOT NULL,
		retail_unit_price TEXT NOT NULL,
		retail_total_price TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		CHECK (produced_quantity >= 0 AND produced_quantity <= quantity),
		CHECK (delivered_quantity >= 0 AND delivered_quantity <= quantity)
	)`,
	`CREATE TABLE outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		terminal_at DATETIME
	)`,
	`CREATE TABLE outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES outbox_events (id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json BLOB NOT NULL,
		error_reason TEXT NOT NULL CHECK (error_reason IN ('max_attempts', 'non_retryable')),
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME NOT NULL,
		created_at DATETIME
	)`,
}

// Open returns a private in-memory database with the full schema applied.
// The connection is closed when the test finishes.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	return open(t, dsn, 1)
}

// OpenConcurrent returns a file-backed database shared by up to conns
// connections. Transactions begin IMMEDIATE and wait on the write lock.
func OpenConcurrent(t testing.TB, conns int) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fulfillment.db")
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", path)
	return open(t, dsn, conns)
}

func open(t testing.TB, dsn string, conns int) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v", err)
		}
	}
	return conn
}

// Client wraps Open in the transactional db.Client used by services.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromGorm(Open(t))
}
