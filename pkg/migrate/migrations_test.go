package migrate_test

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/fulfillment-backend/pkg/migrate"
)

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}

func TestEmbeddedMigrationsMatchDisk(t *testing.T) {
	names, err := migrate.EmbeddedFiles()
	if err != nil {
		t.Fatalf("EmbeddedFiles: %v", err)
	}
	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(names) == 0 || len(names) != len(onDisk) {
		t.Fatalf("expected embedded migrations to mirror disk, got %d embedded / %d on disk", len(names), len(onDisk))
	}
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readEmbedded(t, "_create_orders.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number",
		"CHECK (quantity > 0)",
		"CHECK (produced_quantity >= 0 AND produced_quantity <= quantity)",
		"CHECK (delivered_quantity >= 0 AND delivered_quantity <= quantity)",
		"WHERE delivery_status = 'READY_FOR_DELIVERY' AND driver_id IS NULL",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPriceListMigrationEnforcesSingleDefault(t *testing.T) {
	content := readEmbedded(t, "_create_price_lists.sql")

	checks := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_price_lists_default_type ON price_lists (type) WHERE is_default",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_price_list_items_list_option ON price_list_items (price_list_id, option_item_id)",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readEmbedded(t *testing.T, suffix string) string {
	t.Helper()
	names, err := migrate.EmbeddedFiles()
	if err != nil {
		t.Fatalf("EmbeddedFiles: %v", err)
	}
	for _, name := range names {
		if strings.HasSuffix(name, suffix) {
			data, err := fs.ReadFile(migrate.Migrations, migrate.EmbeddedDir+"/"+name)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return string(data)
		}
	}
	t.Fatalf("no migration ending in %s", suffix)
	return ""
}
