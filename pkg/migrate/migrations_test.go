package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/angelmondragon/surprisebag-backend/pkg/migrate"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestSurpriseBoxMigrationGuardsCounters(t *testing.T) {
	content := readMigration(t, "*_create_surprise_boxes.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS surprise_boxes",
		"CHECK (reserved_quantity + sold_quantity <= total_quantity)",
		"CHECK (selling_price < original_value)",
		"CONSTRAINT ux_box_items_box_item UNIQUE (box_id, item_id)",
		"DROP TABLE IF EXISTS surprise_boxes",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCartMigrationEnforcesSingleOwner(t *testing.T) {
	content := readMigration(t, "*_create_carts_and_orders.sql")

	checks := []string{
		"CONSTRAINT ux_cart_items_user_offer UNIQUE (user_id, offer_id)",
		"CONSTRAINT ux_cart_items_session_offer UNIQUE (session_key, offer_id)",
		"CHECK ((user_id IS NULL) <> (session_key IS NULL))",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCreateSQLMigrationWritesGooseTemplate(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Box Ratings!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_box_ratings.sql"))
	require.NoError(t, migrate.ValidateDir(dir))
}

func TestAutoMigrateModelsOnSQLite(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:automigrate?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, migrate.AutoMigrateModels(conn))

	for _, table := range []string{"vendors", "branches", "offers", "surprise_boxes", "box_reservations", "cart_items", "orders", "order_items"} {
		require.Truef(t, conn.Migrator().HasTable(table), "missing table %s", table)
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
