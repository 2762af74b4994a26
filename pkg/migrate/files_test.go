package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestCreateSQLMigrationUsesClock(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 2, 8, 30, 0, 0, time.UTC)

	path, err := createSQLMigration(dir, "  Add Order Notes ", now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(path) != "20261002083000_add_order_notes.sql" {
		t.Fatalf("unexpected file %s", path)
	}
	if _, err := createSQLMigration(dir, "add order notes", now); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if _, err := createSQLMigration(dir, "!!!", now); err == nil {
		t.Fatal("expected empty-name error")
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"bad.sql":                           "-- +goose Up\n-- +goose Down\n",
		"20261001090000_one.sql":            "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
		"20261001090000_dup.sql":            "-- +goose Up\n-- +goose Down\n",
		"20261001090100_reversed.sql":       "-- +goose Down\n-- +goose Up\n",
		"20261001090200_fine.sql":           "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n",
		"20261001090300_not_sql.sql.backup": "junk",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if got := len(multierr.Errors(err)); got != 4 {
		t.Fatalf("expected 4 problems, got %d: %v", got, err)
	}
}
