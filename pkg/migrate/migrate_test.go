package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDialect(t *testing.T) {
	cases := map[string]string{"": "postgres", "postgres": "postgres", "sqlite": "sqlite3"}
	for driver, want := range cases {
		got, err := Dialect(driver)
		if err != nil {
			t.Fatalf("driver %q: %v", driver, err)
		}
		if got != want {
			t.Fatalf("driver %q: expected %q got %q", driver, want, got)
		}
	}
	if _, err := Dialect("oracle"); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}

func TestCreateAndValidate(t *testing.T) {
	dir := t.TempDir()
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected empty dir to fail validation")
	}

	path, err := CreateSQLMigration(dir, "Add Receipt Notes!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_receipt_notes.sql") {
		t.Fatalf("unexpected migration name %s", path)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "bad.sql"), []byte("-- +goose Up"), 0o644); err != nil {
		t.Fatalf("write bad migration: %v", err)
	}
	if err := ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename to fail validation")
	}
}

func TestShippedMigrationsValidate(t *testing.T) {
	if err := ValidateDir("migrations"); err != nil {
		t.Fatalf("shipped migrations invalid: %v", err)
	}
}

func TestCreateSQLMigrationSortsAfterNewest(t *testing.T) {
	dir := t.TempDir()
	future := "29991231235959_future.sql"
	body := "-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	if err := os.WriteFile(filepath.Join(dir, future), []byte(body), 0o644); err != nil {
		t.Fatalf("write future migration: %v", err)
	}

	first, err := CreateSQLMigration(dir, "first")
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	if got := filepath.Base(first); got != "30000101000000_first.sql" {
		t.Fatalf("expected version bumped past newest, got %s", got)
	}

	second, err := CreateSQLMigration(dir, "second")
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if got := filepath.Base(second); got != "30000101000001_second.sql" {
		t.Fatalf("expected second version after first, got %s", got)
	}
	if err := ValidateDir(dir); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), "!!!"); err == nil {
		t.Fatal("expected empty sanitized name to fail")
	}
}

func TestValidateDirRejectsUnclosedStatement(t *testing.T) {
	dir := t.TempDir()
	body := "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\nSELECT 1;\n"
	if err := os.WriteFile(filepath.Join(dir, "20260101000000_open.sql"), []byte(body), 0o644); err != nil {
		t.Fatalf("write migration: %v", err)
	}
	if err := ValidateDir(dir); err == nil || !strings.Contains(err.Error(), "StatementBegin") {
		t.Fatalf("expected unclosed statement error, got %v", err)
	}
}
