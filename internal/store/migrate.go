package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// MigrationsURL locates the migrations directory, first relative to the
// working directory and then next to the executable, and returns it as a
// file:// source URL.
func MigrationsURL(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	if _, err := os.Stat(abs); err != nil {
		if exe, e := os.Executable(); e == nil {
			abs = filepath.Join(filepath.Dir(exe), dir)
		}
	}
	return "file://" + abs
}

// RunMigrations applies all pending migrations from migrationsURL (e.g.
// "file:///app/migrations") to the database at dsn.
func RunMigrations(dsn string, migrationsURL string) error {
	m, err := migrate.New(migrationsURL, dsn)
	if err != nil {
		return fmt.Errorf("migrate.New: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate.Up: %w", err)
	}
	return nil
}
