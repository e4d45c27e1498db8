// Package dbtest opens throwaway sqlite stores for package tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"restaurant-service/internal/shared/db"
)

// Open returns a file-backed sqlite store in t.TempDir with the given models migrated.
// The pool holds a single connection so concurrent writers queue instead of failing with SQLITE_BUSY.
func Open(t testing.TB, models ...any) *db.Store {
	t.Helper()
	store := open(t, filepath.Join(t.TempDir(), "test.db"), nil)
	migrate(t, store, models)
	return store
}

// OpenWithReplica returns a store whose reads are routed to a second sqlite file.
// The replica never receives writes, so it behaves like a replica that has not
// caught up yet.
func OpenWithReplica(t testing.TB, models ...any) *db.Store {
	t.Helper()
	dir := t.TempDir()
	primary, replica := filepath.Join(dir, "primary.db"), filepath.Join(dir, "replica.db")
	for _, path := range []string{primary, replica} {
		s := open(t, path, nil)
		migrate(t, s, models)
		_ = s.Close()
	}
	return open(t, primary, []string{replica})
}

func open(t testing.TB, path string, replicas []string) *db.Store {
	t.Helper()
	store, err := db.Open(db.Config{
		Driver:       "sqlite",
		DSN:          path,
		Replicas:     replicas,
		MaxOpenConns: 1,
		Attempts:     1,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func migrate(t testing.TB, store *db.Store, models []any) {
	t.Helper()
	if len(models) == 0 {
		return
	}
	if err := store.Base.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}
