package migrate

import (
	"testing"

	"restaurant-service/internal/relation"
	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/shared/db/dbtest"
	"restaurant-service/internal/user"
)

func TestAutoMigrateAll(t *testing.T) {
	store := dbtest.Open(t)
	if err := AutoMigrateAll(store); err != nil {
		t.Fatalf("AutoMigrateAll: %v", err)
	}
	// Running twice must be a no-op.
	if err := AutoMigrateAll(store); err != nil {
		t.Fatalf("second AutoMigrateAll: %v", err)
	}
	m := store.Base.Migrator()
	for _, model := range []any{&user.User{}, &restaurant.Category{}, &restaurant.Restaurant{}, &restaurant.Comment{}, &relation.Favorite{}, &relation.Like{}, &relation.Followship{}} {
		if !m.HasTable(model) {
			t.Errorf("table for %T missing", model)
		}
	}
}
