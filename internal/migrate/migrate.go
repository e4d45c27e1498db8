package migrate

import (
	"restaurant-service/internal/relation"
	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/shared/db"
	"restaurant-service/internal/user"
)

func AutoMigrateAll(store *db.Store) error {
	models := []any{
		&user.User{},
		&restaurant.Category{},
		&restaurant.Restaurant{},
		&restaurant.Comment{},
	}
	return store.Base.AutoMigrate(append(models, relation.Models()...)...)
}
