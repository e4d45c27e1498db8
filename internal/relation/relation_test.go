package relation

import (
	"context"
	"fmt"
	"testing"

	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/shared/db"
	"restaurant-service/internal/shared/db/dbtest"
	"restaurant-service/internal/user"
)

type fixture struct {
	db          *db.Store
	store       Store
	users       user.Repository
	restaurants restaurant.Repository
	us          []user.User
	rs          []restaurant.Restaurant
}

func newFixture(t *testing.T, nUsers, nRestaurants int) *fixture {
	t.Helper()
	models := append([]any{&user.User{}, &restaurant.Category{}, &restaurant.Restaurant{}, &restaurant.Comment{}}, Models()...)
	s := dbtest.Open(t, models...)
	f := &fixture{
		db:          s,
		store:       NewStore(s),
		users:       user.NewRepository(s),
		restaurants: restaurant.NewRepository(s),
	}
	ctx := context.Background()
	for i := 1; i <= nUsers; i++ {
		u := user.User{Name: fmt.Sprintf("u%d", i), Email: fmt.Sprintf("u%d@example.com", i)}
		if err := f.users.Create(ctx, &u); err != nil {
			t.Fatalf("create user: %v", err)
		}
		f.us = append(f.us, u)
	}
	for i := 1; i <= nRestaurants; i++ {
		r := restaurant.Restaurant{Name: fmt.Sprintf("r%d", i)}
		if err := f.restaurants.Create(ctx, &r); err != nil {
			t.Fatalf("create restaurant: %v", err)
		}
		f.rs = append(f.rs, r)
	}
	return f
}

func (f *fixture) rows(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Base.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
