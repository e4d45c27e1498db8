package ranking

import (
	"context"
	"fmt"
	"testing"

	"restaurant-service/internal/media"
	"restaurant-service/internal/relation"
	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/shared/db/dbtest"
	"restaurant-service/internal/user"
)

type fixture struct {
	t           *testing.T
	asm         Assembler
	restaurants restaurant.Repository
	users       user.Repository
	relations   relation.Store
	cats        []restaurant.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	models := append([]any{&user.User{}, &restaurant.Category{}, &restaurant.Restaurant{}, &restaurant.Comment{}}, relation.Models()...)
	s := dbtest.Open(t, models...)
	f := &fixture{
		t:           t,
		restaurants: restaurant.NewRepository(s),
		users:       user.NewRepository(s),
		relations:   relation.NewStore(s),
	}
	f.asm = NewAssembler(f.restaurants, f.users, f.relations, media.Passthrough("https://cdn.test"))
	for _, name := range []string{"Italian", "Japanese"} {
		c := restaurant.Category{Name: name}
		if err := f.restaurants.CreateCategory(context.Background(), &c); err != nil {
			t.Fatalf("create category: %v", err)
		}
		f.cats = append(f.cats, c)
	}
	return f
}

func (f *fixture) user(name string) uint64 {
	f.t.Helper()
	u := user.User{Name: name, Email: name + "@example.com", Image: "avatars/" + name + ".png"}
	if err := f.users.Create(context.Background(), &u); err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func (f *fixture) restaurant(name, description string, cat int) uint64 {
	f.t.Helper()
	catID := f.cats[cat].ID
	r := restaurant.Restaurant{Name: name, Description: description, Image: "rest/" + name + ".jpg", CategoryID: &catID}
	if err := f.restaurants.Create(context.Background(), &r); err != nil {
		f.t.Fatalf("create restaurant: %v", err)
	}
	return r.ID
}

func (f *fixture) restaurantsN(n int) []uint64 {
	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = f.restaurant(fmt.Sprintf("r%02d", i), "", i%2)
	}
	return ids
}

func (f *fixture) relate(kind relation.Kind, subject, target uint64) {
	f.t.Helper()
	if _, err := f.relations.Create(context.Background(), kind, subject, target); err != nil {
		f.t.Fatalf("create %s: %v", kind, err)
	}
}

func (f *fixture) comment(userID, restaurantID uint64, text string) uint64 {
	f.t.Helper()
	c := restaurant.Comment{Text: text, UserID: userID, RestaurantID: restaurantID}
	if err := f.restaurants.CreateComment(context.Background(), &c); err != nil {
		f.t.Fatalf("create comment: %v", err)
	}
	return c.ID
}
