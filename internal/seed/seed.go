// Package seed fills a local database with fake users, restaurants, comments
// and relations.
package seed

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"restaurant-service/internal/relation"
	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/shared/apperr"
	"restaurant-service/internal/shared/logging"
	"restaurant-service/internal/user"
)

type Options struct {
	Users       int
	Restaurants int
	Comments    int
	Relations   int // attempts per relation kind
	Seed        int64
}

type Deps struct {
	Users       user.Repository
	Restaurants restaurant.Repository
	Relations   relation.Service
}

type Result struct {
	UserIDs       []uint64
	RestaurantIDs []uint64
	Comments      int
	Relations     int
}

var categories = []string{"Chinese", "Japanese", "Italian", "Mexican", "Vegetarian", "American", "Thai", "Seafood"}

func Run(ctx context.Context, d Deps, o Options) (*Result, error) {
	faker := gofakeit.New(o.Seed)
	res := &Result{}

	var catIDs []uint64
	for _, name := range categories {
		c := restaurant.Category{Name: name}
		if err := d.Restaurants.CreateCategory(ctx, &c); err != nil {
			if apperr.IsConflict(err) {
				continue
			}
			return nil, fmt.Errorf("category %s: %w", name, err)
		}
		catIDs = append(catIDs, c.ID)
	}
	if len(catIDs) == 0 {
		cats, err := d.Restaurants.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range cats {
			catIDs = append(catIDs, c.ID)
		}
	}

	for i := 0; i < o.Users; i++ {
		u := user.User{
			Name:  faker.Name(),
			Email: fmt.Sprintf("%d.%s", i, faker.Email()),
			Image: fmt.Sprintf("https://i.pravatar.cc/150?img=%d", faker.Number(1, 70)),
		}
		if err := d.Users.Create(ctx, &u); err != nil {
			return nil, fmt.Errorf("user: %w", err)
		}
		res.UserIDs = append(res.UserIDs, u.ID)
	}

	for i := 0; i < o.Restaurants; i++ {
		r := restaurant.Restaurant{
			Name:         faker.Company(),
			Tel:          faker.Phone(),
			Address:      faker.Street() + ", " + faker.City(),
			OpeningHours: fmt.Sprintf("%02d:00", faker.Number(8, 12)),
			Description:  faker.Paragraph(1, 3, 12, " "),
			Image:        fmt.Sprintf("restaurants/%d.jpg", faker.Number(1, 500)),
		}
		if len(catIDs) > 0 {
			id := catIDs[faker.Number(0, len(catIDs)-1)]
			r.CategoryID = &id
		}
		if err := d.Restaurants.Create(ctx, &r); err != nil {
			return nil, fmt.Errorf("restaurant: %w", err)
		}
		res.RestaurantIDs = append(res.RestaurantIDs, r.ID)
	}

	if len(res.UserIDs) == 0 || len(res.RestaurantIDs) == 0 {
		return res, nil
	}
	pickUser := func() uint64 { return res.UserIDs[faker.Number(0, len(res.UserIDs)-1)] }
	pickRest := func() uint64 { return res.RestaurantIDs[faker.Number(0, len(res.RestaurantIDs)-1)] }

	for i := 0; i < o.Comments; i++ {
		c := restaurant.Comment{Text: faker.Sentence(8), UserID: pickUser(), RestaurantID: pickRest()}
		if err := d.Restaurants.CreateComment(ctx, &c); err != nil {
			return nil, fmt.Errorf("comment: %w", err)
		}
		res.Comments++
	}

	// Random pairs repeat; conflicts and self-follows are skipped.
	toggles := []func() error{
		func() error { return d.Relations.ToggleFavorite(ctx, pickUser(), pickRest(), true) },
		func() error { return d.Relations.ToggleLike(ctx, pickUser(), pickRest(), true) },
		func() error { return d.Relations.ToggleFollow(ctx, pickUser(), pickUser(), true) },
	}
	for _, toggle := range toggles {
		for i := 0; i < o.Relations; i++ {
			err := toggle()
			switch {
			case err == nil:
				res.Relations++
			case apperr.IsConflict(err), apperr.IsValidation(err):
			default:
				return nil, fmt.Errorf("relation: %w", err)
			}
		}
	}

	logging.Info().Int("users", len(res.UserIDs)).Int("restaurants", len(res.RestaurantIDs)).
		Int("comments", res.Comments).Int("relations", res.Relations).Msg("seed complete")
	return res, nil
}
