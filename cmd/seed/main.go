package main

import (
	"context"
	"flag"
	"time"

	"restaurant-service/configs"
	"restaurant-service/internal/events"
	"restaurant-service/internal/migrate"
	"restaurant-service/internal/relation"
	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/seed"
	"restaurant-service/internal/shared/db"
	"restaurant-service/internal/shared/jwt"
	"restaurant-service/internal/shared/logging"
	"restaurant-service/internal/user"
)

func main() {
	users := flag.Int("users", 20, "users to create")
	restaurants := flag.Int("restaurants", 50, "restaurants to create")
	comments := flag.Int("comments", 200, "comments to create")
	relations := flag.Int("relations", 150, "favorite, like and follow attempts per kind")
	seedVal := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := configs.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})

	dsn := cfg.DSN()
	if cfg.DB.Driver == "sqlite" {
		dsn = cfg.DB.Path
	}
	store, err := db.Open(db.Config{Driver: cfg.DB.Driver, DSN: dsn, MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		logging.Fatal().Err(err).Msg("db open")
	}
	defer store.Close()
	if err := migrate.AutoMigrateAll(store); err != nil {
		logging.Fatal().Err(err).Msg("migrate")
	}

	userRepo := user.NewRepository(store)
	restRepo := restaurant.NewRepository(store)
	relSvc := relation.NewService(relation.NewStore(store), userRepo, restRepo, events.Noop())

	res, err := seed.Run(context.Background(), seed.Deps{Users: userRepo, Restaurants: restRepo, Relations: relSvc}, seed.Options{
		Users:       *users,
		Restaurants: *restaurants,
		Comments:    *comments,
		Relations:   *relations,
		Seed:        *seedVal,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("seed")
	}

	// Print a few bearer tokens so the API can be exercised right away.
	tm := jwt.NewManager(cfg.JWT.Secret, 0)
	for i, id := range res.UserIDs {
		if i == 3 {
			break
		}
		tok, err := tm.Make(id)
		if err != nil {
			logging.Fatal().Err(err).Msg("token")
		}
		logging.Info().Uint64("user_id", id).Str("token", tok).Msg("bearer token")
	}
}
