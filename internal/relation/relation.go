package relation

import (
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/user"
)

// Kind names one of the three binary relations.
type Kind string

const (
	KindFavorite Kind = "favorite"
	KindLike     Kind = "like"
	KindFollow   Kind = "follow"
)

func (k Kind) Valid() bool {
	switch k {
	case KindFavorite, KindLike, KindFollow:
		return true
	}
	return false
}

// Favorite and Like point a user at a restaurant; Followship points a user at a user.
// Each pair is its own primary key, so the database refuses a second row, and
// both ends are foreign keys, so it refuses a row for a missing user or restaurant.
type Favorite struct {
	UserID       uint64                 `gorm:"primaryKey;autoIncrement:false"`
	RestaurantID uint64                 `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt    time.Time              `gorm:"index"`
	User         *user.User             `gorm:"constraint:OnDelete:CASCADE"`
	Restaurant   *restaurant.Restaurant `gorm:"constraint:OnDelete:CASCADE"`
}

type Like struct {
	UserID       uint64                 `gorm:"primaryKey;autoIncrement:false"`
	RestaurantID uint64                 `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt    time.Time              `gorm:"index"`
	User         *user.User             `gorm:"constraint:OnDelete:CASCADE"`
	Restaurant   *restaurant.Restaurant `gorm:"constraint:OnDelete:CASCADE"`
}

type Followship struct {
	FollowerID  uint64     `gorm:"primaryKey;autoIncrement:false"`
	FollowingID uint64     `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt   time.Time  `gorm:"index"`
	Follower    *user.User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Following   *user.User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE"`
}

// Models lists the relation tables for migration.
func Models() []any {
	return []any{&Favorite{}, &Like{}, &Followship{}}
}

// Record is a persisted relation row.
type Record struct {
	Kind      Kind      `json:"kind"`
	SubjectID uint64    `json:"subject_id"`
	TargetID  uint64    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

type columns struct {
	model   any
	subject string
	target  string
}

func (c columns) pair(subject, target uint64) clause.Expression {
	return clause.And(
		clause.Eq{Column: clause.Column{Name: c.subject}, Value: subject},
		clause.Eq{Column: clause.Column{Name: c.target}, Value: target},
	)
}

func (k Kind) columns() (columns, error) {
	switch k {
	case KindFavorite:
		return columns{&Favorite{}, "user_id", "restaurant_id"}, nil
	case KindLike:
		return columns{&Like{}, "user_id", "restaurant_id"}, nil
	case KindFollow:
		return columns{&Followship{}, "follower_id", "following_id"}, nil
	}
	return columns{}, fmt.Errorf("unknown relation kind %q", k)
}

func (k Kind) row(subject, target uint64) any {
	switch k {
	case KindFavorite:
		return &Favorite{UserID: subject, RestaurantID: target}
	case KindLike:
		return &Like{UserID: subject, RestaurantID: target}
	default:
		return &Followship{FollowerID: subject, FollowingID: target}
	}
}

func createdAt(row any) time.Time {
	switch v := row.(type) {
	case *Favorite:
		return v.CreatedAt
	case *Like:
		return v.CreatedAt
	case *Followship:
		return v.CreatedAt
	}
	return time.Time{}
}
