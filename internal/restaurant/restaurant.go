package restaurant

import (
	"time"

	"restaurant-service/internal/user"
)

type Category struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:128;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Restaurant struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Tel          string    `gorm:"size:64" json:"tel"`
	Address      string    `gorm:"size:255" json:"address"`
	OpeningHours string    `gorm:"size:64" json:"opening_hours"`
	Description  string    `gorm:"type:text" json:"description"`
	Image        string    `gorm:"size:512" json:"image"`
	ViewCounts   int64     `gorm:"not null;default:0" json:"view_counts"`
	CategoryID   *uint64   `gorm:"index" json:"category_id"`
	Category     *Category `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	Comments     []Comment `json:"comments,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Comment struct {
	ID           uint64      `gorm:"primaryKey" json:"id"`
	Text         string      `gorm:"type:text;not null" json:"text"`
	UserID       uint64      `gorm:"index;not null" json:"user_id"`
	RestaurantID uint64      `gorm:"index;not null" json:"restaurant_id"`
	User         *user.User  `gorm:"constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Restaurant   *Restaurant `gorm:"constraint:OnDelete:CASCADE" json:"restaurant,omitempty"`
	CreatedAt    time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Brief is the id + image projection used in profile cards.
type Brief struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type GetOptions struct {
	IncludeCategory bool
	IncludeComments bool
}

// Filter narrows ListRestaurants. A zero CategoryID means every category; a zero Limit means no limit.
type Filter struct {
	CategoryID      uint64
	Limit           int
	Offset          int
	IncludeCategory bool
}
