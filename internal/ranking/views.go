package ranking

import (
	"time"

	"restaurant-service/internal/restaurant"
)

// Image pairs a stored reference with the URL it resolves to.
type Image struct {
	Ref string `json:"image"`
	URL string `json:"image_url"`
}

type UserBrief struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
	Image
}

type RestaurantBrief struct {
	ID   uint64 `json:"id"`
	Name string `json:"name,omitempty"`
	Image
}

type CategoryView struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// RestaurantCard is one row of the top and browse lists. Description is cut to
// its first 50 characters.
type RestaurantCard struct {
	ID             uint64        `json:"id"`
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	Category       *CategoryView `json:"category,omitempty"`
	ViewCounts     int64         `json:"view_counts"`
	FavoritedCount int64         `json:"favorited_count"`
	IsFavorited    bool          `json:"is_favorited"`
	IsLiked        bool          `json:"is_liked"`
	Image
}

type UserCard struct {
	ID            uint64 `json:"id"`
	Name          string `json:"name"`
	FollowerCount int64  `json:"follower_count"`
	IsFollowed    bool   `json:"is_followed"`
	Image
}

type FeedRestaurant struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    *CategoryView `json:"category,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	Image
}

type FeedComment struct {
	ID         uint64          `json:"id"`
	Text       string          `json:"text"`
	CreatedAt  time.Time       `json:"created_at"`
	User       UserBrief       `json:"user"`
	Restaurant RestaurantBrief `json:"restaurant"`
}

// Feed holds the newest restaurants and the newest comments as two separate lists.
type Feed struct {
	Restaurants []FeedRestaurant `json:"restaurants"`
	Comments    []FeedComment    `json:"comments"`
}

type CommentView struct {
	ID        uint64    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	User      UserBrief `json:"user"`
}

type RestaurantDetail struct {
	ID             uint64        `json:"id"`
	Name           string        `json:"name"`
	Tel            string        `json:"tel"`
	Address        string        `json:"address"`
	OpeningHours   string        `json:"opening_hours"`
	Description    string        `json:"description"`
	Category       *CategoryView `json:"category,omitempty"`
	ViewCounts     int64         `json:"view_counts"`
	Comments       []CommentView `json:"comments"`
	FavoritedUsers []UserBrief   `json:"favorited_users"`
	LikedUsers     []UserBrief   `json:"liked_users"`
	IsFavorited    bool          `json:"is_favorited"`
	IsLiked        bool          `json:"is_liked"`
	Image
}

// CommentedRestaurant is the representative comment for one restaurant on a profile.
type CommentedRestaurant struct {
	CommentID  uint64          `json:"comment_id"`
	Restaurant RestaurantBrief `json:"restaurant"`
}

type UserProfile struct {
	ID                   uint64                `json:"id"`
	Name                 string                `json:"name"`
	Email                string                `json:"email"`
	Followings           []UserBrief           `json:"followings"`
	Followers            []UserBrief           `json:"followers"`
	FavoritedRestaurants []RestaurantBrief     `json:"favorited_restaurants"`
	CommentedRestaurants []CommentedRestaurant `json:"commented_restaurants"`
	IsFollowed           bool                  `json:"is_followed"`
	Image
}

type Dashboard struct {
	ID             uint64        `json:"id"`
	Name           string        `json:"name"`
	Category       *CategoryView `json:"category,omitempty"`
	ViewCounts     int64         `json:"view_counts"`
	CommentCount   int64         `json:"comment_count"`
	FavoritedCount int64         `json:"favorited_count"`
	LikedCount     int64         `json:"liked_count"`
}

type BrowseQuery struct {
	CategoryID uint64
	Page       int
	Limit      int
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type BrowsePage struct {
	Restaurants []RestaurantCard `json:"restaurants"`
	Categories  []CategoryView   `json:"categories"`
	CategoryID  uint64           `json:"category_id"`
	Pagination  Pagination       `json:"pagination"`
}

type FollowList struct {
	UserID uint64      `json:"user_id"`
	Users  []UserBrief `json:"users"`
}

func categoryView(c *restaurant.Category) *CategoryView {
	if c == nil {
		return nil
	}
	return &CategoryView{ID: c.ID, Name: c.Name}
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
