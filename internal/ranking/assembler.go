package ranking

import (
	"context"
	"sort"
	"time"

	"restaurant-service/internal/media"
	"restaurant-service/internal/metrics"
	"restaurant-service/internal/relation"
	"restaurant-service/internal/restaurant"
	"restaurant-service/internal/user"
)

const (
	DefaultTopLimit    = 10
	DefaultFeedLimit   = 10
	DefaultBrowseLimit = 9
	descriptionRunes   = 50
)

// Assembler builds read-only views from the entity repositories and the relation
// store. A viewerID of 0 means an anonymous viewer; every personal flag is then false.
type Assembler interface {
	TopRestaurants(ctx context.Context, viewerID uint64, limit int) ([]RestaurantCard, error)
	TopUsers(ctx context.Context, viewerID uint64, limit int) ([]UserCard, error)
	Feed(ctx context.Context, limit int) (*Feed, error)
	RestaurantDetail(ctx context.Context, restaurantID, viewerID uint64) (*RestaurantDetail, error)
	UserProfile(ctx context.Context, userID, viewerID uint64) (*UserProfile, error)
	Dashboard(ctx context.Context, restaurantID uint64) (*Dashboard, error)
	Browse(ctx context.Context, viewerID uint64, q BrowseQuery) (*BrowsePage, error)
	Followers(ctx context.Context, userID uint64) (*FollowList, error)
	Followings(ctx context.Context, userID uint64) (*FollowList, error)
}

type assembler struct {
	restaurants restaurant.Repository
	users       user.Repository
	relations   relation.Store
	images      media.Resolver
}

func NewAssembler(rr restaurant.Repository, ur user.Repository, rs relation.Store, images media.Resolver) Assembler {
	if images == nil {
		images = media.Passthrough("")
	}
	return &assembler{restaurants: rr, users: ur, relations: rs, images: images}
}

func (a *assembler) image(ctx context.Context, ref string) Image {
	return Image{Ref: ref, URL: a.images.Resolve(ctx, ref)}
}

// viewerSet returns the targets the viewer holds a relation to.
func (a *assembler) viewerSet(ctx context.Context, kind relation.Kind, viewerID uint64) (map[uint64]bool, error) {
	set := map[uint64]bool{}
	if viewerID == 0 {
		return set, nil
	}
	ids, err := a.relations.TargetsOf(ctx, kind, viewerID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (a *assembler) cards(ctx context.Context, viewerID uint64, rests []restaurant.Restaurant) ([]RestaurantCard, error) {
	ids := make([]uint64, len(rests))
	for i := range rests {
		ids[i] = rests[i].ID
	}
	counts, err := a.relations.CountByTargets(ctx, relation.KindFavorite, ids)
	if err != nil {
		return nil, err
	}
	favorited, err := a.viewerSet(ctx, relation.KindFavorite, viewerID)
	if err != nil {
		return nil, err
	}
	liked, err := a.viewerSet(ctx, relation.KindLike, viewerID)
	if err != nil {
		return nil, err
	}
	out := make([]RestaurantCard, len(rests))
	for i, r := range rests {
		out[i] = RestaurantCard{
			ID:             r.ID,
			Name:           r.Name,
			Description:    truncate(r.Description, descriptionRunes),
			Category:       categoryView(r.Category),
			ViewCounts:     r.ViewCounts,
			FavoritedCount: counts[r.ID],
			IsFavorited:    favorited[r.ID],
			IsLiked:        liked[r.ID],
			Image:          a.image(ctx, r.Image),
		}
	}
	return out, nil
}

func (a *assembler) TopRestaurants(ctx context.Context, viewerID uint64, limit int) ([]RestaurantCard, error) {
	defer metrics.ObserveRanking("top_restaurants", time.Now())
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	rests, err := a.restaurants.ListRestaurants(ctx, restaurant.Filter{IncludeCategory: true})
	if err != nil {
		return nil, err
	}
	cards, err := a.cards(ctx, viewerID, rests)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].FavoritedCount > cards[j].FavoritedCount
	})
	if len(cards) > limit {
		cards = cards[:limit]
	}
	return cards, nil
}

// TopUsers ranks every user by follower count. A limit <= 0 returns the whole list.
func (a *assembler) TopUsers(ctx context.Context, viewerID uint64, limit int) ([]UserCard, error) {
	defer metrics.ObserveRanking("top_users", time.Now())
	users, err := a.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	counts, err := a.relations.CountByTargets(ctx, relation.KindFollow, ids)
	if err != nil {
		return nil, err
	}
	following, err := a.viewerSet(ctx, relation.KindFollow, viewerID)
	if err != nil {
		return nil, err
	}
	out := make([]UserCard, len(users))
	for i, u := range users {
		out[i] = UserCard{
			ID:            u.ID,
			Name:          u.Name,
			FollowerCount: counts[u.ID],
			IsFollowed:    following[u.ID],
			Image:         a.image(ctx, u.Image),
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FollowerCount > out[j].FollowerCount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *assembler) Feed(ctx context.Context, limit int) (*Feed, error) {
	defer metrics.ObserveRanking("feed", time.Now())
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	rests, err := a.restaurants.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	comments, err := a.restaurants.ListRecentComments(ctx, limit)
	if err != nil {
		return nil, err
	}
	feed := &Feed{
		Restaurants: make([]FeedRestaurant, len(rests)),
		Comments:    make([]FeedComment, len(comments)),
	}
	for i, r := range rests {
		feed.Restaurants[i] = FeedRestaurant{
			ID:          r.ID,
			Name:        r.Name,
			Description: r.Description,
			Category:    categoryView(r.Category),
			CreatedAt:   r.CreatedAt,
			Image:       a.image(ctx, r.Image),
		}
	}
	for i, c := range comments {
		fc := FeedComment{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt}
		if c.User != nil {
			fc.User = UserBrief{ID: c.User.ID, Name: c.User.Name, Image: a.image(ctx, c.User.Image)}
		}
		if c.Restaurant != nil {
			fc.Restaurant = RestaurantBrief{ID: c.Restaurant.ID, Name: c.Restaurant.Name, Image: a.image(ctx, c.Restaurant.Image)}
		}
		feed.Comments[i] = fc
	}
	return feed, nil
}

func (a *assembler) userBriefs(ctx context.Context, ids []uint64) ([]UserBrief, error) {
	briefs, err := a.users.ListBriefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]UserBrief, len(briefs))
	for i, b := range briefs {
		out[i] = UserBrief{ID: b.ID, Name: b.Name, Image: a.image(ctx, b.Image)}
	}
	return out, nil
}

func contains(ids []uint64, id uint64) bool {
	if id == 0 {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// RestaurantDetail counts a view only once the restaurant is known to exist.
func (a *assembler) RestaurantDetail(ctx context.Context, restaurantID, viewerID uint64) (*RestaurantDetail, error) {
	defer metrics.ObserveRanking("restaurant_detail", time.Now())
	r, err := a.restaurants.GetRestaurant(ctx, restaurantID, restaurant.GetOptions{IncludeCategory: true, IncludeComments: true})
	if err != nil {
		return nil, err
	}
	views, err := a.restaurants.IncrementViewCount(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	metrics.RestaurantViews.Inc()

	favIDs, err := a.relations.SubjectsOf(ctx, relation.KindFavorite, restaurantID)
	if err != nil {
		return nil, err
	}
	likeIDs, err := a.relations.SubjectsOf(ctx, relation.KindLike, restaurantID)
	if err != nil {
		return nil, err
	}
	favUsers, err := a.userBriefs(ctx, favIDs)
	if err != nil {
		return nil, err
	}
	likeUsers, err := a.userBriefs(ctx, likeIDs)
	if err != nil {
		return nil, err
	}

	comments := make([]CommentView, len(r.Comments))
	for i, c := range r.Comments {
		cv := CommentView{ID: c.ID, Text: c.Text, CreatedAt: c.CreatedAt}
		if c.User != nil {
			cv.User = UserBrief{ID: c.User.ID, Name: c.User.Name, Image: a.image(ctx, c.User.Image)}
		}
		comments[i] = cv
	}

	return &RestaurantDetail{
		ID:             r.ID,
		Name:           r.Name,
		Tel:            r.Tel,
		Address:        r.Address,
		OpeningHours:   r.OpeningHours,
		Description:    r.Description,
		Category:       categoryView(r.Category),
		ViewCounts:     views,
		Comments:       comments,
		FavoritedUsers: favUsers,
		LikedUsers:     likeUsers,
		IsFavorited:    contains(favIDs, viewerID),
		IsLiked:        contains(likeIDs, viewerID),
		Image:          a.image(ctx, r.Image),
	}, nil
}

func (a *assembler) UserProfile(ctx context.Context, userID, viewerID uint64) (*UserProfile, error) {
	defer metrics.ObserveRanking("user_profile", time.Now())
	u, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	followerIDs, err := a.relations.ListFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	followingIDs, err := a.relations.ListFollowings(ctx, userID)
	if err != nil {
		return nil, err
	}
	followers, err := a.userBriefs(ctx, followerIDs)
	if err != nil {
		return nil, err
	}
	followings, err := a.userBriefs(ctx, followingIDs)
	if err != nil {
		return nil, err
	}

	favIDs, err := a.relations.TargetsOf(ctx, relation.KindFavorite, userID)
	if err != nil {
		return nil, err
	}
	favBriefs, err := a.restaurants.ListBriefs(ctx, favIDs)
	if err != nil {
		return nil, err
	}
	favorites := make([]RestaurantBrief, len(favBriefs))
	for i, b := range favBriefs {
		favorites[i] = RestaurantBrief{ID: b.ID, Image: a.image(ctx, b.Image)}
	}

	comments, err := a.restaurants.CommentedRestaurants(ctx, userID)
	if err != nil {
		return nil, err
	}
	commented := make([]CommentedRestaurant, 0, len(comments))
	seen := make(map[uint64]bool, len(comments))
	for _, c := range comments {
		if seen[c.RestaurantID] {
			continue
		}
		seen[c.RestaurantID] = true
		cr := CommentedRestaurant{CommentID: c.ID, Restaurant: RestaurantBrief{ID: c.RestaurantID}}
		if c.Restaurant != nil {
			cr.Restaurant.Image = a.image(ctx, c.Restaurant.Image)
		}
		commented = append(commented, cr)
	}

	return &UserProfile{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		Followings:           followings,
		Followers:            followers,
		FavoritedRestaurants: favorites,
		CommentedRestaurants: commented,
		IsFollowed:           contains(followerIDs, viewerID),
		Image:                a.image(ctx, u.Image),
	}, nil
}

// Dashboard reports a restaurant's counters without counting a view.
func (a *assembler) Dashboard(ctx context.Context, restaurantID uint64) (*Dashboard, error) {
	r, err := a.restaurants.GetRestaurant(ctx, restaurantID, restaurant.GetOptions{IncludeCategory: true})
	if err != nil {
		return nil, err
	}
	comments, err := a.restaurants.CountComments(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	favs, err := a.relations.CountByTarget(ctx, relation.KindFavorite, restaurantID)
	if err != nil {
		return nil, err
	}
	likes, err := a.relations.CountByTarget(ctx, relation.KindLike, restaurantID)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		ID:             r.ID,
		Name:           r.Name,
		Category:       categoryView(r.Category),
		ViewCounts:     r.ViewCounts,
		CommentCount:   comments,
		FavoritedCount: favs,
		LikedCount:     likes,
	}, nil
}

func (a *assembler) Browse(ctx context.Context, viewerID uint64, q BrowseQuery) (*BrowsePage, error) {
	defer metrics.ObserveRanking("browse", time.Now())
	if q.Limit <= 0 {
		q.Limit = DefaultBrowseLimit
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	f := restaurant.Filter{
		CategoryID:      q.CategoryID,
		Limit:           q.Limit,
		Offset:          (q.Page - 1) * q.Limit,
		IncludeCategory: true,
	}
	total, err := a.restaurants.CountRestaurants(ctx, f)
	if err != nil {
		return nil, err
	}
	rests, err := a.restaurants.ListRestaurants(ctx, f)
	if err != nil {
		return nil, err
	}
	cards, err := a.cards(ctx, viewerID, rests)
	if err != nil {
		return nil, err
	}
	cats, err := a.restaurants.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	categories := make([]CategoryView, len(cats))
	for i, c := range cats {
		categories[i] = CategoryView{ID: c.ID, Name: c.Name}
	}
	pages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return &BrowsePage{
		Restaurants: cards,
		Categories:  categories,
		CategoryID:  q.CategoryID,
		Pagination:  Pagination{Page: q.Page, Limit: q.Limit, Total: total, TotalPages: pages},
	}, nil
}

func (a *assembler) Followers(ctx context.Context, userID uint64) (*FollowList, error) {
	return a.followList(ctx, userID, a.relations.ListFollowers)
}

func (a *assembler) Followings(ctx context.Context, userID uint64) (*FollowList, error) {
	return a.followList(ctx, userID, a.relations.ListFollowings)
}

func (a *assembler) followList(ctx context.Context, userID uint64, list func(context.Context, uint64) ([]uint64, error)) (*FollowList, error) {
	if _, err := a.users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	ids, err := list(ctx, userID)
	if err != nil {
		return nil, err
	}
	users, err := a.userBriefs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &FollowList{UserID: userID, Users: users}, nil
}
