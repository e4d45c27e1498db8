package restaurant

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"restaurant-service/internal/shared/apperr"
	"restaurant-service/internal/shared/db"
)

type Repository interface {
	GetRestaurant(ctx context.Context, id uint64, opts GetOptions) (*Restaurant, error)
	ListRestaurants(ctx context.Context, f Filter) ([]Restaurant, error)
	CountRestaurants(ctx context.Context, f Filter) (int64, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	ListBriefs(ctx context.Context, ids []uint64) ([]Brief, error)
	IncrementViewCount(ctx context.Context, id uint64) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]Restaurant, error)
	ListRecentComments(ctx context.Context, limit int) ([]Comment, error)
	CommentedRestaurants(ctx context.Context, userID uint64) ([]Comment, error)
	CountComments(ctx context.Context, restaurantID uint64) (int64, error)
	ListCategories(ctx context.Context) ([]Category, error)

	CreateCategory(ctx context.Context, c *Category) error
	Create(ctx context.Context, rest *Restaurant) error
	CreateComment(ctx context.Context, c *Comment) error
}

type repo struct{ store *db.Store }

func NewRepository(s *db.Store) Repository { return &repo{store: s} }

func (r *repo) GetRestaurant(ctx context.Context, id uint64, opts GetOptions) (*Restaurant, error) {
	q := r.store.Read().WithContext(ctx)
	if opts.IncludeCategory {
		q = q.Preload("Category")
	}
	if opts.IncludeComments {
		q = q.Preload("Comments", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at DESC").Order("id DESC")
		}).Preload("Comments.User")
	}
	var rest Restaurant
	err := q.First(&rest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("restaurant %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant %d: %w", id, err)
	}
	return &rest, nil
}

func (r *repo) filtered(ctx context.Context, f Filter) *gorm.DB {
	q := r.store.Read().WithContext(ctx).Model(&Restaurant{})
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	return q
}

func (r *repo) ListRestaurants(ctx context.Context, f Filter) ([]Restaurant, error) {
	q := r.filtered(ctx, f).Order("id ASC")
	if f.IncludeCategory {
		q = q.Preload("Category")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []Restaurant
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}
	return out, nil
}

func (r *repo) CountRestaurants(ctx context.Context, f Filter) (int64, error) {
	var n int64
	if err := r.filtered(ctx, f).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count restaurants: %w", err)
	}
	return n, nil
}

func (r *repo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	if err := r.store.Write().WithContext(ctx).Model(&Restaurant{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("restaurant exists %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *repo) ListBriefs(ctx context.Context, ids []uint64) ([]Brief, error) {
	if len(ids) == 0 {
		return []Brief{}, nil
	}
	var out []Brief
	err := r.store.Read().WithContext(ctx).Model(&Restaurant{}).
		Select("id", "name", "image").
		Where("id IN ?", ids).Order("id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list restaurant briefs: %w", err)
	}
	return out, nil
}

// IncrementViewCount bumps the counter with a single UPDATE and reads the new value
// inside the same transaction, so concurrent viewers never lose an increment.
func (r *repo) IncrementViewCount(ctx context.Context, id uint64) (int64, error) {
	var views int64
	err := r.store.Write().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Restaurant{}).Where("id = ?", id).
			UpdateColumn("view_counts", gorm.Expr("view_counts + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("restaurant %d not found", id)
		}
		var vals []int64
		if err := tx.Model(&Restaurant{}).Where("id = ?", id).Pluck("view_counts", &vals).Error; err != nil {
			return err
		}
		if len(vals) == 1 {
			views = vals[0]
		}
		return nil
	})
	if err != nil {
		if apperr.IsNotFound(err) {
			return 0, err
		}
		return 0, fmt.Errorf("increment views %d: %w", id, err)
	}
	return views, nil
}

func (r *repo) ListRecent(ctx context.Context, limit int) ([]Restaurant, error) {
	var out []Restaurant
	err := r.store.Read().WithContext(ctx).Preload("Category").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list recent restaurants: %w", err)
	}
	return out, nil
}

func (r *repo) ListRecentComments(ctx context.Context, limit int) ([]Comment, error) {
	var out []Comment
	err := r.store.Read().WithContext(ctx).Preload("User").Preload("Restaurant").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list recent comments: %w", err)
	}
	return out, nil
}

// CommentedRestaurants returns the earliest comment per restaurant the user has
// commented on, with the restaurant narrowed to id and image.
func (r *repo) CommentedRestaurants(ctx context.Context, userID uint64) ([]Comment, error) {
	q := r.store.Read().WithContext(ctx)
	first := q.Model(&Comment{}).Select("MIN(id)").Where("user_id = ?", userID).Group("restaurant_id")

	var out []Comment
	err := q.Where("id IN (?)", first).
		Preload("Restaurant", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "image") }).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("commented restaurants of %d: %w", userID, err)
	}
	return out, nil
}

func (r *repo) CountComments(ctx context.Context, restaurantID uint64) (int64, error) {
	var n int64
	if err := r.store.Read().WithContext(ctx).Model(&Comment{}).Where("restaurant_id = ?", restaurantID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count comments %d: %w", restaurantID, err)
	}
	return n, nil
}

func (r *repo) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := r.store.Read().WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (r *repo) CreateCategory(ctx context.Context, c *Category) error {
	err := r.store.Write().WithContext(ctx).Create(c).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("category %q already exists", c.Name)
	}
	return err
}

func (r *repo) Create(ctx context.Context, rest *Restaurant) error {
	return r.store.Write().WithContext(ctx).Omit("Category", "Comments").Create(rest).Error
}

func (r *repo) CreateComment(ctx context.Context, c *Comment) error {
	return r.store.Write().WithContext(ctx).Omit("User", "Restaurant").Create(c).Error
}
