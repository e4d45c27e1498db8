package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"restaurant-service/internal/shared/apperr"
	"restaurant-service/internal/shared/db"
)

type Repository interface {
	GetUser(ctx context.Context, id uint64) (*User, error)
	Exists(ctx context.Context, id uint64) (bool, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListBriefs(ctx context.Context, ids []uint64) ([]Brief, error)
	Create(ctx context.Context, u *User) error
}

type repo struct{ store *db.Store }

func NewRepository(s *db.Store) Repository { return &repo{store: s} }

func (r *repo) GetUser(ctx context.Context, id uint64) (*User, error) {
	var u User
	err := r.store.Read().WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &u, nil
}

func (r *repo) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	if err := r.store.Write().WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, fmt.Errorf("user exists %d: %w", id, err)
	}
	return n > 0, nil
}

func (r *repo) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	if err := r.store.Read().WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *repo) ListBriefs(ctx context.Context, ids []uint64) ([]Brief, error) {
	if len(ids) == 0 {
		return []Brief{}, nil
	}
	var out []Brief
	err := r.store.Read().WithContext(ctx).Model(&User{}).
		Select("id", "name", "image").
		Where("id IN ?", ids).Order("id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list user briefs: %w", err)
	}
	return out, nil
}

func (r *repo) Create(ctx context.Context, u *User) error {
	err := r.store.Write().WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("email %s already registered", u.Email)
	}
	return err
}
