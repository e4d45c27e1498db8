package relation

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"restaurant-service/internal/shared/apperr"
	"restaurant-service/internal/shared/db"
)

type Store interface {
	Exists(ctx context.Context, kind Kind, subjectID, targetID uint64) (bool, error)
	Create(ctx context.Context, kind Kind, subjectID, targetID uint64) (Record, error)
	Delete(ctx context.Context, kind Kind, subjectID, targetID uint64) error
	CountByTarget(ctx context.Context, kind Kind, targetID uint64) (int64, error)
	CountByTargets(ctx context.Context, kind Kind, targetIDs []uint64) (map[uint64]int64, error)
	TargetsOf(ctx context.Context, kind Kind, subjectID uint64) ([]uint64, error)
	SubjectsOf(ctx context.Context, kind Kind, targetID uint64) ([]uint64, error)
	ListFollowers(ctx context.Context, userID uint64) ([]uint64, error)
	ListFollowings(ctx context.Context, userID uint64) ([]uint64, error)
}

type store struct{ db *db.Store }

func NewStore(s *db.Store) Store { return &store{db: s} }

func (s *store) Exists(ctx context.Context, kind Kind, subjectID, targetID uint64) (bool, error) {
	c, err := kind.columns()
	if err != nil {
		return false, err
	}
	var n int64
	err = s.db.Write().WithContext(ctx).Model(c.model).
		Where(c.pair(subjectID, targetID)).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("%s exists: %w", kind, err)
	}
	return n > 0, nil
}

// Create inserts the pair. A second insert of the same pair is rejected by the
// primary key and surfaces as a conflict; a pair naming a missing user or
// restaurant is rejected by the foreign keys and surfaces as not found.
func (s *store) Create(ctx context.Context, kind Kind, subjectID, targetID uint64) (Record, error) {
	if _, err := kind.columns(); err != nil {
		return Record{}, err
	}
	row := kind.row(subjectID, targetID)
	err := s.db.Write().WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Record{}, apperr.Conflict("%s %d -> %d already exists", kind, subjectID, targetID)
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return Record{}, apperr.NotFound("%s %d -> %d references a missing user or restaurant", kind, subjectID, targetID)
	}
	if err != nil {
		return Record{}, fmt.Errorf("create %s: %w", kind, err)
	}
	return Record{Kind: kind, SubjectID: subjectID, TargetID: targetID, CreatedAt: createdAt(row)}, nil
}

func (s *store) Delete(ctx context.Context, kind Kind, subjectID, targetID uint64) error {
	c, err := kind.columns()
	if err != nil {
		return err
	}
	res := s.db.Write().WithContext(ctx).
		Where(c.pair(subjectID, targetID)).
		Delete(c.model)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("%s %d -> %d does not exist", kind, subjectID, targetID)
	}
	return nil
}

func (s *store) CountByTarget(ctx context.Context, kind Kind, targetID uint64) (int64, error) {
	c, err := kind.columns()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.Read().WithContext(ctx).Model(c.model).Where(c.target+" = ?", targetID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", kind, err)
	}
	return n, nil
}

// CountByTargets counts rows per target in one grouped query. Targets without
// rows are absent from the map.
func (s *store) CountByTargets(ctx context.Context, kind Kind, targetIDs []uint64) (map[uint64]int64, error) {
	c, err := kind.columns()
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]int64, len(targetIDs))
	if len(targetIDs) == 0 {
		return out, nil
	}
	type row struct {
		TargetID uint64
		N        int64
	}
	var rows []row
	err = s.db.Read().WithContext(ctx).Model(c.model).
		Select(c.target+" AS target_id, COUNT(*) AS n").
		Where(c.target+" IN ?", targetIDs).
		Group(c.target).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count %s by targets: %w", kind, err)
	}
	for _, r := range rows {
		out[r.TargetID] = r.N
	}
	return out, nil
}

func (s *store) TargetsOf(ctx context.Context, kind Kind, subjectID uint64) ([]uint64, error) {
	c, err := kind.columns()
	if err != nil {
		return nil, err
	}
	return s.pluck(ctx, kind, c.model, c.target, c.subject, subjectID)
}

func (s *store) SubjectsOf(ctx context.Context, kind Kind, targetID uint64) ([]uint64, error) {
	c, err := kind.columns()
	if err != nil {
		return nil, err
	}
	return s.pluck(ctx, kind, c.model, c.subject, c.target, targetID)
}

func (s *store) pluck(ctx context.Context, kind Kind, model any, col, by string, id uint64) ([]uint64, error) {
	out := []uint64{}
	err := s.db.Read().WithContext(ctx).Model(model).
		Where(clause.Eq{Column: clause.Column{Name: by}, Value: id}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: col}}).
		Pluck(col, &out).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	return out, nil
}

func (s *store) ListFollowers(ctx context.Context, userID uint64) ([]uint64, error) {
	return s.SubjectsOf(ctx, KindFollow, userID)
}

func (s *store) ListFollowings(ctx context.Context, userID uint64) ([]uint64, error) {
	return s.TargetsOf(ctx, KindFollow, userID)
}
