package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

type circleStore struct {
	db *gorm.DB
}

func (s *circleStore) Create(ctx context.Context, circle *model.Circle) error {
	return translate(s.db.WithContext(ctx).Create(circle).Error)
}

func (s *circleStore) GetByID(ctx context.Context, id uint) (model.Circle, error) {
	var circle model.Circle
	err := s.db.WithContext(ctx).First(&circle, id).Error
	return circle, translate(err)
}

func (s *circleStore) GetBySlug(ctx context.Context, slug string) (model.Circle, error) {
	var circle model.Circle
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&circle).Error
	return circle, translate(err)
}

func (s *circleStore) Save(ctx context.Context, circle *model.Circle) error {
	return translate(s.db.WithContext(ctx).Save(circle).Error)
}

func (s *circleStore) ListPublic(ctx context.Context, limit, offset int) ([]model.Circle, error) {
	var circles []model.Circle
	err := s.db.WithContext(ctx).
		Where("is_public = ? AND active = ?", true, true).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&circles).Error
	return circles, translate(err)
}

func (s *circleStore) IncrementMembers(ctx context.Context, circleID uint) error {
	return s.increment(ctx, circleID, "members_count")
}

func (s *circleStore) IncrementRidesOffered(ctx context.Context, circleID uint) error {
	return s.increment(ctx, circleID, "rides_offered")
}

func (s *circleStore) IncrementRidesTaken(ctx context.Context, circleID uint) error {
	return s.increment(ctx, circleID, "rides_taken")
}

func (s *circleStore) increment(ctx context.Context, circleID uint, column string) error {
	res := s.db.WithContext(ctx).Model(&model.Circle{}).
		Where("id = ?", circleID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
