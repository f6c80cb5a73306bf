package gormstore

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

type membershipStore struct {
	db *gorm.DB
}

func (s *membershipStore) Create(ctx context.Context, membership *model.Membership) error {
	return translate(s.db.WithContext(ctx).Create(membership).Error)
}

func (s *membershipStore) Get(ctx context.Context, userID, circleID uint) (model.Membership, error) {
	var membership model.Membership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND circle_id = ?", userID, circleID).
		First(&membership).Error
	return membership, translate(err)
}

// GetForUpdate takes a SELECT ... FOR UPDATE row lock, held until the
// surrounding transaction commits or rolls back.
func (s *membershipStore) GetForUpdate(ctx context.Context, userID, circleID uint) (model.Membership, error) {
	var membership model.Membership
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND circle_id = ?", userID, circleID).
		First(&membership).Error
	return membership, translate(err)
}

func (s *membershipStore) Save(ctx context.Context, membership *model.Membership) error {
	return translate(s.db.WithContext(ctx).Save(membership).Error)
}

// ConsumeQuota is a guarded update: the remaining_invitations > 0
// predicate keeps the counter non-negative under concurrent redemptions.
func (s *membershipStore) ConsumeQuota(ctx context.Context, userID, circleID uint) error {
	res := s.db.WithContext(ctx).Model(&model.Membership{}).
		Where("user_id = ? AND circle_id = ? AND remaining_invitations > 0", userID, circleID).
		UpdateColumns(map[string]interface{}{
			"remaining_invitations": gorm.Expr("remaining_invitations - 1"),
			"used_invitations":      gorm.Expr("used_invitations + 1"),
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *membershipStore) IncrementRidesOffered(ctx context.Context, userID, circleID uint) error {
	return s.increment(ctx, userID, circleID, "rides_offered")
}

func (s *membershipStore) IncrementRidesTaken(ctx context.Context, userID, circleID uint) error {
	return s.increment(ctx, userID, circleID, "rides_taken")
}

func (s *membershipStore) increment(ctx context.Context, userID, circleID uint, column string) error {
	res := s.db.WithContext(ctx).Model(&model.Membership{}).
		Where("user_id = ? AND circle_id = ?", userID, circleID).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *membershipStore) DetachInviter(ctx context.Context, inviterID uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.Membership{}).
		Where("invited_by = ?", inviterID).
		UpdateColumn("invited_by", nil)
	return res.RowsAffected, translate(res.Error)
}
