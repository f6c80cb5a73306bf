package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

type invitationStore struct {
	db *gorm.DB
}

func (s *invitationStore) CreateBatch(ctx context.Context, invitations []*model.Invitation) error {
	if len(invitations) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).Create(invitations).Error)
}

func (s *invitationStore) GetByCode(ctx context.Context, code string) (model.Invitation, error) {
	var invitation model.Invitation
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&invitation).Error
	return invitation, translate(err)
}

func (s *invitationStore) ListUnused(ctx context.Context, issuerID, circleID uint) ([]model.Invitation, error) {
	var invitations []model.Invitation
	err := s.db.WithContext(ctx).
		Where("issued_by = ? AND circle_id = ? AND used = ?", issuerID, circleID, false).
		Order("id").
		Find(&invitations).Error
	return invitations, translate(err)
}

func (s *invitationStore) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, translate(err)
}

// MarkUsed is a guarded update: the used = false predicate guarantees
// exactly one of two concurrent redemptions flips the flag.
func (s *invitationStore) MarkUsed(ctx context.Context, code string, usedBy uint) error {
	res := s.db.WithContext(ctx).Model(&model.Invitation{}).
		Where("code = ? AND used = ?", code, false).
		UpdateColumns(map[string]interface{}{
			"used":    true,
			"used_by": usedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
