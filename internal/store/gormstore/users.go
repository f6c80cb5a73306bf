package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
)

type userStore struct {
	db *gorm.DB
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *userStore) GetByID(ctx context.Context, id uint) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	return user, translate(err)
}

func (s *userStore) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return user, translate(err)
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, translate(err)
}
