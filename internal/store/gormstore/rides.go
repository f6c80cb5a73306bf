package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

type rideStore struct {
	db *gorm.DB
}

func (s *rideStore) Create(ctx context.Context, ride *model.Ride) error {
	return translate(s.db.WithContext(ctx).Create(ride).Error)
}

func (s *rideStore) GetByID(ctx context.Context, id uint) (model.Ride, error) {
	var ride model.Ride
	err := s.db.WithContext(ctx).First(&ride, id).Error
	return ride, translate(err)
}

// ConsumeSeat is a guarded update: the available_seats > 0 predicate
// stops overbooking under concurrent joins.
func (s *rideStore) ConsumeSeat(ctx context.Context, rideID uint) error {
	res := s.db.WithContext(ctx).Model(&model.Ride{}).
		Where("id = ? AND active = ? AND available_seats > 0", rideID, true).
		UpdateColumn("available_seats", gorm.Expr("available_seats - 1"))
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *rideStore) AddPassenger(ctx context.Context, passenger *model.RidePassenger) error {
	return translate(s.db.WithContext(ctx).Create(passenger).Error)
}
