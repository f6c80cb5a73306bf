// Package rides manages trips offered and taken inside circles.
package rides

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Achess01/ComparteRide-platzi/internal/apperrors"
	"github.com/Achess01/ComparteRide-platzi/internal/circles"
	"github.com/Achess01/ComparteRide-platzi/internal/model"
	"github.com/Achess01/ComparteRide-platzi/internal/store"
)

var (
	// ErrRideNotFound indicates no ride matched inside the circle.
	ErrRideNotFound = apperrors.New(apperrors.CodeRideNotFound, "ride not found")
	// ErrNoSeatsAvailable indicates the ride is full or inactive.
	ErrNoSeatsAvailable = apperrors.New(apperrors.CodeNoSeatsAvailable, "no seats available")
	// ErrAlreadyPassenger indicates the user already joined the ride.
	ErrAlreadyPassenger = apperrors.New(apperrors.CodeAlreadyPassenger, "already joined this ride")
	// ErrOwnRide indicates the offerer tried to join their own ride.
	ErrOwnRide = apperrors.New(apperrors.CodePermissionDenied, "ride owner cannot join as passenger")
	// ErrInvalidRide indicates malformed ride details.
	ErrInvalidRide = apperrors.New(apperrors.CodeInvalidInput, "ride requires locations and at least one seat")
)

// Service creates rides and lets members join them, moving the ride
// statistics through the membership ledger.
type Service struct {
	store  store.Store
	ledger *circles.Ledger
	log    *zap.Logger
}

// NewService creates a ride Service.
func NewService(st store.Store, ledger *circles.Ledger, log *zap.Logger) *Service {
	return &Service{store: st, ledger: ledger, log: log}
}

// OfferRideInput describes a new ride offer.
type OfferRideInput struct {
	DepartureLocation string
	ArrivalLocation   string
	DepartureDate     time.Time
	ArrivalDate       time.Time
	AvailableSeats    uint
}

// OfferRide creates a ride offered by the member inside their circle.
func (s *Service) OfferRide(ctx context.Context, input OfferRideInput, member model.Membership) (model.Ride, error) {
	if !member.Active {
		return model.Ride{}, circles.ErrMembershipNotFound
	}
	input.DepartureLocation = strings.TrimSpace(input.DepartureLocation)
	input.ArrivalLocation = strings.TrimSpace(input.ArrivalLocation)
	if input.DepartureLocation == "" || input.ArrivalLocation == "" || input.AvailableSeats == 0 {
		return model.Ride{}, ErrInvalidRide
	}

	ride := model.Ride{
		OfferedBy:         member.UserID,
		CircleID:          member.CircleID,
		DepartureLocation: input.DepartureLocation,
		ArrivalLocation:   input.ArrivalLocation,
		DepartureDate:     input.DepartureDate,
		ArrivalDate:       input.ArrivalDate,
		AvailableSeats:    input.AvailableSeats,
		Active:            true,
	}
	err := s.store.InTransaction(ctx, func(tx store.Store) error {
		if err := tx.Rides().Create(ctx, &ride); err != nil {
			return fmt.Errorf("create ride: %w", err)
		}
		return s.ledger.RecordRideOffered(ctx, tx, member.UserID, member.CircleID)
	})
	if err != nil {
		return model.Ride{}, err
	}

	s.log.Info("ride offered",
		zap.Uint("ride_id", ride.ID),
		zap.Uint("circle_id", ride.CircleID),
		zap.Uint("offered_by", ride.OfferedBy))
	return ride, nil
}

// JoinRide seats the member on a ride of their circle. The seat
// decrement, passenger insert and counter bumps share one transaction
// so a full ride never overbooks and a seated passenger is never
// missing from the statistics.
func (s *Service) JoinRide(ctx context.Context, rideID uint, member model.Membership) (model.Ride, error) {
	ride, err := s.store.Rides().GetByID(ctx, rideID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Ride{}, ErrRideNotFound
	}
	if err != nil {
		return model.Ride{}, fmt.Errorf("load ride: %w", err)
	}
	if ride.CircleID != member.CircleID {
		return model.Ride{}, ErrRideNotFound
	}
	if ride.OfferedBy == member.UserID {
		return model.Ride{}, ErrOwnRide
	}

	err = s.store.InTransaction(ctx, func(tx store.Store) error {
		if err := tx.Rides().ConsumeSeat(ctx, ride.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNoSeatsAvailable
			}
			return fmt.Errorf("consume seat: %w", err)
		}
		passenger := model.RidePassenger{RideID: ride.ID, UserID: member.UserID}
		if err := tx.Rides().AddPassenger(ctx, &passenger); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrAlreadyPassenger
			}
			return fmt.Errorf("add passenger: %w", err)
		}
		return s.ledger.RecordRideTaken(ctx, tx, member.UserID, member.CircleID)
	})
	if err != nil {
		return model.Ride{}, err
	}

	ride, err = s.store.Rides().GetByID(ctx, ride.ID)
	if err != nil {
		return model.Ride{}, fmt.Errorf("reload ride: %w", err)
	}
	s.log.Info("ride joined",
		zap.Uint("ride_id", ride.ID),
		zap.Uint("user_id", member.UserID))
	return ride, nil
}
