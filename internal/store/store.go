// Package store defines the persistence interfaces the domain services
// depend on. Implementations live in subpackages; the domain never
// touches a concrete storage technology.
package store

import (
	"context"
	"errors"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
)

// Sentinel errors implementations translate their engine errors into.
var (
	// ErrNotFound indicates no record matched, including guarded updates
	// whose condition did not hold.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicate indicates a uniqueness constraint rejected a write.
	ErrDuplicate = errors.New("store: duplicate record")
)

// Store groups the repositories behind a single transactional boundary.
type Store interface {
	Users() UserStore
	Circles() CircleStore
	Memberships() MembershipStore
	Invitations() InvitationStore
	Rides() RideStore

	// InTransaction runs fn against a Store bound to one transaction,
	// committing when fn returns nil and rolling back otherwise.
	InTransaction(ctx context.Context, fn func(Store) error) error
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (model.User, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// CircleStore persists circles.
type CircleStore interface {
	Create(ctx context.Context, circle *model.Circle) error
	GetByID(ctx context.Context, id uint) (model.Circle, error)
	GetBySlug(ctx context.Context, slug string) (model.Circle, error)
	Save(ctx context.Context, circle *model.Circle) error
	ListPublic(ctx context.Context, limit, offset int) ([]model.Circle, error)
	IncrementMembers(ctx context.Context, circleID uint) error
	IncrementRidesOffered(ctx context.Context, circleID uint) error
	IncrementRidesTaken(ctx context.Context, circleID uint) error
}

// MembershipStore persists memberships. The (user, circle) pair is
// unique; Create fails with ErrDuplicate on a second membership.
type MembershipStore interface {
	Create(ctx context.Context, membership *model.Membership) error
	Get(ctx context.Context, userID, circleID uint) (model.Membership, error)

	// GetForUpdate reads the membership holding a row lock until the
	// surrounding transaction ends, serializing writers on the pair.
	GetForUpdate(ctx context.Context, userID, circleID uint) (model.Membership, error)

	Save(ctx context.Context, membership *model.Membership) error

	// ConsumeQuota atomically moves one invitation from remaining to
	// used for the member. Fails with ErrNotFound when no row with
	// remaining quota matches, so the counter can never go negative.
	ConsumeQuota(ctx context.Context, userID, circleID uint) error

	IncrementRidesOffered(ctx context.Context, userID, circleID uint) error
	IncrementRidesTaken(ctx context.Context, userID, circleID uint) error

	// DetachInviter nulls invited_by on memberships referencing the
	// given user, returning how many rows changed.
	DetachInviter(ctx context.Context, inviterID uint) (int64, error)
}

// InvitationStore persists invitation codes. The code column is unique;
// batch creation fails with ErrDuplicate on any collision.
type InvitationStore interface {
	CreateBatch(ctx context.Context, invitations []*model.Invitation) error
	GetByCode(ctx context.Context, code string) (model.Invitation, error)
	ListUnused(ctx context.Context, issuerID, circleID uint) ([]model.Invitation, error)
	CodeExists(ctx context.Context, code string) (bool, error)

	// MarkUsed flips used from false to true for the code, recording the
	// redeemer. Fails with ErrNotFound when no unused row matches, which
	// under concurrency means another redemption won.
	MarkUsed(ctx context.Context, code string, usedBy uint) error
}

// RideStore persists rides and their passengers.
type RideStore interface {
	Create(ctx context.Context, ride *model.Ride) error
	GetByID(ctx context.Context, id uint) (model.Ride, error)

	// ConsumeSeat atomically decrements available seats, failing with
	// ErrNotFound when no active ride with free seats matches.
	ConsumeSeat(ctx context.Context, rideID uint) error

	// AddPassenger records a rider joining; fails with ErrDuplicate when
	// the user already joined the ride.
	AddPassenger(ctx context.Context, passenger *model.RidePassenger) error
}
