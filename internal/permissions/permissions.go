// Package permissions holds the pure predicates the HTTP boundary uses
// to gate actions. No predicate has side effects.
package permissions

import (
	"context"

	"github.com/Achess01/ComparteRide-platzi/internal/model"
)

// MembershipChecker answers active-membership questions; the ledger
// implements it.
type MembershipChecker interface {
	IsActiveMember(ctx context.Context, userID, circleID uint) (bool, error)
}

// IsSelf reports whether the requesting user is the target user.
func IsSelf(requester, target model.User) bool {
	return requester.ID == target.ID
}

// IsAccountOwner reports whether the requester owns the account; alias
// of IsSelf kept for call-site clarity at the boundary.
func IsAccountOwner(requester, target model.User) bool {
	return IsSelf(requester, target)
}

// IsSelfMember reports whether the requester owns the membership.
func IsSelfMember(requester model.User, membership model.Membership) bool {
	return requester.ID == membership.UserID
}

// IsActiveCircleMember reports whether the user is an active member of
// the circle, delegating to the ledger.
func IsActiveCircleMember(ctx context.Context, checker MembershipChecker, user model.User, circle model.Circle) (bool, error) {
	return checker.IsActiveMember(ctx, user.ID, circle.ID)
}

// IsCircleAdmin reports whether the membership carries admin rights and
// is active.
func IsCircleAdmin(membership model.Membership) bool {
	return membership.Active && membership.IsAdmin
}

// IsRideOwner reports whether the user offered the ride.
func IsRideOwner(user model.User, ride model.Ride) bool {
	return user.ID == ride.OfferedBy
}

// IsNotRideOwner reports whether the user did not offer the ride.
func IsNotRideOwner(user model.User, ride model.Ride) bool {
	return !IsRideOwner(user, ride)
}
