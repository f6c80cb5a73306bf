// Package circles owns circle existence and the membership ledger that
// binds users to circles with roles, quotas and activity state.
package circles

import (
	"github.com/Achess01/ComparteRide-platzi/internal/apperrors"
	"github.com/Achess01/ComparteRide-platzi/internal/model"
)

var (
	// ErrCircleNotFound indicates no circle matched the lookup.
	ErrCircleNotFound = apperrors.New(apperrors.CodeCircleNotFound, "circle not found")
	// ErrDuplicateSlug indicates the slug is already taken.
	ErrDuplicateSlug = apperrors.New(apperrors.CodeDuplicateSlug, "circle slug already taken")
	// ErrNameEmpty indicates a missing circle name.
	ErrNameEmpty = apperrors.New(apperrors.CodeCircleNameEmpty, "circle name is required")
	// ErrSlugEmpty indicates a missing circle slug.
	ErrSlugEmpty = apperrors.New(apperrors.CodeCircleSlugEmpty, "circle slug is required")
	// ErrMembershipNotFound indicates no membership exists for the pair.
	ErrMembershipNotFound = apperrors.New(apperrors.CodeMembershipNotFound, "membership not found")
	// ErrAlreadyMember indicates the user already belongs to the circle.
	ErrAlreadyMember = apperrors.New(apperrors.CodeAlreadyMember, "user is already a member of this circle")
)

// QuotaPolicy sets the invitation allotments granted on membership
// creation. RemainingInvitations only ever decreases afterwards.
type QuotaPolicy struct {
	// FounderInvitations is the quota granted to a circle's founder.
	FounderInvitations uint
	// MemberInvitations is the quota granted to invited members.
	MemberInvitations uint
}

// DefaultQuotaPolicy grants founders ten invitations and invited
// members none.
func DefaultQuotaPolicy() QuotaPolicy {
	return QuotaPolicy{FounderInvitations: 10}
}

// FoundingMembership builds the admin membership created together with
// a new circle.
func FoundingMembership(userID, circleID uint, policy QuotaPolicy) model.Membership {
	return model.Membership{
		UserID:               userID,
		CircleID:             circleID,
		IsAdmin:              true,
		RemainingInvitations: policy.FounderInvitations,
		Active:               true,
	}
}
