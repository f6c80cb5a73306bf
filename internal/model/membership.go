package model

import (
	"time"

	"gorm.io/gorm"
)

// Membership is the association between a user and a circle.
// At most one membership exists per (user, circle) pair.
type Membership struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"uniqueIndex:idx_memberships_user_circle;not null"`
	CircleID uint `json:"circle_id" gorm:"uniqueIndex:idx_memberships_user_circle;not null"`

	// Circle admins can update the circle's data and manage its members.
	IsAdmin bool `json:"is_admin" gorm:"default:false"`

	// Invitation quota. RemainingInvitations only decreases, through
	// redemption; UsedInvitations only increases.
	RemainingInvitations uint `json:"remaining_invitations" gorm:"default:0"`
	UsedInvitations      uint `json:"used_invitations" gorm:"default:0"`

	// InvitedBy is a weak reference to the inviting user; nulled when the
	// inviter account is deleted, never cascaded.
	InvitedBy *uint `json:"invited_by,omitempty" gorm:"index"`

	// Stats
	RidesTaken   uint `json:"rides_taken" gorm:"default:0"`
	RidesOffered uint `json:"rides_offered" gorm:"default:0"`

	// Only active members are allowed to interact in the circle.
	Active bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	User    User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Circle  Circle `json:"circle,omitempty" gorm:"foreignKey:CircleID"`
	Inviter *User  `json:"inviter,omitempty" gorm:"foreignKey:InvitedBy;constraint:OnDelete:SET NULL"`
}
