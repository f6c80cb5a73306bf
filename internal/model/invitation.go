package model

import "time"

// Invitation is a single-use code a member shares to let someone join
// their circle. Invitations transition from unused to used exactly once
// and are never deleted.
type Invitation struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Code     string `json:"code" gorm:"type:varchar(64);uniqueIndex;not null"`
	IssuedBy uint   `json:"issued_by" gorm:"index;not null"`
	CircleID uint   `json:"circle_id" gorm:"index;not null"`
	Used     bool   `json:"used" gorm:"default:false"`
	UsedBy   *uint  `json:"used_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Issuer User   `json:"issuer,omitempty" gorm:"foreignKey:IssuedBy"`
	Circle Circle `json:"circle,omitempty" gorm:"foreignKey:CircleID"`
}
