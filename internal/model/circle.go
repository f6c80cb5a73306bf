package model

import (
	"time"

	"gorm.io/gorm"
)

// Circle represents a riding community users can join.
type Circle struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"type:varchar(100);not null"`
	Slug     string `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	About    string `json:"about" gorm:"type:text"`
	IsPublic bool   `json:"is_public" gorm:"default:true"`
	Verified bool   `json:"verified" gorm:"default:false"`
	Active   bool   `json:"is_active" gorm:"default:true"`

	// Stats
	MembersCount uint `json:"members_count" gorm:"default:0"`
	RidesOffered uint `json:"rides_offered" gorm:"default:0"`
	RidesTaken   uint `json:"rides_taken" gorm:"default:0"`

	IsLimited    bool `json:"is_limited" gorm:"default:false"`
	MembersLimit uint `json:"members_limit" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
