package model

import (
	"time"

	"gorm.io/gorm"
)

// Ride is a trip offered by a circle member to other members of the
// same circle.
type Ride struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	OfferedBy uint `json:"offered_by" gorm:"index;not null"`
	CircleID  uint `json:"circle_id" gorm:"index;not null"`

	DepartureLocation string    `json:"departure_location" gorm:"type:varchar(255);not null"`
	ArrivalLocation   string    `json:"arrival_location" gorm:"type:varchar(255);not null"`
	DepartureDate     time.Time `json:"departure_date"`
	ArrivalDate       time.Time `json:"arrival_date"`

	AvailableSeats uint `json:"available_seats" gorm:"default:1"`
	Active         bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Offerer User   `json:"offerer,omitempty" gorm:"foreignKey:OfferedBy"`
	Circle  Circle `json:"circle,omitempty" gorm:"foreignKey:CircleID"`

	Passengers []RidePassenger `json:"passengers,omitempty" gorm:"foreignKey:RideID"`
}

// RidePassenger records a member joining a ride.
type RidePassenger struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RideID    uint      `json:"ride_id" gorm:"uniqueIndex:idx_ride_passengers_ride_user;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_ride_passengers_ride_user;not null"`
	CreatedAt time.Time `json:"created_at"`
}
