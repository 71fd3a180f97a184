package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Reservation struct {
	ID              uint      `gorm:"primaryKey" json:"reservation_id"`
	FirstName       string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName        string    `gorm:"type:varchar(100);not null" json:"last_name"`
	MobileNumber    string    `gorm:"type:varchar(30);not null" json:"mobile_number"`
	MobileDigits    string    `gorm:"type:varchar(30);index" json:"-"`
	ReservationDate string    `gorm:"type:varchar(10);not null;index" json:"reservation_date"`
	ReservationTime string    `gorm:"type:varchar(5);not null" json:"reservation_time"`
	People          int       `gorm:"not null" json:"people"`
	Status          string    `gorm:"type:varchar(20);not null;default:'booked'" json:"status"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

// BeforeSave keeps MobileDigits in sync so phone searches can ignore formatting.
func (r *Reservation) BeforeSave(tx *gorm.DB) error {
	r.MobileDigits = DigitsOnly(r.MobileNumber)
	return nil
}

// DigitsOnly strips everything but 0-9 from s.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, ch := range s {
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}
