package db

import "time"

// ContactMessage keeps a local copy of contact-form submissions so a
// failed email delivery never loses the inquiry.
type ContactMessage struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"not null"`
	Company   string
	Message   string
	EmailID   string
	CreatedAt time.Time
}
