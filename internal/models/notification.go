package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification is a message addressed to a doctor or patient about one of their appointments
type Notification struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string    `gorm:"size:36;not null;index" json:"userId"`
	Title         string    `gorm:"size:255;not null" json:"title"`
	Message       string    `gorm:"type:text;not null" json:"message"`
	IsRead        bool      `gorm:"default:false" json:"isRead"`
	AppointmentID *string   `gorm:"size:36;index" json:"appointmentId,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
