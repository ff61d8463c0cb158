package availability

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"appointment-service/internal/models"
	"appointment-service/internal/scheduling"
)

// Directory reads declared working slots from the doctor_availability table.
type Directory struct {
	db *gorm.DB
}

// NewDirectory creates a new Directory.
func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// Availability returns the doctor's slots for day ordered by start time.
func (d *Directory) Availability(ctx context.Context, doctorID string, day time.Weekday) ([]models.AvailabilitySlot, error) {
	var slots []models.AvailabilitySlot
	err := d.db.WithContext(ctx).
		Where("doctor_id = ? AND day_of_week = ?", doctorID, models.DayOfWeekFrom(day)).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("querying availability for doctor %s: %w", doctorID, err)
	}
	return slots, nil
}

// Replace swaps all of a doctor's declared slots in one transaction.
func (d *Directory) Replace(ctx context.Context, doctorID string, slots []models.AvailabilitySlot) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("doctor_id = ?", doctorID).Delete(&models.AvailabilitySlot{}).Error; err != nil {
			return fmt.Errorf("clearing availability: %w", err)
		}
		if len(slots) == 0 {
			return nil
		}
		for i := range slots {
			slot, err := canonicalSlot(slots[i])
			if err != nil {
				return fmt.Errorf("availability slot %d: %w", i, err)
			}
			slot.DoctorID = doctorID
			slots[i] = slot
		}
		if err := tx.Create(&slots).Error; err != nil {
			return fmt.Errorf("inserting availability: %w", err)
		}
		return nil
	})
}

// canonicalSlot rewrites the slot bounds as zero-padded "HH:mm" so they order
// correctly as strings.
func canonicalSlot(slot models.AvailabilitySlot) (models.AvailabilitySlot, error) {
	iv, err := scheduling.ParseInterval(slot.StartTime, slot.EndTime)
	if err != nil {
		return slot, err
	}
	slot.StartTime = iv.StartString()
	slot.EndTime = iv.EndString()
	return slot, nil
}
