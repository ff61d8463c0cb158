package models

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek is the weekday name stored by the availability directory.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// DayOfWeekFrom converts a time.Weekday into its stored name.
func DayOfWeekFrom(w time.Weekday) DayOfWeek {
	return DayOfWeek(w.String())
}

// ParseDayOfWeek accepts a weekday name in any letter case.
func ParseDayOfWeek(s string) (DayOfWeek, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(s)) {
			return DayOfWeekFrom(d), nil
		}
	}
	return "", fmt.Errorf("invalid day of week %q", s)
}

// AvailabilitySlot is one contiguous working interval declared by a doctor for a weekday
type AvailabilitySlot struct {
	BaseModel
	DoctorID  string    `gorm:"size:36;not null;index:idx_availability_doctor_day,priority:1" json:"doctorId"`
	DayOfWeek DayOfWeek `gorm:"size:10;not null;index:idx_availability_doctor_day,priority:2" json:"dayOfWeek"`
	StartTime string    `gorm:"size:5;not null" json:"startTime"`
	EndTime   string    `gorm:"size:5;not null" json:"endTime"`
}

func (AvailabilitySlot) TableName() string {
	return "doctor_availability"
}
