package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled   AppointmentStatus = "scheduled"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// ActiveStatuses are the statuses that hold a doctor's time and a patient's date.
var ActiveStatuses = []AppointmentStatus{StatusScheduled, StatusConfirmed}

// State transitions:
//
//	scheduled → confirmed → completed
//	scheduled | confirmed → confirmed | cancelled | completed | rescheduled
//	completed, cancelled, rescheduled are terminal
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusScheduled:   {StatusConfirmed, StatusCancelled, StatusCompleted, StatusRescheduled},
	StatusConfirmed:   {StatusConfirmed, StatusCancelled, StatusCompleted, StatusRescheduled},
	StatusCompleted:   {},
	StatusCancelled:   {},
	StatusRescheduled: {},
}

func (s AppointmentStatus) IsValid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// IsActive reports whether the status blocks new bookings.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

func (s AppointmentStatus) IsTerminal() bool {
	return s.IsValid() && len(allowedTransitions[s]) == 0
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment represents a booked slot between a doctor and a patient
type Appointment struct {
	BaseModel
	DoctorID        string            `gorm:"size:36;not null;index:idx_appointments_doctor_day,priority:1" json:"doctorId"`
	PatientID       string            `gorm:"size:36;not null;index:idx_appointments_patient_day,priority:1" json:"patientId"`
	AppointmentDate Date              `gorm:"not null;index:idx_appointments_doctor_day,priority:2;index:idx_appointments_patient_day,priority:2" json:"appointmentDate"`
	StartTime       string            `gorm:"size:5" json:"startTime"`
	EndTime         string            `gorm:"size:5" json:"endTime"`
	Status          AppointmentStatus `gorm:"size:20;not null;default:'scheduled';index:idx_appointments_doctor_day,priority:3;index:idx_appointments_patient_day,priority:3" json:"status"`
}

// HasWindow reports whether the appointment carries a specific time window.
func (a *Appointment) HasWindow() bool {
	return a.StartTime != "" && a.EndTime != ""
}

// AppointmentHistory is an append-only audit entry for an appointment status change
type AppointmentHistory struct {
	ID            uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	AppointmentID string            `gorm:"size:36;not null;index" json:"appointmentId"`
	OldStatus     AppointmentStatus `gorm:"size:20;not null" json:"oldStatus"`
	NewStatus     AppointmentStatus `gorm:"size:20;not null" json:"newStatus"`
	ChangeReason  string            `gorm:"type:text" json:"changeReason"`
	ChangedBy     *string           `gorm:"size:36" json:"changedBy,omitempty"`
	ChangedAt     time.Time         `gorm:"autoCreateTime;index" json:"changedAt"`
}

func (AppointmentHistory) TableName() string {
	return "appointment_history"
}
