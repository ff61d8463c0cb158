package scheduling

import (
	"fmt"

	"appointment-service/internal/models"
)

const (
	msgPatientDate  = "You already have an appointment on this date."
	msgDoubleBooked = "Doctor is not available during this time slot. Please choose a different time."
	msgConcurrent   = "The requested time was taken by another booking. Please choose a different time."
)

// WindowCheck is a candidate time window for one doctor on one date.
type WindowCheck struct {
	Day    models.DayOfWeek
	Window Interval
	// ExcludeID skips the appointment being moved so it cannot collide with itself.
	ExcludeID string
	// RequireAvailability rejects windows on days the doctor declared no slots for.
	// When false such windows skip the containment rule but are still checked for overlap.
	RequireAvailability bool
}

// CheckDoctorWindow applies the availability containment and double-booking rules.
// existing should hold the doctor's active appointments on the same date.
// Slots and appointments with malformed times are ignored.
func CheckDoctorWindow(c WindowCheck, slots []models.AvailabilitySlot, existing []models.Appointment) error {
	if len(slots) == 0 {
		if c.RequireAvailability {
			return newConflict(ConflictUnavailableDay, fmt.Sprintf("Doctor is not available on %s.", c.Day))
		}
	} else if !withinAnySlot(c.Window, slots) {
		return newConflict(ConflictOutsideHours,
			fmt.Sprintf("The selected time is outside the doctor's available hours on %s.", c.Day))
	}

	for i := range existing {
		apt := &existing[i]
		if apt.ID == c.ExcludeID || !apt.Status.IsActive() || !apt.HasWindow() {
			continue
		}
		booked, err := ParseInterval(apt.StartTime, apt.EndTime)
		if err != nil {
			continue
		}
		if booked.Overlaps(c.Window) {
			return newConflict(ConflictDoubleBooked, msgDoubleBooked)
		}
	}
	return nil
}

func withinAnySlot(window Interval, slots []models.AvailabilitySlot) bool {
	for _, slot := range slots {
		iv, err := ParseInterval(slot.StartTime, slot.EndTime)
		if err != nil {
			continue
		}
		if iv.Contains(window) {
			return true
		}
	}
	return false
}

// PatientDateConflict is returned when the patient already holds an active appointment on the date.
func PatientDateConflict() error {
	return newConflict(ConflictPatientDate, msgPatientDate)
}

// ConcurrentConflict is returned by stores when a competing transaction won the race.
func ConcurrentConflict(cause error) error {
	return &ConflictError{Kind: ConflictConcurrent, Message: msgConcurrent, Err: cause}
}

// parseWindow validates an optional start/end pair. Both empty means no window.
func parseWindow(start, end string) (Interval, bool, error) {
	if start == "" && end == "" {
		return Interval{}, false, nil
	}
	if start == "" || end == "" {
		return Interval{}, false, fmt.Errorf("%w: both start and end time are required", ErrInvalidTimeFormat)
	}
	iv, err := ParseInterval(start, end)
	if err != nil {
		return Interval{}, false, err
	}
	return iv, true, nil
}
