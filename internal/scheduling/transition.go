package scheduling

import (
	"context"
	"fmt"

	"appointment-service/internal/models"
)

const (
	ReasonStatusUpdated = "Status updated"
	ReasonCancelled     = "Appointment cancelled"
	ReasonConfirmed     = "Appointment confirmed"
	ReasonCompleted     = "Appointment completed"
	ReasonRescheduled   = "Appointment rescheduled"
)

// TransitionRequest changes an appointment's status and optionally its time window.
type TransitionRequest struct {
	AppointmentID string
	Status        models.AppointmentStatus
	Reason        string
	ChangedBy     *string
	StartTime     string
	EndTime       string
}

// Transition is the outcome of a status change.
type Transition struct {
	Appointment *models.Appointment
	OldStatus   models.AppointmentStatus
	History     *models.AppointmentHistory
}

// Transitioner mutates appointment status and appends the matching history row.
type Transitioner struct {
	Availability        AvailabilityResolver
	RequireAvailability bool
	// EnforceTransitions rejects edges missing from the status table with ErrInvalidTransition.
	EnforceTransitions bool
}

func (t *Transitioner) Transition(ctx context.Context, uow UnitOfWork, req TransitionRequest) (*Transition, error) {
	if !req.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, req.Status)
	}
	window, hasWindow, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	apt, err := uow.FindAppointment(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	oldStatus := apt.Status

	if t.EnforceTransitions && !oldStatus.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldStatus, req.Status)
	}

	// An appointment that holds, or starts holding, doctor time must still fit.
	reactivated := req.Status.IsActive() && !oldStatus.IsActive()
	if req.Status.IsActive() && (hasWindow || reactivated) {
		if reactivated {
			taken, err := uow.PatientHasActiveAppointment(ctx, apt.PatientID, apt.AppointmentDate, apt.ID)
			if err != nil {
				return nil, fmt.Errorf("checking patient appointments: %w", err)
			}
			if taken {
				return nil, PatientDateConflict()
			}
		}
		target, checkable := window, hasWindow
		if !hasWindow && apt.HasWindow() {
			if iv, err := ParseInterval(apt.StartTime, apt.EndTime); err == nil {
				target, checkable = iv, true
			}
		}
		if checkable {
			if err := checkWindow(ctx, uow, t.resolver(), apt.DoctorID, apt.AppointmentDate, target, apt.ID, t.RequireAvailability); err != nil {
				return nil, err
			}
		}
	}

	apt.Status = req.Status
	if hasWindow {
		apt.StartTime = window.StartString()
		apt.EndTime = window.EndString()
	}
	if err := uow.SaveAppointment(ctx, apt); err != nil {
		return nil, fmt.Errorf("saving appointment: %w", err)
	}

	reason := req.Reason
	if reason == "" {
		reason = ReasonStatusUpdated
	}
	entry := &models.AppointmentHistory{
		AppointmentID: apt.ID,
		OldStatus:     oldStatus,
		NewStatus:     req.Status,
		ChangeReason:  reason,
		ChangedBy:     req.ChangedBy,
	}
	if err := uow.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording appointment history: %w", err)
	}

	return &Transition{Appointment: apt, OldStatus: oldStatus, History: entry}, nil
}

func (t *Transitioner) resolver() AvailabilityResolver {
	if t.Availability == nil {
		return noAvailability{}
	}
	return t.Availability
}
