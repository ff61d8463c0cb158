package scheduling

import (
	"context"
	"fmt"

	"appointment-service/internal/models"
)

const ReasonCreated = "Appointment created"

// BookRequest describes a new appointment. StartTime and EndTime are either
// both empty or both "HH:mm"; they are stored zero-padded. An empty Status
// books as scheduled.
type BookRequest struct {
	DoctorID  string
	PatientID string
	Date      models.Date
	StartTime string
	EndTime   string
	Status    models.AppointmentStatus
}

// Booker creates appointments together with their first history entry.
type Booker struct {
	Availability        AvailabilityResolver
	RequireAvailability bool
}

// Book validates req against the booking rules and writes the appointment and its
// initial history row through uow. On error nothing has been written that the
// caller's transaction would keep.
func (b *Booker) Book(ctx context.Context, uow UnitOfWork, req BookRequest) (*models.Appointment, error) {
	window, hasWindow, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.StatusScheduled
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	taken, err := uow.PatientHasActiveAppointment(ctx, req.PatientID, req.Date, "")
	if err != nil {
		return nil, fmt.Errorf("checking patient appointments: %w", err)
	}
	if taken {
		return nil, PatientDateConflict()
	}

	if hasWindow {
		if err := checkWindow(ctx, uow, b.resolver(), req.DoctorID, req.Date, window, "", b.RequireAvailability); err != nil {
			return nil, err
		}
	}

	apt := &models.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		AppointmentDate: req.Date,
		Status:          status,
	}
	if hasWindow {
		apt.StartTime = window.StartString()
		apt.EndTime = window.EndString()
	}
	if err := uow.CreateAppointment(ctx, apt); err != nil {
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	entry := &models.AppointmentHistory{
		AppointmentID: apt.ID,
		OldStatus:     status,
		NewStatus:     status,
		ChangeReason:  ReasonCreated,
	}
	if err := uow.AppendHistory(ctx, entry); err != nil {
		return nil, fmt.Errorf("recording appointment history: %w", err)
	}

	return apt, nil
}

func (b *Booker) resolver() AvailabilityResolver {
	if b.Availability == nil {
		return noAvailability{}
	}
	return b.Availability
}

// checkWindow resolves the doctor's slots for the date's weekday and runs the
// containment and overlap rules against a fresh read of active appointments.
func checkWindow(
	ctx context.Context,
	uow UnitOfWork,
	resolver AvailabilityResolver,
	doctorID string,
	date models.Date,
	window Interval,
	excludeID string,
	requireAvailability bool,
) error {
	slots, err := resolver.Availability(ctx, doctorID, date.Weekday())
	if err != nil {
		return fmt.Errorf("resolving doctor availability: %w", err)
	}
	existing, err := uow.ActiveDoctorAppointments(ctx, doctorID, date)
	if err != nil {
		return fmt.Errorf("loading doctor appointments: %w", err)
	}
	return CheckDoctorWindow(WindowCheck{
		Day:                 models.DayOfWeekFrom(date.Weekday()),
		Window:              window,
		ExcludeID:           excludeID,
		RequireAvailability: requireAvailability,
	}, slots, existing)
}
