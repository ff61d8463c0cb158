package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"appointment-service/internal/models"
)

const (
	EventAppointmentCreated       = "appointment.created"
	EventAppointmentStatusChanged = "appointment.status.changed"
)

// AppointmentCreatedEvent is emitted after a booking commits.
type AppointmentCreatedEvent struct {
	Appointment models.Appointment `json:"appointment"`
}

// StatusChangedEvent is emitted after a status transition commits.
type StatusChangedEvent struct {
	Appointment models.Appointment       `json:"appointment"`
	OldStatus   models.AppointmentStatus `json:"oldStatus"`
	NewStatus   models.AppointmentStatus `json:"newStatus"`
	Reason      string                   `json:"reason"`
	ChangedBy   *string                  `json:"changedBy,omitempty"`
}

// SlotAvailability is one free window reported for a doctor's day. Times are
// zero-padded "HH:mm". BookedAppointments counts the active bookings that
// overlap the declared slot the window was carved from; it is 0 for a slot
// reported whole.
type SlotAvailability struct {
	StartTime          string `json:"startTime"`
	EndTime            string `json:"endTime"`
	Available          bool   `json:"available"`
	BookedAppointments int    `json:"bookedAppointments"`
}

// DayAvailability answers a doctor availability query for one date.
type DayAvailability struct {
	Available bool               `json:"available"`
	Date      string             `json:"date"`
	DayOfWeek models.DayOfWeek   `json:"dayOfWeek"`
	Message   string             `json:"message,omitempty"`
	Slots     []SlotAvailability `json:"slots"`
}

// AppointmentCounts summarises appointments for one doctor or patient.
type AppointmentCounts struct {
	Total     int64 `json:"total"`
	Upcoming  int64 `json:"upcoming"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

// Options configures a Service. Nil collaborators fall back to no-ops.
type Options struct {
	Availability        AvailabilityResolver
	Notifier            Notifier
	Emitter             Emitter
	Recorder            Recorder
	EnforceTransitions  bool
	RequireAvailability bool
	Location            *time.Location
}

// Service exposes the scheduling operations. Every write runs inside one
// Store.InTx; notifications and events are sent only after commit.
type Service struct {
	store        Store
	booker       *Booker
	transitioner *Transitioner
	availability AvailabilityResolver
	notifier     Notifier
	emitter      Emitter
	recorder     Recorder
	loc          *time.Location
	log          *zap.Logger
	now          func() time.Time
}

// NewService builds a Service over store. Nil collaborators in opts fall back
// to no-ops, so a zero Options works for tests.
func NewService(store Store, log *zap.Logger, opts Options) *Service {
	s := &Service{
		store:        store,
		availability: opts.Availability,
		notifier:     opts.Notifier,
		emitter:      opts.Emitter,
		recorder:     opts.Recorder,
		loc:          opts.Location,
		log:          log,
		now:          time.Now,
	}
	if s.availability == nil {
		s.availability = noAvailability{}
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.emitter == nil {
		s.emitter = noopEmitter{}
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	s.booker = &Booker{Availability: s.availability, RequireAvailability: opts.RequireAvailability}
	s.transitioner = &Transitioner{
		Availability:        s.availability,
		RequireAvailability: opts.RequireAvailability,
		EnforceTransitions:  opts.EnforceTransitions,
	}
	return s
}

func (s *Service) today() models.Date {
	return models.NewDate(s.now().In(s.loc))
}

// BookAppointment books req atomically and notifies both parties after commit.
func (s *Service) BookAppointment(ctx context.Context, req BookRequest) (*models.Appointment, error) {
	var apt *models.Appointment
	err := s.store.InTx(ctx, func(uow UnitOfWork) error {
		var err error
		apt, err = s.booker.Book(ctx, uow, req)
		return err
	})
	if err != nil {
		s.recorder.BookingAttempt(bookingOutcome(err))
		s.log.Info("booking rejected",
			zap.String("doctor_id", req.DoctorID),
			zap.String("patient_id", req.PatientID),
			zap.String("date", req.Date.String()),
			zap.Error(err),
		)
		return nil, err
	}
	s.recorder.BookingAttempt("booked")
	s.log.Info("appointment booked",
		zap.String("appointment_id", apt.ID),
		zap.String("doctor_id", apt.DoctorID),
		zap.String("patient_id", apt.PatientID),
		zap.String("date", apt.AppointmentDate.String()),
	)

	s.afterCommit(ctx, EventAppointmentCreated, AppointmentCreatedEvent{Appointment: *apt}, apt,
		"Appointment booked", bookedMessage(apt))
	return apt, nil
}

// UpdateAppointmentStatus applies req atomically and notifies both parties after commit.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, req TransitionRequest) (*models.Appointment, error) {
	var result *Transition
	err := s.store.InTx(ctx, func(uow UnitOfWork) error {
		var err error
		result, err = s.transitioner.Transition(ctx, uow, req)
		return err
	})
	if err != nil {
		s.log.Info("status transition rejected",
			zap.String("appointment_id", req.AppointmentID),
			zap.String("status", string(req.Status)),
			zap.Error(err),
		)
		return nil, err
	}
	apt := result.Appointment
	s.recorder.StatusTransition(result.OldStatus, apt.Status)
	s.log.Info("appointment status changed",
		zap.String("appointment_id", apt.ID),
		zap.String("old_status", string(result.OldStatus)),
		zap.String("new_status", string(apt.Status)),
	)

	event := StatusChangedEvent{
		Appointment: *apt,
		OldStatus:   result.OldStatus,
		NewStatus:   apt.Status,
		Reason:      result.History.ChangeReason,
		ChangedBy:   result.History.ChangedBy,
	}
	s.afterCommit(ctx, EventAppointmentStatusChanged, event, apt,
		"Appointment "+string(apt.Status), statusMessage(apt, result.History.ChangeReason))
	return apt, nil
}

// Cancel moves an appointment to cancelled.
func (s *Service) Cancel(ctx context.Context, id, reason string, by *string) (*models.Appointment, error) {
	if reason == "" {
		reason = ReasonCancelled
	}
	return s.UpdateAppointmentStatus(ctx, TransitionRequest{
		AppointmentID: id, Status: models.StatusCancelled, Reason: reason, ChangedBy: by,
	})
}

// Confirm moves an appointment to confirmed.
func (s *Service) Confirm(ctx context.Context, id string, by *string) (*models.Appointment, error) {
	return s.UpdateAppointmentStatus(ctx, TransitionRequest{
		AppointmentID: id, Status: models.StatusConfirmed, Reason: ReasonConfirmed, ChangedBy: by,
	})
}

// Complete marks the appointment completed. Non-empty notes become the history reason.
func (s *Service) Complete(ctx context.Context, id, notes string, by *string) (*models.Appointment, error) {
	if notes == "" {
		notes = ReasonCompleted
	}
	return s.UpdateAppointmentStatus(ctx, TransitionRequest{
		AppointmentID: id, Status: models.StatusCompleted, Reason: notes, ChangedBy: by,
	})
}

// Reschedule moves the appointment to a new window and marks it rescheduled.
func (s *Service) Reschedule(ctx context.Context, id, start, end, reason string, by *string) (*models.Appointment, error) {
	if start == "" || end == "" {
		return nil, fmt.Errorf("%w: reschedule requires both start and end time", ErrInvalidTimeFormat)
	}
	if reason == "" {
		reason = ReasonRescheduled
	}
	return s.UpdateAppointmentStatus(ctx, TransitionRequest{
		AppointmentID: id,
		Status:        models.StatusRescheduled,
		Reason:        reason,
		ChangedBy:     by,
		StartTime:     start,
		EndTime:       end,
	})
}

// GetUpcomingAppointments lists the doctor's active appointments from today on, by date.
func (s *Service) GetUpcomingAppointments(ctx context.Context, doctorID string) ([]models.Appointment, error) {
	return s.store.UpcomingDoctorAppointments(ctx, doctorID, s.today())
}

// GetAppointmentsByPatient lists every appointment of a patient by date and start time.
func (s *Service) GetAppointmentsByPatient(ctx context.Context, patientID string) ([]models.Appointment, error) {
	return s.store.PatientAppointments(ctx, patientID)
}

// GetAppointmentHistory returns the audit trail newest first.
func (s *Service) GetAppointmentHistory(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error) {
	return s.store.AppointmentHistory(ctx, appointmentID)
}

// GetDoctorAvailability reports the free windows left in each of the doctor's
// slots on date. A slot without bookings is reported whole.
func (s *Service) GetDoctorAvailability(ctx context.Context, doctorID string, date models.Date) (*DayAvailability, error) {
	day := models.DayOfWeekFrom(date.Weekday())
	slots, err := s.availability.Availability(ctx, doctorID, date.Weekday())
	if err != nil {
		return nil, fmt.Errorf("resolving doctor availability: %w", err)
	}
	if len(slots) == 0 {
		return &DayAvailability{
			Available: false,
			Date:      date.String(),
			DayOfWeek: day,
			Message:   fmt.Sprintf("Doctor is not available on %s", day),
			Slots:     []SlotAvailability{},
		}, nil
	}

	appointments, err := s.store.ActiveDoctorAppointments(ctx, doctorID, date)
	if err != nil {
		return nil, fmt.Errorf("loading doctor appointments: %w", err)
	}
	booked := make([]Interval, 0, len(appointments))
	for _, apt := range appointments {
		if !apt.HasWindow() {
			continue
		}
		iv, err := ParseInterval(apt.StartTime, apt.EndTime)
		if err != nil {
			s.log.Warn("skipping appointment with malformed window", zap.String("appointment_id", apt.ID))
			continue
		}
		booked = append(booked, iv)
	}

	out := &DayAvailability{Date: date.String(), DayOfWeek: day, Slots: []SlotAvailability{}}
	for _, slot := range slots {
		window, err := ParseInterval(slot.StartTime, slot.EndTime)
		if err != nil {
			s.log.Warn("skipping malformed availability slot",
				zap.String("doctor_id", doctorID), zap.String("start", slot.StartTime), zap.String("end", slot.EndTime))
			continue
		}
		var overlapping []Interval
		for _, b := range booked {
			if b.Overlaps(window) {
				overlapping = append(overlapping, b)
			}
		}
		if len(overlapping) == 0 {
			out.Slots = append(out.Slots, SlotAvailability{
				StartTime: window.StartString(), EndTime: window.EndString(), Available: true,
			})
			continue
		}
		for gap := range Gaps(window, overlapping) {
			out.Slots = append(out.Slots, SlotAvailability{
				StartTime:          gap.StartString(),
				EndTime:            gap.EndString(),
				Available:          true,
				BookedAppointments: len(overlapping),
			})
		}
	}
	for _, slot := range out.Slots {
		if slot.Available {
			out.Available = true
			break
		}
	}
	return out, nil
}

// GetAppointmentCounts summarises a patient's appointments. Only cancelled
// appointments count as cancelled.
func (s *Service) GetAppointmentCounts(ctx context.Context, patientID string) (*AppointmentCounts, error) {
	return s.counts(ctx, CountFilter{PatientID: patientID},
		[]models.AppointmentStatus{models.StatusCancelled})
}

// GetDoctorAppointmentCounts summarises a doctor's appointments. Rescheduled
// appointments count as cancelled.
func (s *Service) GetDoctorAppointmentCounts(ctx context.Context, doctorID string) (*AppointmentCounts, error) {
	return s.counts(ctx, CountFilter{DoctorID: doctorID},
		[]models.AppointmentStatus{models.StatusCancelled, models.StatusRescheduled})
}

func (s *Service) counts(ctx context.Context, base CountFilter, cancelled []models.AppointmentStatus) (*AppointmentCounts, error) {
	today := s.today()

	total, err := s.store.CountAppointments(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("counting appointments: %w", err)
	}

	upcomingFilter := base
	upcomingFilter.Statuses = models.ActiveStatuses
	upcomingFilter.From = &today
	upcoming, err := s.store.CountAppointments(ctx, upcomingFilter)
	if err != nil {
		return nil, fmt.Errorf("counting upcoming appointments: %w", err)
	}

	completedFilter := base
	completedFilter.Statuses = []models.AppointmentStatus{models.StatusCompleted}
	completed, err := s.store.CountAppointments(ctx, completedFilter)
	if err != nil {
		return nil, fmt.Errorf("counting completed appointments: %w", err)
	}

	cancelledFilter := base
	cancelledFilter.Statuses = cancelled
	cancelledCount, err := s.store.CountAppointments(ctx, cancelledFilter)
	if err != nil {
		return nil, fmt.Errorf("counting cancelled appointments: %w", err)
	}

	return &AppointmentCounts{
		Total:     total,
		Upcoming:  upcoming,
		Completed: completed,
		Cancelled: cancelledCount,
	}, nil
}

// afterCommit notifies both parties and emits name. Failures are logged only.
func (s *Service) afterCommit(ctx context.Context, name string, payload any, apt *models.Appointment, title, message string) {
	appointmentID := apt.ID
	for _, userID := range []string{apt.PatientID, apt.DoctorID} {
		if err := s.notifier.Notify(ctx, userID, title, message, &appointmentID); err != nil {
			s.log.Warn("failed to create notification",
				zap.String("appointment_id", apt.ID), zap.String("user_id", userID), zap.Error(err))
		}
	}
	if err := s.emitter.Emit(ctx, name, payload); err != nil {
		s.log.Warn("failed to emit event",
			zap.String("event", name), zap.String("appointment_id", apt.ID), zap.Error(err))
	}
}

func bookingOutcome(err error) string {
	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		return string(conflict.Kind)
	case errors.Is(err, ErrInvalidTimeFormat), errors.Is(err, ErrInvalidStatus):
		return "invalid"
	default:
		return "error"
	}
}

func bookedMessage(apt *models.Appointment) string {
	if apt.HasWindow() {
		return fmt.Sprintf("Appointment on %s from %s to %s has been booked.",
			apt.AppointmentDate, apt.StartTime, apt.EndTime)
	}
	return fmt.Sprintf("Appointment on %s has been booked.", apt.AppointmentDate)
}

func statusMessage(apt *models.Appointment, reason string) string {
	return fmt.Sprintf("Appointment on %s is now %s: %s", apt.AppointmentDate, apt.Status, reason)
}
