package scheduling

import (
	"context"
	"time"

	"appointment-service/internal/models"
)

// UnitOfWork is a transactional session. Everything written through it
// commits or rolls back together when the enclosing Store.InTx returns.
type UnitOfWork interface {
	// FindAppointment loads an appointment for update. Returns ErrNotFound when absent.
	FindAppointment(ctx context.Context, id string) (*models.Appointment, error)
	ActiveDoctorAppointments(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error)
	PatientHasActiveAppointment(ctx context.Context, patientID string, date models.Date, excludeID string) (bool, error)
	CreateAppointment(ctx context.Context, apt *models.Appointment) error
	SaveAppointment(ctx context.Context, apt *models.Appointment) error
	AppendHistory(ctx context.Context, entry *models.AppointmentHistory) error
}

// CountFilter narrows an appointment count. Zero fields do not filter.
type CountFilter struct {
	DoctorID  string
	PatientID string
	Statuses  []models.AppointmentStatus
	From      *models.Date
}

// Store is the storage collaborator. InTx runs fn in a new unit of work that is
// committed when fn returns nil and rolled back otherwise, including on panic.
// Competing transactions that lose a serialization race surface as ErrConflict.
type Store interface {
	InTx(ctx context.Context, fn func(uow UnitOfWork) error) error

	UpcomingDoctorAppointments(ctx context.Context, doctorID string, from models.Date) ([]models.Appointment, error)
	PatientAppointments(ctx context.Context, patientID string) ([]models.Appointment, error)
	ActiveDoctorAppointments(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error)
	// AppointmentHistory returns entries newest first.
	AppointmentHistory(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error)
	CountAppointments(ctx context.Context, filter CountFilter) (int64, error)
}

// AvailabilityResolver returns a doctor's declared working slots for a weekday.
// An empty result means no availability that day.
type AvailabilityResolver interface {
	Availability(ctx context.Context, doctorID string, day time.Weekday) ([]models.AvailabilitySlot, error)
}

// Notifier delivers a user-facing notification.
type Notifier interface {
	Notify(ctx context.Context, userID, title, message string, appointmentID *string) error
}

// Emitter publishes a domain event.
type Emitter interface {
	Emit(ctx context.Context, name string, payload any) error
}

// Recorder receives scheduling metrics.
type Recorder interface {
	BookingAttempt(outcome string)
	StatusTransition(from, to models.AppointmentStatus)
}

type noAvailability struct{}

func (noAvailability) Availability(context.Context, string, time.Weekday) ([]models.AvailabilitySlot, error) {
	return nil, nil
}

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, string, *string) error { return nil }

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, string, any) error { return nil }

type noopRecorder struct{}

func (noopRecorder) BookingAttempt(string) {}
func (noopRecorder) StatusTransition(models.AppointmentStatus, models.AppointmentStatus) {}
