package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"appointment-service/internal/models"
	"appointment-service/internal/scheduling"
)

// MemoryStore keeps appointments in process. A transaction holds the store
// lock from begin to commit, so units of work are fully serialized.
type MemoryStore struct {
	mu            sync.Mutex
	appointments  map[string]models.Appointment
	history       []models.AppointmentHistory
	nextHistoryID uint
	now           func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments:  make(map[string]models.Appointment),
		nextHistoryID: 1,
		now:           time.Now,
	}
}

// InTx runs fn under the store lock. Writes become visible only if fn
// returns nil without panicking.
func (s *MemoryStore) InTx(ctx context.Context, fn func(uow scheduling.UnitOfWork) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:         s,
		appointments:  maps.Clone(s.appointments),
		nextHistoryID: s.nextHistoryID,
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transaction panicked: %v", r)
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.appointments = tx.appointments
	s.history = append(s.history, tx.history...)
	s.nextHistoryID = tx.nextHistoryID
	return nil
}

func (s *MemoryStore) UpcomingDoctorAppointments(_ context.Context, doctorID string, from models.Date) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAppointments(s.appointments, func(a models.Appointment) bool {
		return a.DoctorID == doctorID && a.Status.IsActive() && !a.AppointmentDate.Before(from)
	}), nil
}

func (s *MemoryStore) PatientAppointments(_ context.Context, patientID string) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAppointments(s.appointments, func(a models.Appointment) bool {
		return a.PatientID == patientID
	}), nil
}

func (s *MemoryStore) ActiveDoctorAppointments(_ context.Context, doctorID string, date models.Date) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return activeDoctorAppointments(s.appointments, doctorID, date), nil
}

func (s *MemoryStore) AppointmentHistory(_ context.Context, appointmentID string) ([]models.AppointmentHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.AppointmentHistory
	for _, h := range s.history {
		if h.AppointmentID == appointmentID {
			out = append(out, h)
		}
	}
	slices.SortFunc(out, func(a, b models.AppointmentHistory) int {
		if c := b.ChangedAt.Compare(a.ChangedAt); c != 0 {
			return c
		}
		return int(b.ID) - int(a.ID)
	})
	return out, nil
}

func (s *MemoryStore) CountAppointments(_ context.Context, f scheduling.CountFilter) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.appointments {
		if f.DoctorID != "" && a.DoctorID != f.DoctorID {
			continue
		}
		if f.PatientID != "" && a.PatientID != f.PatientID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
			continue
		}
		if f.From != nil && a.AppointmentDate.Before(*f.From) {
			continue
		}
		n++
	}
	return n, nil
}

type memoryTx struct {
	store         *MemoryStore
	appointments  map[string]models.Appointment
	history       []models.AppointmentHistory
	nextHistoryID uint
}

func (tx *memoryTx) FindAppointment(_ context.Context, id string) (*models.Appointment, error) {
	apt, ok := tx.appointments[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", scheduling.ErrNotFound, id)
	}
	return &apt, nil
}

func (tx *memoryTx) ActiveDoctorAppointments(_ context.Context, doctorID string, date models.Date) ([]models.Appointment, error) {
	return activeDoctorAppointments(tx.appointments, doctorID, date), nil
}

func (tx *memoryTx) PatientHasActiveAppointment(_ context.Context, patientID string, date models.Date, excludeID string) (bool, error) {
	for _, a := range tx.appointments {
		if a.ID != excludeID && a.PatientID == patientID && a.Status.IsActive() && a.AppointmentDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memoryTx) CreateAppointment(_ context.Context, apt *models.Appointment) error {
	if apt.ID == "" {
		apt.ID = uuid.New().String()
	}
	if _, exists := tx.appointments[apt.ID]; exists {
		return scheduling.ConcurrentConflict(fmt.Errorf("duplicate appointment id %s", apt.ID))
	}
	now := tx.store.now()
	apt.CreatedAt = now
	apt.UpdatedAt = now
	tx.appointments[apt.ID] = *apt
	return nil
}

func (tx *memoryTx) SaveAppointment(_ context.Context, apt *models.Appointment) error {
	if _, exists := tx.appointments[apt.ID]; !exists {
		return fmt.Errorf("%w: %s", scheduling.ErrNotFound, apt.ID)
	}
	apt.UpdatedAt = tx.store.now()
	tx.appointments[apt.ID] = *apt
	return nil
}

func (tx *memoryTx) AppendHistory(_ context.Context, entry *models.AppointmentHistory) error {
	entry.ID = tx.nextHistoryID
	tx.nextHistoryID++
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = tx.store.now()
	}
	tx.history = append(tx.history, *entry)
	return nil
}

func activeDoctorAppointments(all map[string]models.Appointment, doctorID string, date models.Date) []models.Appointment {
	return filterAppointments(all, func(a models.Appointment) bool {
		return a.DoctorID == doctorID && a.Status.IsActive() && a.AppointmentDate.Equal(date)
	})
}

// filterAppointments returns matches ordered by date, start time and creation.
func filterAppointments(all map[string]models.Appointment, keep func(models.Appointment) bool) []models.Appointment {
	out := make([]models.Appointment, 0)
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b models.Appointment) int {
		if c := strings.Compare(a.AppointmentDate.String(), b.AppointmentDate.String()); c != 0 {
			return c
		}
		if c := strings.Compare(a.StartTime, b.StartTime); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
