package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"appointment-service/internal/models"
	"appointment-service/internal/scheduling"
)

// MySQL and Postgres error codes raised when a competing transaction wins.
var (
	mysqlConflictCodes    = map[uint16]bool{1062: true, 1205: true, 1213: true}
	postgresConflictCodes = map[string]bool{"23505": true, "40001": true, "40P01": true}
)

// ParseIsolation maps a configured isolation name onto a sql.IsolationLevel.
// Levels weaker than repeatable read cannot keep the booking check and insert
// atomic and are rejected.
func ParseIsolation(name string) (sql.IsolationLevel, error) {
	switch name {
	case "", "serializable":
		return sql.LevelSerializable, nil
	case "repeatable_read":
		return sql.LevelRepeatableRead, nil
	}
	return sql.LevelDefault, fmt.Errorf("unsupported isolation level %q", name)
}

// GormStore persists appointments through gorm. Each unit of work is a
// database transaction at the configured isolation level; the booking
// check-then-insert relies on serializable isolation to stay race free.
type GormStore struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

// NewGormStore returns a store whose transactions run at isolation.
func NewGormStore(db *gorm.DB, isolation sql.IsolationLevel) *GormStore {
	return &GormStore{db: db, isolation: isolation}
}

// InTx runs fn in one database transaction, committing when fn returns nil.
// Driver concurrency failures come back as ConflictError.
func (s *GormStore) InTx(ctx context.Context, fn func(uow scheduling.UnitOfWork) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	}, &sql.TxOptions{Isolation: s.isolation})
	return translateError(err)
}

func (s *GormStore) UpcomingDoctorAppointments(ctx context.Context, doctorID string, from models.Date) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).
		Where("doctor_id = ? AND appointment_date >= ? AND status IN ?", doctorID, from, models.ActiveStatuses).
		Order("appointment_date ASC, start_time ASC").
		Find(&out).Error
	return out, translateError(err)
}

func (s *GormStore) PatientAppointments(ctx context.Context, patientID string) ([]models.Appointment, error) {
	var out []models.Appointment
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("appointment_date ASC, start_time ASC").
		Find(&out).Error
	return out, translateError(err)
}

func (s *GormStore) ActiveDoctorAppointments(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error) {
	return activeDoctorAppointmentsQuery(s.db.WithContext(ctx), doctorID, date)
}

func (s *GormStore) AppointmentHistory(ctx context.Context, appointmentID string) ([]models.AppointmentHistory, error) {
	var out []models.AppointmentHistory
	err := s.db.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("changed_at DESC, id DESC").
		Find(&out).Error
	return out, translateError(err)
}

func (s *GormStore) CountAppointments(ctx context.Context, f scheduling.CountFilter) (int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Appointment{})
	if f.DoctorID != "" {
		query = query.Where("doctor_id = ?", f.DoctorID)
	}
	if f.PatientID != "" {
		query = query.Where("patient_id = ?", f.PatientID)
	}
	if len(f.Statuses) > 0 {
		query = query.Where("status IN ?", f.Statuses)
	}
	if f.From != nil {
		query = query.Where("appointment_date >= ?", *f.From)
	}
	var n int64
	err := query.Count(&n).Error
	return n, translateError(err)
}

type gormTx struct {
	db *gorm.DB
}

func (tx *gormTx) FindAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	var apt models.Appointment
	err := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&apt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", scheduling.ErrNotFound, id)
		}
		return nil, err
	}
	return &apt, nil
}

func (tx *gormTx) ActiveDoctorAppointments(ctx context.Context, doctorID string, date models.Date) ([]models.Appointment, error) {
	return activeDoctorAppointmentsQuery(tx.db.WithContext(ctx), doctorID, date)
}

func (tx *gormTx) PatientHasActiveAppointment(ctx context.Context, patientID string, date models.Date, excludeID string) (bool, error) {
	query := tx.db.WithContext(ctx).Model(&models.Appointment{}).
		Where("patient_id = ? AND appointment_date = ? AND status IN ?", patientID, date, models.ActiveStatuses)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (tx *gormTx) CreateAppointment(ctx context.Context, apt *models.Appointment) error {
	return tx.db.WithContext(ctx).Create(apt).Error
}

func (tx *gormTx) SaveAppointment(ctx context.Context, apt *models.Appointment) error {
	return tx.db.WithContext(ctx).Save(apt).Error
}

func (tx *gormTx) AppendHistory(ctx context.Context, entry *models.AppointmentHistory) error {
	return tx.db.WithContext(ctx).Create(entry).Error
}

func activeDoctorAppointmentsQuery(db *gorm.DB, doctorID string, date models.Date) ([]models.Appointment, error) {
	var out []models.Appointment
	err := db.
		Where("doctor_id = ? AND appointment_date = ? AND status IN ?", doctorID, date, models.ActiveStatuses).
		Order("start_time ASC").
		Find(&out).Error
	return out, translateError(err)
}

// translateError maps driver-level concurrency failures onto scheduling.ErrConflict
// and missing rows onto scheduling.ErrNotFound. Domain errors pass through.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, scheduling.ErrConflict) || errors.Is(err, scheduling.ErrNotFound) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %v", scheduling.ErrNotFound, err)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return scheduling.ConcurrentConflict(err)
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && mysqlConflictCodes[myErr.Number] {
		return scheduling.ConcurrentConflict(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && postgresConflictCodes[pgErr.Code] {
		return scheduling.ConcurrentConflict(err)
	}
	return err
}
