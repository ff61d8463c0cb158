package scheduling_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"appointment-service/internal/models"
	"appointment-service/internal/scheduling"
	"appointment-service/internal/store"
)

// 2026-11-02 is a Monday.
const monday = "2026-11-02"

type fakeAvailability map[string][]models.AvailabilitySlot

func (f fakeAvailability) Availability(_ context.Context, doctorID string, day time.Weekday) ([]models.AvailabilitySlot, error) {
	var out []models.AvailabilitySlot
	for _, s := range f[doctorID] {
		if s.DayOfWeek == models.DayOfWeekFrom(day) {
			out = append(out, s)
		}
	}
	return out, nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, userID, title, message string, appointmentID *string) error {
	args := m.Called(ctx, userID, title, message, appointmentID)
	return args.Error(0)
}

type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) Emit(ctx context.Context, name string, payload any) error {
	args := m.Called(ctx, name, payload)
	return args.Error(0)
}

func weekdaySlots(doctorID string) fakeAvailability {
	return fakeAvailability{
		doctorID: {
			{DoctorID: doctorID, DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "12:00"},
			{DoctorID: doctorID, DayOfWeek: models.Monday, StartTime: "14:00", EndTime: "17:00"},
		},
	}
}

func date(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newService(t *testing.T, st scheduling.Store, avail scheduling.AvailabilityResolver) *scheduling.Service {
	t.Helper()
	return scheduling.NewService(st, nil, scheduling.Options{
		Availability:        avail,
		EnforceTransitions:  true,
		RequireAvailability: true,
	})
}

func book(doctor, patient, day, start, end string) scheduling.BookRequest {
	d, _ := models.ParseDate(day)
	return scheduling.BookRequest{DoctorID: doctor, PatientID: patient, Date: d, StartTime: start, EndTime: end}
}

func TestBookAppointment_CreatesAppointmentAndHistory(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newService(t, st, weekdaySlots("doc-1"))
	ctx := context.Background()

	apt, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, apt.ID)
	assert.Equal(t, models.StatusScheduled, apt.Status)

	history, err := svc.GetAppointmentHistory(ctx, apt.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusScheduled, history[0].OldStatus)
	assert.Equal(t, models.StatusScheduled, history[0].NewStatus)
	assert.Equal(t, "Appointment created", history[0].ChangeReason)
	assert.Nil(t, history[0].ChangedBy)
}

func TestBookAppointment_ExplicitStatus(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	req := book("doc-1", "pat-1", monday, "09:00", "10:00")
	req.Status = models.StatusConfirmed

	apt, err := svc.BookAppointment(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, apt.Status)

	history, err := svc.GetAppointmentHistory(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, history[0].OldStatus)

	req.Status = "pending"
	_, err = svc.BookAppointment(context.Background(), req)
	assert.ErrorIs(t, err, scheduling.ErrInvalidStatus)
}

func TestBookAppointment_PatientSameDate(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	_, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "14:00", "15:00"))
	require.ErrorIs(t, err, scheduling.ErrConflict)
	assert.EqualError(t, err, "You already have an appointment on this date.")

	// A different doctor does not lift the per-date rule.
	_, err = svc.BookAppointment(ctx, book("doc-2", "pat-1", monday, "", ""))
	assert.ErrorIs(t, err, scheduling.ErrConflict)
}

func TestBookAppointment_OutsideAvailability(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))

	_, err := svc.BookAppointment(context.Background(), book("doc-1", "pat-1", monday, "12:30", "13:30"))
	var conflict *scheduling.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, scheduling.ConflictOutsideHours, conflict.Kind)
	assert.Equal(t, "The selected time is outside the doctor's available hours on Monday.", conflict.Message)
}

func TestBookAppointment_DoubleBooking(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	_, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.BookAppointment(ctx, book("doc-1", "pat-2", monday, "09:30", "10:30"))
	var conflict *scheduling.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, scheduling.ConflictDoubleBooked, conflict.Kind)

	_, err = svc.BookAppointment(ctx, book("doc-1", "pat-3", monday, "10:00", "11:00"))
	assert.NoError(t, err)
}

func TestBookAppointment_NoAvailabilityThatDay(t *testing.T) {
	ctx := context.Background()
	tuesday := "2026-11-03"

	strict := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	_, err := strict.BookAppointment(ctx, book("doc-1", "pat-1", tuesday, "09:00", "10:00"))
	var conflict *scheduling.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, scheduling.ConflictUnavailableDay, conflict.Kind)

	// An appointment without a window skips hour validation entirely.
	_, err = strict.BookAppointment(ctx, book("doc-1", "pat-1", tuesday, "", ""))
	assert.NoError(t, err)

	permissive := scheduling.NewService(store.NewMemoryStore(), nil, scheduling.Options{Availability: weekdaySlots("doc-1")})
	_, err = permissive.BookAppointment(ctx, book("doc-1", "pat-1", tuesday, "09:00", "10:00"))
	require.NoError(t, err)
	_, err = permissive.BookAppointment(ctx, book("doc-1", "pat-2", tuesday, "09:30", "10:30"))
	assert.ErrorIs(t, err, scheduling.ErrConflict, "overlap is always checked")
}

func TestBookAppointment_InvalidTimes(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	for _, tc := range [][2]string{{"9am", "10:00"}, {"09:00", "25:00"}, {"10:00", "09:00"}, {"09:00", ""}} {
		_, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, tc[0], tc[1]))
		assert.ErrorIs(t, err, scheduling.ErrInvalidTimeFormat, "%v", tc)
	}

	list, err := svc.GetAppointmentsByPatient(ctx, "pat-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

type failingHistoryStore struct {
	*store.MemoryStore
}

func (s failingHistoryStore) InTx(ctx context.Context, fn func(uow scheduling.UnitOfWork) error) error {
	return s.MemoryStore.InTx(ctx, func(uow scheduling.UnitOfWork) error {
		return fn(failingHistoryUnit{uow})
	})
}

type failingHistoryUnit struct {
	scheduling.UnitOfWork
}

func (failingHistoryUnit) AppendHistory(context.Context, *models.AppointmentHistory) error {
	return errors.New("disk full")
}

func TestBookAppointment_RollsBackWhenHistoryFails(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newService(t, failingHistoryStore{mem}, weekdaySlots("doc-1"))
	ctx := context.Background()

	_, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.Error(t, err)

	list, err := mem.PatientAppointments(ctx, "pat-1")
	require.NoError(t, err)
	assert.Empty(t, list, "no appointment may exist without its history")
}

func TestBookAppointment_ConcurrentRace(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			patient := "pat-" + string(rune('a'+i))
			_, err := svc.BookAppointment(ctx, book("doc-1", patient, monday, "09:00", "10:00"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, scheduling.ErrConflict) {
				conflicts++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, racers-1, conflicts)
}

func TestBookAppointment_NotifiesAfterCommit(t *testing.T) {
	notifier := new(mockNotifier)
	emitter := new(mockEmitter)
	notifier.On("Notify", mock.Anything, mock.Anything, "Appointment booked", mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	emitter.On("Emit", mock.Anything, scheduling.EventAppointmentCreated, mock.AnythingOfType("scheduling.AppointmentCreatedEvent")).Return(nil)

	svc := scheduling.NewService(store.NewMemoryStore(), nil, scheduling.Options{
		Availability:        weekdaySlots("doc-1"),
		Notifier:            notifier,
		Emitter:             emitter,
		RequireAvailability: true,
	})

	apt, err := svc.BookAppointment(context.Background(), book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err, "notification failures never fail the booking")

	notifier.AssertCalled(t, "Notify", mock.Anything, "pat-1", "Appointment booked", mock.Anything, mock.Anything)
	notifier.AssertCalled(t, "Notify", mock.Anything, "doc-1", "Appointment booked", mock.Anything, mock.Anything)
	emitter.AssertExpectations(t)

	stored, err := svc.GetAppointmentsByPatient(context.Background(), "pat-1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, apt.ID, stored[0].ID)
}

func TestBookAppointment_RejectedDoesNotNotify(t *testing.T) {
	notifier := new(mockNotifier)
	emitter := new(mockEmitter)
	svc := scheduling.NewService(store.NewMemoryStore(), nil, scheduling.Options{
		Availability:        weekdaySlots("doc-1"),
		Notifier:            notifier,
		Emitter:             emitter,
		RequireAvailability: true,
	})

	_, err := svc.BookAppointment(context.Background(), book("doc-1", "pat-1", monday, "07:00", "08:00"))
	require.Error(t, err)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	emitter.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateAppointmentStatus_AppendsHistory(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()
	actor := "doc-1"

	apt, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, apt.ID, &actor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	completed, err := svc.Complete(ctx, apt.ID, "Follow up in two weeks", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)

	history, err := svc.GetAppointmentHistory(ctx, apt.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, models.StatusConfirmed, history[0].OldStatus)
	assert.Equal(t, models.StatusCompleted, history[0].NewStatus)
	assert.Equal(t, "Follow up in two weeks", history[0].ChangeReason)

	assert.Equal(t, models.StatusScheduled, history[1].OldStatus)
	assert.Equal(t, models.StatusConfirmed, history[1].NewStatus)
	assert.Equal(t, "Appointment confirmed", history[1].ChangeReason)
	require.NotNil(t, history[1].ChangedBy)
	assert.Equal(t, "doc-1", *history[1].ChangedBy)

	again, err := svc.GetAppointmentHistory(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, history, again)
}

func TestUpdateAppointmentStatus_DefaultReason(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	apt, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "", ""))
	require.NoError(t, err)

	_, err = svc.UpdateAppointmentStatus(ctx, scheduling.TransitionRequest{AppointmentID: apt.ID, Status: models.StatusConfirmed})
	require.NoError(t, err)

	history, err := svc.GetAppointmentHistory(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Status updated", history[0].ChangeReason)
}

func TestUpdateAppointmentStatus_NotFound(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	_, err := svc.Cancel(ctx, "missing", "", nil)
	assert.ErrorIs(t, err, scheduling.ErrNotFound)

	history, err := svc.GetAppointmentHistory(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestUpdateAppointmentStatus_EnforcedTransitions(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	apt, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, apt.ID, "Patient called in sick", nil)
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, apt.ID, nil)
	assert.ErrorIs(t, err, scheduling.ErrInvalidTransition)

	history, err := svc.GetAppointmentHistory(ctx, apt.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	assert.Equal(t, "Patient called in sick", history[0].ChangeReason)
}

func TestUpdateAppointmentStatus_PermissiveReactivationIsChecked(t *testing.T) {
	svc := scheduling.NewService(store.NewMemoryStore(), nil, scheduling.Options{
		Availability:        weekdaySlots("doc-1"),
		RequireAvailability: true,
	})
	ctx := context.Background()

	first, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, first.ID, "", nil)
	require.NoError(t, err)
	_, err = svc.BookAppointment(ctx, book("doc-1", "pat-2", monday, "09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.UpdateAppointmentStatus(ctx, scheduling.TransitionRequest{AppointmentID: first.ID, Status: models.StatusScheduled})
	assert.ErrorIs(t, err, scheduling.ErrConflict)
}

func TestReschedule(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	apt, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)

	_, err = svc.Reschedule(ctx, apt.ID, "11:00", "", "", nil)
	assert.ErrorIs(t, err, scheduling.ErrInvalidTimeFormat)

	moved, err := svc.Reschedule(ctx, apt.ID, "14:00", "15:00", "", nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRescheduled, moved.Status)
	assert.Equal(t, "14:00", moved.StartTime)
	assert.Equal(t, "15:00", moved.EndTime)

	history, err := svc.GetAppointmentHistory(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Appointment rescheduled", history[0].ChangeReason)
	assert.Equal(t, models.StatusScheduled, history[0].OldStatus)

	// A rescheduled appointment no longer holds the patient's date.
	_, err = svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	assert.NoError(t, err)
}

func TestUpdateAppointmentStatus_MoveWindowIsChecked(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	a, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.BookAppointment(ctx, book("doc-1", "pat-2", monday, "10:00", "11:00"))
	require.NoError(t, err)

	_, err = svc.UpdateAppointmentStatus(ctx, scheduling.TransitionRequest{
		AppointmentID: a.ID, Status: models.StatusConfirmed, StartTime: "10:30", EndTime: "11:30",
	})
	assert.ErrorIs(t, err, scheduling.ErrConflict)

	moved, err := svc.UpdateAppointmentStatus(ctx, scheduling.TransitionRequest{
		AppointmentID: a.ID, Status: models.StatusConfirmed, StartTime: "09:30", EndTime: "10:00",
	})
	require.NoError(t, err, "overlapping its own previous window is allowed")
	assert.Equal(t, "09:30", moved.StartTime)
}

func TestUpdateAppointmentStatus_EmitsStatusChanged(t *testing.T) {
	emitter := new(mockEmitter)
	emitter.On("Emit", mock.Anything, scheduling.EventAppointmentCreated, mock.Anything).Return(nil)
	emitter.On("Emit", mock.Anything, scheduling.EventAppointmentStatusChanged, mock.MatchedBy(func(e scheduling.StatusChangedEvent) bool {
		return e.OldStatus == models.StatusScheduled && e.NewStatus == models.StatusCancelled && e.Reason == "Appointment cancelled"
	})).Return(nil)

	svc := scheduling.NewService(store.NewMemoryStore(), nil, scheduling.Options{
		Availability: weekdaySlots("doc-1"),
		Emitter:      emitter,
	})
	ctx := context.Background()
	apt, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "09:00", "10:00"))
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, apt.ID, "", nil)
	require.NoError(t, err)

	emitter.AssertExpectations(t)
}

func TestGetDoctorAvailability(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), fakeAvailability{
		"doc-1": {{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "09:00", EndTime: "12:00"},
			{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "14:00", EndTime: "17:00"}},
	})
	ctx := context.Background()

	_, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "10:00", "10:30"))
	require.NoError(t, err)

	day, err := svc.GetDoctorAvailability(ctx, "doc-1", date(t, monday))
	require.NoError(t, err)
	assert.True(t, day.Available)
	assert.Equal(t, models.Monday, day.DayOfWeek)
	assert.Equal(t, monday, day.Date)
	require.Len(t, day.Slots, 3)

	assert.Equal(t, scheduling.SlotAvailability{StartTime: "09:00", EndTime: "10:00", Available: true, BookedAppointments: 1}, day.Slots[0])
	assert.Equal(t, scheduling.SlotAvailability{StartTime: "10:30", EndTime: "12:00", Available: true, BookedAppointments: 1}, day.Slots[1])
	assert.Equal(t, scheduling.SlotAvailability{StartTime: "14:00", EndTime: "17:00", Available: true}, day.Slots[2])
}

func TestGetDoctorAvailability_NoSlots(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), fakeAvailability{})

	day, err := svc.GetDoctorAvailability(context.Background(), "doc-1", date(t, monday))
	require.NoError(t, err)
	assert.False(t, day.Available)
	assert.Equal(t, "Doctor is not available on Monday", day.Message)
	assert.Empty(t, day.Slots)
}

func TestGetUpcomingAppointments(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), nil)
	ctx := context.Background()

	today := models.Today(time.UTC)
	past := models.NewDate(today.AddDate(0, 0, -3))
	soon := models.NewDate(today.AddDate(0, 0, 2))
	later := models.NewDate(today.AddDate(0, 0, 9))

	for i, d := range []models.Date{later, past, soon} {
		_, err := svc.BookAppointment(ctx, scheduling.BookRequest{DoctorID: "doc-1", PatientID: "pat-" + string(rune('a'+i)), Date: d})
		require.NoError(t, err)
	}
	cancelled, err := svc.BookAppointment(ctx, scheduling.BookRequest{DoctorID: "doc-1", PatientID: "pat-z", Date: soon})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cancelled.ID, "", nil)
	require.NoError(t, err)

	upcoming, err := svc.GetUpcomingAppointments(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.True(t, upcoming[0].AppointmentDate.Equal(soon))
	assert.True(t, upcoming[1].AppointmentDate.Equal(later))
}

func TestAppointmentCounts(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), nil)
	ctx := context.Background()
	today := models.Today(time.UTC)
	day := func(offset int) models.Date { return models.NewDate(today.AddDate(0, 0, offset)) }

	_, err := svc.BookAppointment(ctx, scheduling.BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: day(1)})
	require.NoError(t, err)

	done, err := svc.BookAppointment(ctx, scheduling.BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: day(-5)})
	require.NoError(t, err)
	_, err = svc.Complete(ctx, done.ID, "", nil)
	require.NoError(t, err)

	cancelled, err := svc.BookAppointment(ctx, scheduling.BookRequest{DoctorID: "doc-1", PatientID: "pat-1", Date: day(3)})
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cancelled.ID, "", nil)
	require.NoError(t, err)

	moved, err := svc.BookAppointment(ctx, scheduling.BookRequest{DoctorID: "doc-1", PatientID: "pat-2", Date: day(4)})
	require.NoError(t, err)
	_, err = svc.UpdateAppointmentStatus(ctx, scheduling.TransitionRequest{AppointmentID: moved.ID, Status: models.StatusRescheduled})
	require.NoError(t, err)

	patient, err := svc.GetAppointmentCounts(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, scheduling.AppointmentCounts{Total: 3, Upcoming: 1, Completed: 1, Cancelled: 1}, *patient)

	doctor, err := svc.GetDoctorAppointmentCounts(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, scheduling.AppointmentCounts{Total: 4, Upcoming: 1, Completed: 1, Cancelled: 2}, *doctor)
}

func TestBookAppointment_StoresZeroPaddedTimes(t *testing.T) {
	svc := newService(t, store.NewMemoryStore(), weekdaySlots("doc-1"))
	ctx := context.Background()

	_, err := svc.BookAppointment(ctx, book("doc-1", "pat-1", monday, "10:00", "11:00"))
	require.NoError(t, err)
	early, err := svc.BookAppointment(ctx, book("doc-1", "pat-2", monday, "9:00", "9:30"))
	require.NoError(t, err)
	assert.Equal(t, "09:00", early.StartTime)
	assert.Equal(t, "09:30", early.EndTime)

	upcoming, err := svc.GetUpcomingAppointments(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "09:00", upcoming[0].StartTime)
	assert.Equal(t, "10:00", upcoming[1].StartTime)

	moved, err := svc.UpdateAppointmentStatus(ctx, scheduling.TransitionRequest{
		AppointmentID: early.ID, Status: models.StatusConfirmed, StartTime: "11:0", EndTime: "11:45",
	})
	require.NoError(t, err)
	assert.Equal(t, "11:00", moved.StartTime)
	assert.Equal(t, "11:45", moved.EndTime)
}

func TestGetDoctorAvailability_ZeroPadsWholeSlots(t *testing.T) {
	avail := fakeAvailability{
		"doc-1": {{DoctorID: "doc-1", DayOfWeek: models.Monday, StartTime: "8:00", EndTime: "9:30"}},
	}
	svc := newService(t, store.NewMemoryStore(), avail)

	got, err := svc.GetDoctorAvailability(context.Background(), "doc-1", date(t, monday))
	require.NoError(t, err)
	require.Len(t, got.Slots, 1)
	assert.Equal(t, "08:00", got.Slots[0].StartTime)
	assert.Equal(t, "09:30", got.Slots[0].EndTime)
	assert.Zero(t, got.Slots[0].BookedAppointments)
}
