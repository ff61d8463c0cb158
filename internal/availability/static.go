package availability

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"appointment-service/internal/models"
	"appointment-service/internal/scheduling"
)

// Static serves availability from memory. It is safe for concurrent reads.
type Static struct {
	slots map[string]map[models.DayOfWeek][]models.AvailabilitySlot
}

// NewStatic indexes slots by doctor and day, ordered by start time.
func NewStatic(slots []models.AvailabilitySlot) *Static {
	s := &Static{slots: make(map[string]map[models.DayOfWeek][]models.AvailabilitySlot)}
	for _, slot := range slots {
		// Malformed slots are kept as given; resolvers' callers skip them.
		if c, err := canonicalSlot(slot); err == nil {
			slot = c
		}
		days, ok := s.slots[slot.DoctorID]
		if !ok {
			days = make(map[models.DayOfWeek][]models.AvailabilitySlot)
			s.slots[slot.DoctorID] = days
		}
		days[slot.DayOfWeek] = append(days[slot.DayOfWeek], slot)
	}
	for _, days := range s.slots {
		for _, list := range days {
			sort.SliceStable(list, func(i, j int) bool { return list[i].StartTime < list[j].StartTime })
		}
	}
	return s
}

func (s *Static) Availability(_ context.Context, doctorID string, day time.Weekday) ([]models.AvailabilitySlot, error) {
	return slices.Clone(s.slots[doctorID][models.DayOfWeekFrom(day)]), nil
}

// Doctors lists every doctor with at least one slot, sorted.
func (s *Static) Doctors() []string {
	out := make([]string, 0, len(s.slots))
	for id := range s.slots {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Slots returns every slot declared for doctorID across the week.
func (s *Static) Slots(doctorID string) []models.AvailabilitySlot {
	var out []models.AvailabilitySlot
	for d := time.Sunday; d <= time.Saturday; d++ {
		out = append(out, s.slots[doctorID][models.DayOfWeekFrom(d)]...)
	}
	return out
}

// ParseSeed reads availability in the form
//
//	doctor:Monday=09:00-12:00,14:00-17:00;doctor:Tuesday=10:00-16:00
//
// Blank input yields an empty resolver.
func ParseSeed(seed string) (*Static, error) {
	var slots []models.AvailabilitySlot
	for _, entry := range strings.Split(seed, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		head, ranges, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("availability entry %q: missing '='", entry)
		}
		doctorID, dayName, ok := strings.Cut(head, ":")
		doctorID = strings.TrimSpace(doctorID)
		if !ok || doctorID == "" {
			return nil, fmt.Errorf("availability entry %q: expected doctor:Day", entry)
		}
		day, err := models.ParseDayOfWeek(dayName)
		if err != nil {
			return nil, fmt.Errorf("availability entry %q: %w", entry, err)
		}
		for _, r := range strings.Split(ranges, ",") {
			start, end, ok := strings.Cut(strings.TrimSpace(r), "-")
			if !ok {
				return nil, fmt.Errorf("availability entry %q: range %q must be HH:mm-HH:mm", entry, r)
			}
			iv, err := scheduling.ParseInterval(strings.TrimSpace(start), strings.TrimSpace(end))
			if err != nil {
				return nil, fmt.Errorf("availability entry %q: %w", entry, err)
			}
			slots = append(slots, models.AvailabilitySlot{
				DoctorID:  doctorID,
				DayOfWeek: day,
				StartTime: iv.StartString(),
				EndTime:   iv.EndString(),
			})
		}
	}
	return NewStatic(slots), nil
}
