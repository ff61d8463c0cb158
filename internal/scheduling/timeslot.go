package scheduling

import (
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay bounds every wall-clock offset handled by the engine.
const MinutesPerDay = 24 * 60

// ParseTime converts an "HH:mm" wall-clock string into minutes since midnight.
// Hours must be within 0-23 and minutes within 0-59.
func ParseTime(s string) (int, error) {
	parts := strings.Split(s, ":")
	if s == "" || len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	hours, err := parseComponent(parts[0], 23)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	minutes, err := parseComponent(parts[1], 59)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}
	return hours*60 + minutes, nil
}

func parseComponent(s string, max int) (int, error) {
	if s == "" || len(s) > 2 {
		return 0, fmt.Errorf("bad component %q", s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("bad component %q", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, fmt.Errorf("component %d out of range", n)
	}
	return n, nil
}

// FormatMinutes renders a minute offset as zero-padded "HH:mm".
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether [startA, endA) and [startB, endB) share any minute.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// Interval is a half-open range of minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// ParseInterval parses a start/end pair and requires start to precede end.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTime(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseTime(end)
	if err != nil {
		return Interval{}, err
	}
	if s >= e {
		return Interval{}, fmt.Errorf("%w: start %s must be before end %s", ErrInvalidTimeFormat, start, end)
	}
	return Interval{Start: s, End: e}, nil
}

// Contains reports whether o lies entirely within i.
func (i Interval) Contains(o Interval) bool {
	return o.Start >= i.Start && o.End <= i.End
}

func (i Interval) Overlaps(o Interval) bool {
	return Overlaps(i.Start, i.End, o.Start, o.End)
}

func (i Interval) Empty() bool {
	return i.Start >= i.End
}

func (i Interval) StartString() string { return FormatMinutes(i.Start) }

func (i Interval) EndString() string { return FormatMinutes(i.End) }

func (i Interval) String() string {
	return i.StartString() + "-" + i.EndString()
}
