package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day is a day of the week, Monday=1 through Sunday=7.
type Day int

// Days of the week.
const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = [...]string{"", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Valid reports whether d is Monday through Sunday.
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// MarshalText encodes the day as its short name.
func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: day %d", ErrInvalidSlot, int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText accepts the names understood by ParseDay.
func (d *Day) UnmarshalText(b []byte) error {
	v, err := ParseDay(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

var longDayNames = [...]string{"", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// ParseDay accepts the exact short ("Mon") or long ("Monday") English day
// name in any case.
func ParseDay(s string) (Day, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := Monday; d <= Sunday; d++ {
		if s == strings.ToLower(dayNames[d]) || s == longDayNames[d] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown day %q", ErrInvalidSlot, s)
}

// Clock is a time of day in minutes since midnight.
type Clock int

// NewClock returns the clock value for hour:minute.
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock parses "HH:MM".
func ParseClock(s string) (Clock, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: clock %q", ErrInvalidSlot, s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 24 {
		return 0, fmt.Errorf("%w: clock %q", ErrInvalidSlot, s)
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: clock %q", ErrInvalidSlot, s)
	}
	return NewClock(hour, minute), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// MarshalText encodes the clock as "HH:MM".
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "HH:MM".
func (c *Clock) UnmarshalText(b []byte) error {
	v, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// TimeSlot is one weekly occupied range [Start, End) of a section.
type TimeSlot struct {
	Day   Day    `json:"day"`
	Start Clock  `json:"start"`
	End   Clock  `json:"end"`
	Room  string `json:"room,omitempty"`
}

// Validate checks the day and that Start is strictly before End.
func (s TimeSlot) Validate() error {
	if !s.Day.Valid() {
		return fmt.Errorf("%w: day %d", ErrInvalidSlot, int(s.Day))
	}
	if s.Start < 0 || s.End > NewClock(24, 0) || s.Start >= s.End {
		return fmt.Errorf("%w: %s", ErrInvalidSlot, s)
	}
	return nil
}

// Overlaps reports whether both slots fall on the same day and their
// half-open ranges intersect.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Day == o.Day && s.Start < o.End && o.Start < s.End
}

// Duration is the length of the slot.
func (s TimeSlot) Duration() time.Duration {
	return time.Duration(s.End-s.Start) * time.Minute
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End)
}

// ParseTimeSlot parses "Mon 08:00-10:00".
func ParseTimeSlot(s string) (TimeSlot, error) {
	dayPart, rangePart, ok := strings.Cut(strings.TrimSpace(s), " ")
	if !ok {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
	day, err := ParseDay(dayPart)
	if err != nil {
		return TimeSlot{}, err
	}
	startPart, endPart, ok := strings.Cut(strings.TrimSpace(rangePart), "-")
	if !ok {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, s)
	}
	start, err := ParseClock(startPart)
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := ParseClock(endPart)
	if err != nil {
		return TimeSlot{}, err
	}
	slot := TimeSlot{Day: day, Start: start, End: end}
	if err := slot.Validate(); err != nil {
		return TimeSlot{}, err
	}
	return slot, nil
}

// LessonDuration is the length of one UFSC class period.
const LessonDuration = 50 * time.Minute

var ufscScheduleRe = regexp.MustCompile(`^(\d)\.(\d{2})(\d{2})-(\d)(?:\s*/\s*(.+))?$`)

// ParseUFSCSchedule parses the registrar's schedule notation, for example
// "2.0820-2 / CTC-CTC107": weekday (1=Sunday, 2=Monday .. 7=Saturday), start
// time 08:20, two 50-minute lessons, room CTC-CTC107.
func ParseUFSCSchedule(s string) (TimeSlot, error) {
	m := ufscScheduleRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
	weekday, _ := strconv.Atoi(m[1])
	hour, _ := strconv.Atoi(m[2])
	minute, _ := strconv.Atoi(m[3])
	lessons, _ := strconv.Atoi(m[4])

	var day Day
	switch {
	case weekday == 1:
		day = Sunday
	case weekday >= 2 && weekday <= 7:
		day = Day(weekday - 1)
	default:
		return TimeSlot{}, fmt.Errorf("%w: weekday %d in %q", ErrInvalidSchedule, weekday, s)
	}
	if hour > 23 || minute > 59 {
		return TimeSlot{}, fmt.Errorf("%w: start time in %q", ErrInvalidSchedule, s)
	}
	if lessons == 0 {
		return TimeSlot{}, fmt.Errorf("%w: no lessons in %q", ErrInvalidSchedule, s)
	}

	start := NewClock(hour, minute)
	slot := TimeSlot{
		Day:   day,
		Start: start,
		End:   start + Clock(lessons*int(LessonDuration/time.Minute)),
		Room:  strings.TrimSpace(m[5]),
	}
	if err := slot.Validate(); err != nil {
		return TimeSlot{}, fmt.Errorf("%w: %q", ErrInvalidSchedule, s)
	}
	return slot, nil
}
