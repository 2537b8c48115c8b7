// Package planner holds the planned-change domain: recurrence rules, reallocation
// targets, the editable draft and the builder that turns a draft into a candidate
// for validation. Nothing in this package performs I/O.
package planner

import (
	"fmt"
	"strings"
)

// ChangeType is the closed set of planned change kinds.
type ChangeType string

const (
	Contribution ChangeType = "contribution"
	Withdrawal   ChangeType = "withdrawal"
	Reallocation ChangeType = "reallocation"
)

// UsesAmount reports whether the change type carries an amount rather than allocation targets.
func (t ChangeType) UsesAmount() bool {
	return t == Contribution || t == Withdrawal
}

// Valid reports whether t is one of the known change types.
func (t ChangeType) Valid() bool {
	return t == Contribution || t == Withdrawal || t == Reallocation
}

// ParseChangeType parses a change type case-insensitively.
func ParseChangeType(s string) (ChangeType, error) {
	t := ChangeType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("invalid change type: %s", s)
	}
	return t, nil
}

// Frequency is the unit a recurrence repeats in. One-time changes have no
// recurrence at all, so there is deliberately no "one time" frequency value.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

// oneTime is the frequency string some clients send for a non-recurring change.
const oneTime = "one_time"

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// usesMonthlyRule reports whether a day-of-month selector applies to f.
func (f Frequency) usesMonthlyRule() bool {
	return f == Monthly || f == Yearly
}

// ParseFrequency parses a frequency. The boolean result is false when s denotes a
// one-time change (blank or "one_time"), in which case no recurrence applies.
func ParseFrequency(s string) (Frequency, bool, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	if norm == "" || norm == oneTime || norm == "onetime" {
		return "", false, nil
	}
	f := Frequency(norm)
	if !f.Valid() {
		return "", false, fmt.Errorf("invalid frequency: %s", s)
	}
	return f, true, nil
}

// Weekday is a day of the week ordered Monday first, so that sorted sets read the
// way a calendar week does.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[Weekday]string{
	Monday:    "monday",
	Tuesday:   "tuesday",
	Wednesday: "wednesday",
	Thursday:  "thursday",
	Friday:    "friday",
	Saturday:  "saturday",
	Sunday:    "sunday",
}

func (d Weekday) String() string {
	if name, ok := weekdayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Weekday(%d)", int(d))
}

// Valid reports whether d is Monday..Sunday.
func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

// ParseWeekday accepts full names and three letter abbreviations, any case.
func ParseWeekday(s string) (Weekday, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for d, name := range weekdayNames {
		if norm == name || (len(norm) == 3 && strings.HasPrefix(name, norm)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday: %s", s)
}

// Ordinal selects which matching day of the month an OrdinalDay refers to.
type Ordinal string

const (
	First  Ordinal = "first"
	Second Ordinal = "second"
	Third  Ordinal = "third"
	Fourth Ordinal = "fourth"
	Last   Ordinal = "last"
)

// Valid reports whether o is a known ordinal.
func (o Ordinal) Valid() bool {
	switch o {
	case First, Second, Third, Fourth, Last:
		return true
	}
	return false
}

// ParseOrdinal parses an ordinal case-insensitively.
func ParseOrdinal(s string) (Ordinal, error) {
	o := Ordinal(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("invalid ordinal: %s", s)
	}
	return o, nil
}

// DayType is what an OrdinalDay counts: a specific weekday, any day, any weekday
// or any weekend day.
type DayType string

const (
	DayTypeMonday     DayType = "monday"
	DayTypeTuesday    DayType = "tuesday"
	DayTypeWednesday  DayType = "wednesday"
	DayTypeThursday   DayType = "thursday"
	DayTypeFriday     DayType = "friday"
	DayTypeSaturday   DayType = "saturday"
	DayTypeSunday     DayType = "sunday"
	DayTypeDay        DayType = "day"
	DayTypeWeekday    DayType = "weekday"
	DayTypeWeekendDay DayType = "weekend_day"
)

// Valid reports whether t is a known day type.
func (t DayType) Valid() bool {
	switch t {
	case DayTypeMonday, DayTypeTuesday, DayTypeWednesday, DayTypeThursday,
		DayTypeFriday, DayTypeSaturday, DayTypeSunday,
		DayTypeDay, DayTypeWeekday, DayTypeWeekendDay:
		return true
	}
	return false
}

// ParseDayType parses a day type; "weekendday" and "weekend-day" are accepted too.
func ParseDayType(s string) (DayType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	if norm == "weekendday" {
		norm = string(DayTypeWeekendDay)
	}
	t := DayType(norm)
	if !t.Valid() {
		return "", fmt.Errorf("invalid day type: %s", s)
	}
	return t, nil
}

// EndType names the active EndCondition variant on the wire.
type EndType string

const (
	EndNever            EndType = "never"
	EndAfterOccurrences EndType = "after_occurrences"
	EndOnDate           EndType = "on_date"
)

// ParseEndType parses an end type. Blank means Never.
func ParseEndType(s string) (EndType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	switch EndType(norm) {
	case "", EndNever:
		return EndNever, nil
	case EndAfterOccurrences, "after":
		return EndAfterOccurrences, nil
	case EndOnDate, "date":
		return EndOnDate, nil
	}
	return "", fmt.Errorf("invalid end type: %s", s)
}
