package planner

import (
	"slices"
	"time"
)

// MonthlyRule selects the day of the month a Monthly or Yearly recurrence lands on.
// It is either SpecificDay or OrdinalDay.
type MonthlyRule interface {
	monthlyRule()
}

// SpecificDay recurs on a fixed day of the month. Day 0 means not chosen yet.
type SpecificDay struct {
	Day int
}

// OrdinalDay recurs on the Nth day of a kind, e.g. the last Friday or the first weekday.
// Empty fields mean not chosen yet.
type OrdinalDay struct {
	Ordinal Ordinal
	DayType DayType
}

func (SpecificDay) monthlyRule() {}
func (OrdinalDay) monthlyRule()  {}

// EndCondition bounds a recurrence: Never, AfterOccurrences or OnDate.
type EndCondition interface {
	Type() EndType
}

// Never repeats without end.
type Never struct{}

// AfterOccurrences stops after Count occurrences, the anchor date included.
type AfterOccurrences struct {
	Count int
}

// OnDate stops on Date. A zero Date means not chosen yet.
type OnDate struct {
	Date time.Time
}

func (Never) Type() EndType            { return EndNever }
func (AfterOccurrences) Type() EndType { return EndAfterOccurrences }
func (OnDate) Type() EndType           { return EndOnDate }

// RecurrenceRule describes how a planned change repeats. A one-time change has no
// RecurrenceRule at all.
//
// Fields that do not apply to the current Frequency may hold stale values while a
// rule is being edited; Normalize clears them.
type RecurrenceRule struct {
	Frequency   Frequency
	Interval    int
	DaysOfWeek  []Weekday
	MonthlyRule MonthlyRule
	MonthOfYear *int
	End         EndCondition
}

// NewRecurrenceRule returns a rule repeating every single unit of freq, forever.
func NewRecurrenceRule(freq Frequency) RecurrenceRule {
	r := RecurrenceRule{Interval: 1, End: Never{}}
	r.SetFrequency(freq)
	return r
}

// SetFrequency changes the frequency and clears every selector the new frequency
// does not use.
func (r *RecurrenceRule) SetFrequency(freq Frequency) {
	r.Frequency = freq
	r.clearInapplicable()
}

// SetInterval sets the "every N units" multiplier.
func (r *RecurrenceRule) SetInterval(n int) {
	r.Interval = n
}

// ToggleWeekday adds day when absent and removes it when present. The set stays sorted.
func (r *RecurrenceRule) ToggleWeekday(day Weekday) {
	if i := slices.Index(r.DaysOfWeek, day); i >= 0 {
		r.DaysOfWeek = slices.Delete(slices.Clone(r.DaysOfWeek), i, i+1)
	} else {
		r.DaysOfWeek = append(slices.Clone(r.DaysOfWeek), day)
	}
	r.DaysOfWeek = sortedWeekdays(r.DaysOfWeek)
}

// SetMonthlyRule switches the monthly selector. Because the variants are distinct
// types, the previous variant's fields are dropped with it.
func (r *RecurrenceRule) SetMonthlyRule(rule MonthlyRule) {
	r.MonthlyRule = rule
}

// SetMonthOfYear sets the month a Yearly rule repeats in; 0 clears it.
func (r *RecurrenceRule) SetMonthOfYear(month int) {
	if month == 0 {
		r.MonthOfYear = nil
		return
	}
	r.MonthOfYear = &month
}

// SetEndCondition switches the end condition; nil means Never.
func (r *RecurrenceRule) SetEndCondition(end EndCondition) {
	if end == nil {
		end = Never{}
	}
	r.End = end
}

// Normalize returns a copy of r with every field irrelevant to the active
// frequency cleared, weekdays sorted and de-duplicated, and dates truncated to the
// day. Normalize is idempotent.
func (r RecurrenceRule) Normalize() RecurrenceRule {
	out := r
	out.DaysOfWeek = sortedWeekdays(r.DaysOfWeek)
	if r.MonthOfYear != nil {
		m := *r.MonthOfYear
		out.MonthOfYear = &m
	}
	switch end := r.End.(type) {
	case nil:
		out.End = Never{}
	case OnDate:
		if !end.Date.IsZero() {
			out.End = OnDate{Date: DateOnly(end.Date)}
		}
	}
	out.clearInapplicable()
	return out
}

// StaleFields lists the wire names of fields that hold a value the active frequency
// does not use. A normalized rule has none.
func (r RecurrenceRule) StaleFields() []string {
	var stale []string
	if r.Frequency != Weekly && len(r.DaysOfWeek) > 0 {
		stale = append(stale, FieldDaysOfWeek)
	}
	if !r.Frequency.usesMonthlyRule() && r.MonthlyRule != nil {
		stale = append(stale, FieldMonthlyRule)
	}
	if r.Frequency != Yearly && r.MonthOfYear != nil {
		stale = append(stale, FieldMonthOfYear)
	}
	return stale
}

// InactiveFields lists the wire names of the selectors f does not use.
func (f Frequency) InactiveFields() []string {
	var fields []string
	if f != Weekly {
		fields = append(fields, FieldDaysOfWeek)
	}
	if !f.usesMonthlyRule() {
		fields = append(fields, FieldMonthlyRule, FieldDayOfMonth, FieldMonthOrdinal, FieldMonthOrdinalDay)
	}
	if f != Yearly {
		fields = append(fields, FieldMonthOfYear)
	}
	return fields
}

func (r *RecurrenceRule) clearInapplicable() {
	if r.Frequency != Weekly {
		r.DaysOfWeek = nil
	}
	if !r.Frequency.usesMonthlyRule() {
		r.MonthlyRule = nil
	}
	if r.Frequency != Yearly {
		r.MonthOfYear = nil
	}
}

// sortedWeekdays returns a sorted, duplicate-free copy of days, or nil when empty.
func sortedWeekdays(days []Weekday) []Weekday {
	if len(days) == 0 {
		return nil
	}
	out := slices.Clone(days)
	slices.Sort(out)
	return slices.Compact(out)
}
