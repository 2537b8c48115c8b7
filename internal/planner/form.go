package planner

import (
	"errors"
	"fmt"
)

// FormAllocation is one raw allocation target as entered.
type FormAllocation struct {
	AssetID    string
	Percentage string
}

// Form holds the raw field values of a planned change as they arrive from a form
// or request body. Every value is kept as text so that unreadable input can be
// reported on its field instead of rejecting the whole form.
type Form struct {
	ChangeType        string
	Date              string
	Amount            string
	TargetAllocations []FormAllocation
	Description       string

	Frequency         string
	Interval          string
	DaysOfWeek        []string
	DayOfMonth        string
	MonthOrdinal      string
	MonthOrdinalDay   string
	MonthOfYear       string
	EndsOnType        string
	EndsOnOccurrences string
	EndsOnDate        string
}

// ApplyTo replaces the contents of d with the form's values. A blank or one-time
// frequency leaves the change non-recurring. Values that cannot be read, such as
// unknown enum names, are marked invalid on their field.
//
//nolint:gocyclo // One branch per form field.
func (f Form) ApplyTo(d *Draft) {
	d.Reset()

	if f.ChangeType != "" {
		t, err := ParseChangeType(f.ChangeType)
		if err != nil {
			d.MarkInvalid(FieldChangeType, fmt.Sprintf("unknown change type %q", f.ChangeType))
		} else {
			d.SetChangeType(t)
		}
	}
	d.SetDate(f.Date)
	d.SetDescription(f.Description)

	switch {
	case d.ChangeType().UsesAmount():
		d.SetAmount(f.Amount)
	case d.ChangeType() == Reallocation:
		for _, a := range f.TargetAllocations {
			err := d.SetAllocation(a.AssetID, a.Percentage)
			if errors.Is(err, ErrUnknownAsset) {
				d.MarkInvalid(FieldTargetAllocations, fmt.Sprintf("asset %s is not part of this portfolio", a.AssetID))
			}
		}
	}

	freq, recurring, err := ParseFrequency(f.Frequency)
	if err != nil {
		d.SetRecurrenceEnabled(true)
		d.MarkInvalid(FieldFrequency, fmt.Sprintf("unknown frequency %q", f.Frequency))
		return
	}
	if !recurring {
		return
	}
	d.SetFrequency(freq)

	if f.Interval != "" {
		d.SetInterval(f.Interval)
	}

	// Selectors the frequency does not use are ignored, readable or not.
	if freq == Weekly {
		days := make([]Weekday, 0, len(f.DaysOfWeek))
		for _, name := range f.DaysOfWeek {
			day, err := ParseWeekday(name)
			if err != nil {
				d.MarkInvalid(FieldDaysOfWeek, fmt.Sprintf("unknown day of week %q", name))
				continue
			}
			days = append(days, day)
		}
		d.SetDaysOfWeek(days)
	}

	if freq.usesMonthlyRule() {
		f.applyMonthlyRule(d)
	}

	if freq == Yearly && f.MonthOfYear != "" {
		d.SetMonthOfYear(f.MonthOfYear)
	}

	endType, err := ParseEndType(f.EndsOnType)
	if err != nil {
		d.MarkInvalid(FieldEndsOnType, fmt.Sprintf("unknown end type %q", f.EndsOnType))
		return
	}
	switch endType {
	case EndNever:
		d.SetEndCondition(Never{})
	case EndAfterOccurrences:
		d.SetEndsAfter(f.EndsOnOccurrences)
	case EndOnDate:
		d.SetEndsOn(f.EndsOnDate)
	}
}

// applyMonthlyRule applies the day-of-month or ordinal selector. Sending both is
// ambiguous and neither is applied.
func (f Form) applyMonthlyRule(d *Draft) {
	hasOrdinal := f.MonthOrdinal != "" || f.MonthOrdinalDay != ""
	switch {
	case f.DayOfMonth != "" && hasOrdinal:
		d.MarkInvalid(FieldMonthlyRule, "choose either a day of the month or an ordinal day, not both")
	case f.DayOfMonth != "":
		d.SetDayOfMonth(f.DayOfMonth)
	case hasOrdinal:
		var ordinal Ordinal
		var dayType DayType
		var err error
		if f.MonthOrdinal != "" {
			if ordinal, err = ParseOrdinal(f.MonthOrdinal); err != nil {
				d.MarkInvalid(FieldMonthOrdinal, fmt.Sprintf("unknown ordinal %q", f.MonthOrdinal))
			}
		}
		if f.MonthOrdinalDay != "" {
			if dayType, err = ParseDayType(f.MonthOrdinalDay); err != nil {
				d.MarkInvalid(FieldMonthOrdinalDay, fmt.Sprintf("unknown day type %q", f.MonthOrdinalDay))
			}
		}
		d.SetOrdinalDay(ordinal, dayType)
	}
}
