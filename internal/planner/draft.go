package planner

import (
	"errors"
	"slices"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
)

// ErrNotReallocation is returned when allocation targets are edited on a draft
// whose change type carries an amount.
var ErrNotReallocation = errors.New("draft is not a reallocation")

// Draft is the editable state of one planned change. It is owned by a single
// editor and changed only through its setters, which keep the amount and
// allocation branches mutually exclusive and drop recurrence state when
// recurrence is turned off.
type Draft struct {
	id          string
	portfolioID string
	changeType  ChangeType
	date        string
	amount      string
	allocations *AllocationTargetSet
	description string
	rule        *RecurrenceRule
	assets      []model.Asset

	// coercion holds messages for form values that could not be read, keyed by field.
	coercion map[string]string
}

// NewDraft returns an empty draft for a portfolio. assets is the portfolio's asset
// list, used to seed allocation targets when the draft becomes a reallocation.
func NewDraft(portfolioID string, assets []model.Asset) *Draft {
	return &Draft{
		portfolioID: portfolioID,
		assets:      slices.Clone(assets),
		coercion:    make(map[string]string),
	}
}

// ID returns the identifier of the change being edited, empty when creating.
func (d *Draft) ID() string { return d.id }

// PortfolioID returns the owning portfolio.
func (d *Draft) PortfolioID() string { return d.portfolioID }

// ChangeType returns the selected change type, empty when none is selected.
func (d *Draft) ChangeType() ChangeType { return d.changeType }

// Date returns the raw anchor date input.
func (d *Draft) Date() string { return d.date }

// Amount returns the raw amount input.
func (d *Draft) Amount() string { return d.amount }

// Description returns the description.
func (d *Draft) Description() string { return d.description }

// Allocations returns a copy of the allocation set, nil unless the draft is a reallocation.
func (d *Draft) Allocations() *AllocationTargetSet {
	if d.allocations == nil {
		return nil
	}
	return d.allocations.Clone()
}

// RecurrenceEnabled reports whether the change repeats.
func (d *Draft) RecurrenceEnabled() bool { return d.rule != nil }

// Recurrence returns a copy of the rule as edited (not normalized), nil when one-time.
func (d *Draft) Recurrence() *RecurrenceRule {
	if d.rule == nil {
		return nil
	}
	r := *d.rule
	r.DaysOfWeek = slices.Clone(d.rule.DaysOfWeek)
	if d.rule.MonthOfYear != nil {
		m := *d.rule.MonthOfYear
		r.MonthOfYear = &m
	}
	return &r
}

// Reset clears every edited value. The identifier, portfolio and asset list are kept.
func (d *Draft) Reset() {
	d.changeType = ""
	d.date = ""
	d.amount = ""
	d.allocations = nil
	d.description = ""
	d.rule = nil
	d.coercion = make(map[string]string)
}

// SetID sets the identifier of the change being edited.
func (d *Draft) SetID(id string) { d.id = id }

// SetChangeType switches the change type. Leaving the amount branch clears the
// amount and seeds allocation targets from the portfolio's assets; leaving the
// reallocation branch drops the allocation targets.
func (d *Draft) SetChangeType(t ChangeType) {
	delete(d.coercion, FieldChangeType)
	if t == d.changeType {
		return
	}
	d.changeType = t
	if t == Reallocation {
		d.amount = ""
		delete(d.coercion, FieldAmount)
		d.allocations = NewAllocationTargetSet(d.assets)
		return
	}
	d.allocations = nil
	delete(d.coercion, FieldTargetAllocations)
}

// SetDate sets the raw anchor date.
func (d *Draft) SetDate(raw string) { d.date = raw }

// SetAmount sets the raw amount. It is ignored for reallocations.
func (d *Draft) SetAmount(raw string) {
	if d.changeType == Reallocation {
		return
	}
	d.amount = raw
}

// SetAllocation sets the raw target percentage for one asset.
func (d *Draft) SetAllocation(assetID, raw string) error {
	if d.allocations == nil {
		return ErrNotReallocation
	}
	return d.allocations.SetPercentage(assetID, raw)
}

// SetDescription sets the free text description.
func (d *Draft) SetDescription(s string) { d.description = s }

// SetRecurrenceEnabled turns recurrence on or off. Turning it on starts from a
// monthly rule; turning it off discards the rule entirely.
func (d *Draft) SetRecurrenceEnabled(enabled bool) {
	if !enabled {
		d.rule = nil
		d.clearRecurrenceCoercion()
		return
	}
	if d.rule == nil {
		r := NewRecurrenceRule(Monthly)
		d.rule = &r
	}
}

// SetOneTime makes the change non-recurring.
func (d *Draft) SetOneTime() { d.SetRecurrenceEnabled(false) }

// SetFrequency sets the recurrence frequency, enabling recurrence if needed.
// Unreadable input recorded for selectors the new frequency does not use is
// discarded along with their values.
func (d *Draft) SetFrequency(f Frequency) {
	delete(d.coercion, FieldFrequency)
	d.SetRecurrenceEnabled(true)
	d.rule.SetFrequency(f)
	for _, field := range f.InactiveFields() {
		delete(d.coercion, field)
	}
}

// The recurrence setters below do nothing while recurrence is disabled.

// SetInterval sets the raw "every N" value.
func (d *Draft) SetInterval(raw string) {
	if d.rule == nil {
		return
	}
	n, err := ParseWholeNumber(raw, 0)
	if d.coerce(FieldInterval, err, "interval must be a whole number") {
		return
	}
	d.rule.SetInterval(n)
}

// ToggleWeekday adds or removes a weekday.
func (d *Draft) ToggleWeekday(day Weekday) {
	if d.rule == nil {
		return
	}
	d.rule.ToggleWeekday(day)
}

// SetDaysOfWeek replaces the weekday selection.
func (d *Draft) SetDaysOfWeek(days []Weekday) {
	if d.rule == nil {
		return
	}
	d.rule.DaysOfWeek = sortedWeekdays(days)
}

// SetMonthlyRule switches the monthly selector variant.
func (d *Draft) SetMonthlyRule(rule MonthlyRule) {
	if d.rule == nil {
		return
	}
	d.clearMonthlyCoercion()
	d.rule.SetMonthlyRule(rule)
}

// SetDayOfMonth selects the SpecificDay variant from raw input.
func (d *Draft) SetDayOfMonth(raw string) {
	if d.rule == nil {
		return
	}
	n, err := ParseWholeNumber(raw, 0)
	delete(d.coercion, FieldMonthlyRule)
	delete(d.coercion, FieldMonthOrdinal)
	delete(d.coercion, FieldMonthOrdinalDay)
	if d.coerce(FieldDayOfMonth, err, "day of month must be a whole number") {
		return
	}
	d.rule.SetMonthlyRule(SpecificDay{Day: n})
}

// SetOrdinalDay selects the OrdinalDay variant.
func (d *Draft) SetOrdinalDay(ordinal Ordinal, dayType DayType) {
	if d.rule == nil {
		return
	}
	delete(d.coercion, FieldMonthlyRule)
	delete(d.coercion, FieldDayOfMonth)
	d.rule.SetMonthlyRule(OrdinalDay{Ordinal: ordinal, DayType: dayType})
}

// SetMonthOfYear sets the raw month for yearly rules.
func (d *Draft) SetMonthOfYear(raw string) {
	if d.rule == nil {
		return
	}
	n, err := ParseWholeNumber(raw, 0)
	if d.coerce(FieldMonthOfYear, err, "month must be a whole number") {
		return
	}
	d.rule.SetMonthOfYear(n)
}

// SetEndCondition switches the end condition variant.
func (d *Draft) SetEndCondition(end EndCondition) {
	if d.rule == nil {
		return
	}
	delete(d.coercion, FieldEndsOnOccurrences)
	delete(d.coercion, FieldEndsOnDate)
	d.rule.SetEndCondition(end)
}

// SetEndsAfter ends the recurrence after a raw number of occurrences.
func (d *Draft) SetEndsAfter(raw string) {
	if d.rule == nil {
		return
	}
	n, err := ParseWholeNumber(raw, 0)
	delete(d.coercion, FieldEndsOnDate)
	if d.coerce(FieldEndsOnOccurrences, err, "occurrences must be a whole number") {
		d.rule.SetEndCondition(AfterOccurrences{})
		return
	}
	d.rule.SetEndCondition(AfterOccurrences{Count: n})
}

// SetEndsOn ends the recurrence on a raw date. Blank leaves the date unset.
func (d *Draft) SetEndsOn(raw string) {
	if d.rule == nil {
		return
	}
	delete(d.coercion, FieldEndsOnOccurrences)
	var end OnDate
	if raw != "" {
		t, err := ParseDate(raw)
		if d.coerce(FieldEndsOnDate, err, "end date must be a valid date (YYYY-MM-DD)") {
			d.rule.SetEndCondition(OnDate{})
			return
		}
		end.Date = t
	} else {
		delete(d.coercion, FieldEndsOnDate)
	}
	d.rule.SetEndCondition(end)
}

// MarkInvalid records that the form value for field could not be read. The
// message is reported by validation until the field is set again.
func (d *Draft) MarkInvalid(field, message string) {
	d.coercion[field] = message
}

// coerce records message for field when err is set and clears it otherwise.
// It reports whether err was set.
func (d *Draft) coerce(field string, err error, message string) bool {
	if err != nil {
		d.coercion[field] = message
		return true
	}
	delete(d.coercion, field)
	return false
}

func (d *Draft) clearMonthlyCoercion() {
	for _, f := range []string{FieldMonthlyRule, FieldDayOfMonth, FieldMonthOrdinal, FieldMonthOrdinalDay} {
		delete(d.coercion, f)
	}
}

func (d *Draft) clearRecurrenceCoercion() {
	for _, f := range []string{
		FieldFrequency, FieldInterval, FieldDaysOfWeek, FieldMonthlyRule, FieldDayOfMonth,
		FieldMonthOrdinal, FieldMonthOrdinalDay, FieldMonthOfYear,
		FieldEndsOnType, FieldEndsOnOccurrences, FieldEndsOnDate,
	} {
		delete(d.coercion, f)
	}
}
