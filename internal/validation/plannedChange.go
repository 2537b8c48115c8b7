package validation

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/planner"
)

// MaxDescriptionLength bounds the free text description of a planned change.
const MaxDescriptionLength = 500

// AllocationSumMessage is reported on targetAllocations when percentages do not add up.
const AllocationSumMessage = "Total allocation must be 100%."

var recurrenceFields = []string{
	planner.FieldFrequency, planner.FieldInterval, planner.FieldDaysOfWeek,
	planner.FieldMonthlyRule, planner.FieldDayOfMonth, planner.FieldMonthOrdinal,
	planner.FieldMonthOrdinalDay, planner.FieldMonthOfYear, planner.FieldEndsOnType,
	planner.FieldEndsOnOccurrences, planner.FieldEndsOnDate,
}

// PlannedChangeValidator turns candidates into canonical planned changes.
//
// Strict makes a candidate whose recurrence still carries fields from another
// frequency panic with apperrors.ErrInvariantViolation instead of being repaired.
// Such a candidate means the draft was not normalized, which is a bug rather than
// bad input, so development builds run strict.
type PlannedChangeValidator struct {
	Strict bool
}

// ValidatePlannedChange validates c with a non-strict validator.
func ValidatePlannedChange(c planner.Candidate) (planner.ChangeSpec, error) {
	return PlannedChangeValidator{}.Validate(c)
}

// Validate checks a candidate planned change and returns its canonical form.
// Every applicable check runs so that all field errors are reported together.
//
// Checks:
//   - portfolioId: Must be a valid UUID
//   - changeType: Must be contribution, withdrawal or reallocation
//   - date: Required, YYYY-MM-DD
//   - amount: Required finite number for contributions and withdrawals
//   - targetAllocations: Required for reallocations, each in [0, 100], summing to 100
//   - description: 500 characters or less
//   - recurrence (when present): interval, weekdays, monthly selector, month and end condition
//
// Returns a validation Error keyed by field name if any check fails.
//
//nolint:gocyclo // Cross-field validation of every planned change branch.
func (v PlannedChangeValidator) Validate(c planner.Candidate) (planner.ChangeSpec, error) {
	errors := make(map[string]string)
	for field, msg := range c.Coercion {
		errors[field] = msg
	}
	switch {
	case c.Recurrence == nil:
		for _, field := range recurrenceFields {
			delete(errors, field)
		}
	case c.Recurrence.Frequency.Valid():
		for _, field := range c.Recurrence.Frequency.InactiveFields() {
			delete(errors, field)
		}
	}

	if err := ValidateUUID(c.PortfolioID); err != nil {
		addError(errors, planner.FieldPortfolioID, "portfolioId must be a valid UUID")
	}

	if !c.ChangeType.Valid() {
		addError(errors, planner.FieldChangeType, "change type is required")
	}

	if c.Date.IsZero() {
		addError(errors, planner.FieldDate, "date is required")
	}

	spec := planner.ChangeSpec{
		ID:          c.ID,
		PortfolioID: c.PortfolioID,
		ChangeType:  c.ChangeType,
		Date:        c.Date,
		Description: strings.TrimSpace(c.Description),
	}

	switch {
	case c.ChangeType.UsesAmount():
		if c.Amount == nil {
			addError(errors, planner.FieldAmount, "amount is required")
		} else {
			amount := *c.Amount
			spec.Amount = &amount
		}
	case c.ChangeType == planner.Reallocation:
		spec.TargetAllocations = validateAllocations(c.Allocations, errors)
	}

	if utf8.RuneCountInString(spec.Description) > MaxDescriptionLength {
		addError(errors, planner.FieldDescription, "description must be 500 characters or less")
	}

	if c.Recurrence != nil {
		rule := v.canonicalRule(*c.Recurrence)
		validateRecurrence(rule, c.Date, errors)
		spec.Recurrence = &rule
	}

	if len(errors) > 0 {
		return planner.ChangeSpec{}, &Error{Fields: errors}
	}
	return spec, nil
}

// canonicalRule normalizes r, treating leftover fields from another frequency as
// an invariant violation.
func (v PlannedChangeValidator) canonicalRule(r planner.RecurrenceRule) planner.RecurrenceRule {
	if stale := r.StaleFields(); len(stale) > 0 {
		err := fmt.Errorf("%w: recurrence %s carries %s", apperrors.ErrInvariantViolation, r.Frequency, strings.Join(stale, ", "))
		if v.Strict {
			panic(err)
		}
		log.Error().Err(err).Msg("repairing unnormalized recurrence rule")
	}
	return r.Normalize()
}

func validateAllocations(entries []planner.AllocationEntry, errors map[string]string) []model.AllocationTarget {
	targets := []model.AllocationTarget{}
	var sum float64
	for _, e := range entries {
		label := e.AssetName
		if label == "" {
			label = e.AssetID
		}
		switch {
		case e.Invalid:
			addError(errors, planner.FieldTargetAllocations, fmt.Sprintf("allocation for %s must be a valid number", label))
		case e.Percentage < 0 || e.Percentage > planner.TotalAllocation:
			addError(errors, planner.FieldTargetAllocations, fmt.Sprintf("allocation for %s must be between 0 and 100", label))
		case e.Percentage != 0:
			targets = append(targets, model.AllocationTarget{AssetID: e.AssetID, Percentage: e.Percentage})
		}
		sum += e.Percentage
	}

	if len(targets) == 0 {
		addError(errors, planner.FieldTargetAllocations, "at least one allocation target is required")
	}
	if !planner.SumsToTotal(sum) {
		addError(errors, planner.FieldTargetAllocations, AllocationSumMessage)
	}
	return targets
}

//nolint:gocyclo // One check per recurrence field.
func validateRecurrence(r planner.RecurrenceRule, anchor time.Time, errors map[string]string) {
	if !r.Frequency.Valid() {
		addError(errors, planner.FieldFrequency, "frequency is required")
	}

	if r.Interval < 1 {
		addError(errors, planner.FieldInterval, "interval must be at least 1")
	}

	if r.Frequency == planner.Weekly {
		if len(r.DaysOfWeek) == 0 {
			addError(errors, planner.FieldDaysOfWeek, "select at least one day")
		} else if slices.ContainsFunc(r.DaysOfWeek, func(d planner.Weekday) bool { return !d.Valid() }) {
			addError(errors, planner.FieldDaysOfWeek, "invalid day of week")
		}
	}

	if r.Frequency == planner.Monthly || r.Frequency == planner.Yearly {
		switch m := r.MonthlyRule.(type) {
		case nil:
			addError(errors, planner.FieldMonthlyRule, "select a day of the month or an ordinal day")
		case planner.SpecificDay:
			if m.Day < 1 || m.Day > 31 {
				addError(errors, planner.FieldDayOfMonth, "day of month must be between 1 and 31")
			}
		case planner.OrdinalDay:
			if !m.Ordinal.Valid() {
				addError(errors, planner.FieldMonthOrdinal, "select first, second, third, fourth or last")
			}
			if !m.DayType.Valid() {
				addError(errors, planner.FieldMonthOrdinalDay, "select a day type")
			}
		default:
			panic(fmt.Errorf("%w: unknown monthly rule %T", apperrors.ErrInvariantViolation, m))
		}
	}

	if r.Frequency == planner.Yearly {
		if r.MonthOfYear == nil {
			addError(errors, planner.FieldMonthOfYear, "month is required")
		} else if *r.MonthOfYear < 1 || *r.MonthOfYear > 12 {
			addError(errors, planner.FieldMonthOfYear, "month must be between 1 and 12")
		}
	}

	switch e := r.End.(type) {
	case planner.Never:
	case planner.AfterOccurrences:
		if e.Count < 1 {
			addError(errors, planner.FieldEndsOnOccurrences, "occurrences must be at least 1")
		}
	case planner.OnDate:
		if e.Date.IsZero() {
			addError(errors, planner.FieldEndsOnDate, "end date is required")
		} else if !anchor.IsZero() && e.Date.Before(anchor) {
			addError(errors, planner.FieldEndsOnDate, "end date cannot be before the start date")
		}
	default:
		panic(fmt.Errorf("%w: unknown end condition %T", apperrors.ErrInvariantViolation, e))
	}
}

// addError records msg for field unless an earlier check already reported it.
func addError(errors map[string]string, field, msg string) {
	if _, ok := errors[field]; !ok {
		errors[field] = msg
	}
}
