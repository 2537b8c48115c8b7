package planner

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
)

// Flatten converts a validated change into its wire shape. Recurrence selectors
// that do not apply are left nil.
func Flatten(spec ChangeSpec) model.PlannedChange {
	pc := model.PlannedChange{
		ID:          spec.ID,
		PortfolioID: spec.PortfolioID,
		ChangeType:  string(spec.ChangeType),
		Date:        FormatDate(spec.Date),
		Description: spec.Description,
	}

	if spec.ChangeType.UsesAmount() {
		if spec.Amount != nil {
			amount := *spec.Amount
			pc.Amount = &amount
		}
	} else {
		pc.TargetAllocations = slices.Clone(spec.TargetAllocations)
	}

	r := spec.Recurrence
	if r == nil {
		return pc
	}

	pc.Frequency = ptr(string(r.Frequency))
	pc.Interval = ptr(r.Interval)
	for _, day := range r.DaysOfWeek {
		pc.DaysOfWeek = append(pc.DaysOfWeek, day.String())
	}

	switch m := r.MonthlyRule.(type) {
	case SpecificDay:
		pc.DayOfMonth = ptr(m.Day)
	case OrdinalDay:
		pc.MonthOrdinal = ptr(string(m.Ordinal))
		pc.MonthOrdinalDay = ptr(string(m.DayType))
	}

	if r.MonthOfYear != nil {
		pc.MonthOfYear = ptr(*r.MonthOfYear)
	}

	end := r.End
	if end == nil {
		end = Never{}
	}
	pc.EndsOnType = ptr(string(end.Type()))
	switch e := end.(type) {
	case AfterOccurrences:
		pc.EndsOnOccurrences = ptr(e.Count)
	case OnDate:
		pc.EndsOnDate = ptr(FormatDate(e.Date))
	}

	return pc
}

// DraftFromRecord hydrates a draft from a persisted change so it can be edited.
// Allocation targets for assets the portfolio no longer lists are kept.
//
//nolint:gocyclo // One branch per wire field.
func DraftFromRecord(rec model.PlannedChange, assets []model.Asset) (*Draft, error) {
	changeType, err := ParseChangeType(rec.ChangeType)
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(assets))
	for _, a := range assets {
		known[a.ID] = true
	}
	all := slices.Clone(assets)
	for _, t := range rec.TargetAllocations {
		if !known[t.AssetID] {
			all = append(all, model.Asset{ID: t.AssetID})
			known[t.AssetID] = true
		}
	}

	d := NewDraft(rec.PortfolioID, all)
	d.SetID(rec.ID)
	d.SetChangeType(changeType)
	d.SetDate(rec.Date)
	d.SetDescription(rec.Description)
	if rec.Amount != nil {
		d.SetAmount(rec.Amount.String())
	}
	if changeType == Reallocation {
		for _, t := range rec.TargetAllocations {
			if err := d.SetAllocation(t.AssetID, strconv.FormatFloat(t.Percentage, 'f', -1, 64)); err != nil {
				return nil, err
			}
		}
	}

	if rec.Frequency == nil {
		return d, nil
	}
	freq, recurring, err := ParseFrequency(*rec.Frequency)
	if err != nil {
		return nil, err
	}
	if !recurring {
		return d, nil
	}
	d.SetFrequency(freq)

	if rec.Interval != nil {
		d.SetInterval(strconv.Itoa(*rec.Interval))
	}

	days := make([]Weekday, 0, len(rec.DaysOfWeek))
	for _, name := range rec.DaysOfWeek {
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	d.SetDaysOfWeek(days)

	switch {
	case rec.DayOfMonth != nil:
		d.SetDayOfMonth(strconv.Itoa(*rec.DayOfMonth))
	case rec.MonthOrdinal != nil || rec.MonthOrdinalDay != nil:
		var ordinal Ordinal
		var dayType DayType
		if rec.MonthOrdinal != nil {
			if ordinal, err = ParseOrdinal(*rec.MonthOrdinal); err != nil {
				return nil, err
			}
		}
		if rec.MonthOrdinalDay != nil {
			if dayType, err = ParseDayType(*rec.MonthOrdinalDay); err != nil {
				return nil, err
			}
		}
		d.SetOrdinalDay(ordinal, dayType)
	}

	if rec.MonthOfYear != nil {
		d.SetMonthOfYear(strconv.Itoa(*rec.MonthOfYear))
	}

	endType := EndNever
	if rec.EndsOnType != nil {
		if endType, err = ParseEndType(*rec.EndsOnType); err != nil {
			return nil, err
		}
	}
	switch endType {
	case EndNever:
		d.SetEndCondition(Never{})
	case EndAfterOccurrences:
		if rec.EndsOnOccurrences == nil {
			d.SetEndCondition(AfterOccurrences{})
		} else {
			d.SetEndsAfter(strconv.Itoa(*rec.EndsOnOccurrences))
		}
	case EndOnDate:
		if rec.EndsOnDate == nil {
			d.SetEndCondition(OnDate{})
		} else {
			d.SetEndsOn(*rec.EndsOnDate)
		}
	default:
		return nil, fmt.Errorf("unhandled end type: %s", endType)
	}

	return d, nil
}

func ptr[T any](v T) *T {
	return &v
}
