package validation_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/planner"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/validation"
)

const portfolioID = "7d1c3f0e-5b7a-4a39-9a53-2f4f1f0e8a11"

var assets = []model.Asset{
	{ID: "a1", Name: "World Index"},
	{ID: "a2", Name: "Bond Fund"},
}

var strict = validation.PlannedChangeValidator{Strict: true}

func validateForm(t *testing.T, f planner.Form) (planner.ChangeSpec, error) {
	t.Helper()
	d := planner.NewDraft(portfolioID, assets)
	f.ApplyTo(d)
	return strict.Validate(planner.Build(d))
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var valErr *validation.Error
	require.True(t, errors.As(err, &valErr), "expected a validation error, got %v", err)
	return valErr.Fields
}

// TestValidatePlannedChange covers the accepted shapes of a planned change.
//
// WHY: The canonical change is what gets stored and projected; each branch must
// come out with exactly the fields it uses.
func TestValidatePlannedChange(t *testing.T) {
	t.Run("weekly contribution every two weeks on monday and wednesday", func(t *testing.T) {
		spec, err := validateForm(t, planner.Form{
			ChangeType: "contribution",
			Date:       "2025-01-06",
			Amount:     "250.50",
			Frequency:  "weekly",
			Interval:   "2",
			DaysOfWeek: []string{"wednesday", "monday"},
		})
		require.NoError(t, err)

		require.NotNil(t, spec.Amount)
		assert.True(t, spec.Amount.Equal(decimal.RequireFromString("250.5")))
		assert.Nil(t, spec.TargetAllocations)
		require.NotNil(t, spec.Recurrence)
		assert.Equal(t, planner.Weekly, spec.Recurrence.Frequency)
		assert.Equal(t, 2, spec.Recurrence.Interval)
		assert.Equal(t, []planner.Weekday{planner.Monday, planner.Wednesday}, spec.Recurrence.DaysOfWeek)
		assert.Equal(t, planner.Never{}, spec.Recurrence.End)
	})

	t.Run("monthly withdrawal on the last friday until a date", func(t *testing.T) {
		spec, err := validateForm(t, planner.Form{
			ChangeType:      "withdrawal",
			Date:            "2025-01-31",
			Amount:          "75",
			Frequency:       "monthly",
			MonthOrdinal:    "last",
			MonthOrdinalDay: "friday",
			EndsOnType:      "on_date",
			EndsOnDate:      "2025-12-31",
		})
		require.NoError(t, err)

		assert.Equal(t, planner.OrdinalDay{Ordinal: planner.Last, DayType: planner.DayTypeFriday}, spec.Recurrence.MonthlyRule)
		assert.Equal(t, planner.OnDate{Date: time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)}, spec.Recurrence.End)
	})

	t.Run("reallocation keeps non-zero targets in portfolio order", func(t *testing.T) {
		spec, err := validateForm(t, planner.Form{
			ChangeType: "reallocation",
			Date:       "2025-06-01",
			TargetAllocations: []planner.FormAllocation{
				{AssetID: "a2", Percentage: "100"},
				{AssetID: "a1", Percentage: "0"},
			},
		})
		require.NoError(t, err)

		assert.Nil(t, spec.Amount)
		assert.Equal(t, []model.AllocationTarget{{AssetID: "a2", Percentage: 100}}, spec.TargetAllocations)
		assert.Nil(t, spec.Recurrence)
	})

	t.Run("disabled yearly recurrence yields a one-time change", func(t *testing.T) {
		d := planner.NewDraft(portfolioID, assets)
		planner.Form{
			ChangeType:  "contribution",
			Date:        "2025-01-01",
			Amount:      "1000",
			Frequency:   "yearly",
			DayOfMonth:  "99",
			MonthOfYear: "13",
		}.ApplyTo(d)
		d.SetRecurrenceEnabled(false)

		spec, err := strict.Validate(planner.Build(d))
		require.NoError(t, err)
		assert.Nil(t, spec.Recurrence)
	})

	t.Run("description is trimmed", func(t *testing.T) {
		spec, err := validateForm(t, planner.Form{ChangeType: "contribution", Date: "2025-01-01", Amount: "1", Description: "  bonus  "})
		require.NoError(t, err)
		assert.Equal(t, "bonus", spec.Description)
	})
}

// TestValidatePlannedChange_Errors covers field errors.
//
// WHY: Every problem must be reported on the field that causes it, all at once,
// so the user can fix the form in one pass.
func TestValidatePlannedChange_Errors(t *testing.T) {
	t.Run("allocations that do not add up to 100", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{
			ChangeType: "reallocation",
			Date:       "2025-06-01",
			TargetAllocations: []planner.FormAllocation{
				{AssetID: "a1", Percentage: "60"},
				{AssetID: "a2", Percentage: "30"},
			},
		})
		assert.Equal(t, map[string]string{planner.FieldTargetAllocations: validation.AllocationSumMessage}, fieldErrors(t, err))
	})

	t.Run("allocation out of range", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{
			ChangeType: "reallocation",
			Date:       "2025-06-01",
			TargetAllocations: []planner.FormAllocation{
				{AssetID: "a1", Percentage: "150"},
				{AssetID: "a2", Percentage: "-50"},
			},
		})
		assert.Equal(t, "allocation for World Index must be between 0 and 100", fieldErrors(t, err)[planner.FieldTargetAllocations])
	})

	t.Run("all targets zero", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{ChangeType: "reallocation", Date: "2025-06-01"})
		assert.Equal(t, "at least one allocation target is required", fieldErrors(t, err)[planner.FieldTargetAllocations])
	})

	t.Run("end date before the anchor date", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{
			ChangeType: "contribution",
			Date:       "2025-06-01",
			Amount:     "10",
			Frequency:  "daily",
			EndsOnType: "on_date",
			EndsOnDate: "2025-01-01",
		})
		assert.Equal(t, map[string]string{planner.FieldEndsOnDate: "end date cannot be before the start date"}, fieldErrors(t, err))
	})

	t.Run("missing basics are all reported", func(t *testing.T) {
		d := planner.NewDraft("not-a-uuid", assets)
		_, err := strict.Validate(planner.Build(d))

		fields := fieldErrors(t, err)
		assert.Equal(t, "portfolioId must be a valid UUID", fields[planner.FieldPortfolioID])
		assert.Equal(t, "change type is required", fields[planner.FieldChangeType])
		assert.Equal(t, "date is required", fields[planner.FieldDate])
	})

	t.Run("amount missing or malformed", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{ChangeType: "withdrawal", Date: "2025-01-01"})
		assert.Equal(t, "amount is required", fieldErrors(t, err)[planner.FieldAmount])

		_, err = validateForm(t, planner.Form{ChangeType: "withdrawal", Date: "2025-01-01", Amount: "lots"})
		assert.Equal(t, "amount must be a valid number", fieldErrors(t, err)[planner.FieldAmount])
	})

	t.Run("weekly without days", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{ChangeType: "contribution", Date: "2025-01-01", Amount: "1", Frequency: "weekly", Interval: "0"})
		fields := fieldErrors(t, err)
		assert.Equal(t, "select at least one day", fields[planner.FieldDaysOfWeek])
		assert.Equal(t, "interval must be at least 1", fields[planner.FieldInterval])
	})

	t.Run("yearly selectors out of range", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{
			ChangeType:  "contribution",
			Date:        "2025-01-01",
			Amount:      "1",
			Frequency:   "yearly",
			DayOfMonth:  "32",
			MonthOfYear: "13",
			EndsOnType:  "after_occurrences",
		})
		fields := fieldErrors(t, err)
		assert.Equal(t, "day of month must be between 1 and 31", fields[planner.FieldDayOfMonth])
		assert.Equal(t, "month must be between 1 and 12", fields[planner.FieldMonthOfYear])
		assert.Equal(t, "occurrences must be at least 1", fields[planner.FieldEndsOnOccurrences])
	})

	t.Run("monthly without a selector", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{ChangeType: "contribution", Date: "2025-01-01", Amount: "1", Frequency: "monthly"})
		assert.Contains(t, fieldErrors(t, err), planner.FieldMonthlyRule)
	})

	t.Run("description too long", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{ChangeType: "contribution", Date: "2025-01-01", Amount: "1", Description: strings.Repeat("x", 501)})
		assert.Contains(t, fieldErrors(t, err), planner.FieldDescription)
	})

	t.Run("description length counts characters", func(t *testing.T) {
		spec, err := validateForm(t, planner.Form{ChangeType: "contribution", Date: "2025-01-01", Amount: "1", Description: strings.Repeat("é", 500)})
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("é", 500), spec.Description)

		_, err = validateForm(t, planner.Form{ChangeType: "contribution", Date: "2025-01-01", Amount: "1", Description: strings.Repeat("日", 501)})
		assert.Contains(t, fieldErrors(t, err), planner.FieldDescription)
	})

	t.Run("day of month and ordinal day together", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{
			ChangeType:      "contribution",
			Date:            "2025-01-01",
			Amount:          "1",
			Frequency:       "monthly",
			DayOfMonth:      "15",
			MonthOrdinal:    "first",
			MonthOrdinalDay: "weekday",
		})
		assert.Equal(t, map[string]string{
			planner.FieldMonthlyRule: "choose either a day of the month or an ordinal day, not both",
		}, fieldErrors(t, err))
	})

	t.Run("error text is sorted by field", func(t *testing.T) {
		err := &validation.Error{Fields: map[string]string{"date": "b", "amount": "a"}}
		assert.Equal(t, "amount: a; date: b", err.Error())
	})
}

// TestValidatePlannedChange_AllocationTolerance covers the edge of the sum check.
//
// WHY: Percentages typed as decimals drift when summed; only drift below the
// tolerance may pass as 100.
func TestValidatePlannedChange_AllocationTolerance(t *testing.T) {
	tests := []struct {
		name   string
		second string
		valid  bool
	}{
		{"exactly 100", "50", true},
		{"within tolerance", "50.0000001", true},
		{"just outside tolerance", "50.00001", false},
		{"just below 100", "49.99999", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validateForm(t, planner.Form{
				ChangeType: "reallocation",
				Date:       "2025-06-01",
				TargetAllocations: []planner.FormAllocation{
					{AssetID: "a1", Percentage: "50"},
					{AssetID: "a2", Percentage: tt.second},
				},
			})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, validation.AllocationSumMessage, fieldErrors(t, err)[planner.FieldTargetAllocations])
		})
	}
}

// TestValidatePlannedChange_InactiveSelectors covers unreadable input left on
// selectors the chosen frequency does not use.
//
// WHY: A valid rule must not be blocked by leftovers from a frequency the user
// switched away from, whether the value was readable or not.
func TestValidatePlannedChange_InactiveSelectors(t *testing.T) {
	t.Run("draft switched from monthly to weekly", func(t *testing.T) {
		d := planner.NewDraft(portfolioID, assets)
		d.SetChangeType(planner.Contribution)
		d.SetDate("2025-01-06")
		d.SetAmount("100")
		d.SetFrequency(planner.Monthly)
		d.SetDayOfMonth("abc")
		d.SetMonthOfYear("xyz")
		d.SetFrequency(planner.Weekly)
		d.ToggleWeekday(planner.Monday)

		spec, err := strict.Validate(planner.Build(d))
		require.NoError(t, err)
		require.NotNil(t, spec.Recurrence)
		assert.Equal(t, planner.Weekly, spec.Recurrence.Frequency)
		assert.Equal(t, []planner.Weekday{planner.Monday}, spec.Recurrence.DaysOfWeek)
		assert.Nil(t, spec.Recurrence.MonthlyRule)
	})

	tests := []struct {
		name string
		form planner.Form
		want planner.Frequency
	}{
		{
			name: "weekly with an unreadable day of month",
			form: planner.Form{Frequency: "weekly", DaysOfWeek: []string{"mon"}, DayOfMonth: "abc"},
			want: planner.Weekly,
		},
		{
			name: "monthly with an unreadable month of year",
			form: planner.Form{Frequency: "monthly", DayOfMonth: "5", MonthOfYear: "xyz"},
			want: planner.Monthly,
		},
		{
			name: "daily with an unknown ordinal",
			form: planner.Form{Frequency: "daily", MonthOrdinal: "fifth"},
			want: planner.Daily,
		},
		{
			name: "yearly with an unknown weekday",
			form: planner.Form{Frequency: "yearly", DayOfMonth: "1", MonthOfYear: "4", DaysOfWeek: []string{"someday"}},
			want: planner.Yearly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.form
			f.ChangeType = "contribution"
			f.Date = "2025-01-06"
			f.Amount = "100"

			spec, err := validateForm(t, f)
			require.NoError(t, err)
			require.NotNil(t, spec.Recurrence)
			assert.Equal(t, tt.want, spec.Recurrence.Frequency)
			if tt.want != planner.Monthly && tt.want != planner.Yearly {
				assert.Nil(t, spec.Recurrence.MonthlyRule)
			}
		})
	}

	t.Run("errors on active selectors are still reported", func(t *testing.T) {
		_, err := validateForm(t, planner.Form{
			ChangeType: "contribution",
			Date:       "2025-01-06",
			Amount:     "100",
			Frequency:  "monthly",
			DayOfMonth: "abc",
		})
		assert.Equal(t, "day of month must be a whole number", fieldErrors(t, err)[planner.FieldDayOfMonth])
	})

	t.Run("candidate built elsewhere keeps only active selector errors", func(t *testing.T) {
		rule := planner.NewRecurrenceRule(planner.Daily)
		amount := decimal.NewFromInt(10)
		_, err := strict.Validate(planner.Candidate{
			PortfolioID: portfolioID,
			ChangeType:  planner.Contribution,
			Date:        time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
			Amount:      &amount,
			Recurrence:  &rule,
			Coercion: map[string]string{
				planner.FieldDayOfMonth:  "day of month must be a whole number",
				planner.FieldMonthOfYear: "month must be a whole number",
				planner.FieldInterval:    "interval must be a whole number",
			},
		})
		assert.Equal(t, map[string]string{planner.FieldInterval: "interval must be a whole number"}, fieldErrors(t, err))
	})
}

// TestPlannedChangeValidator_Strict covers candidates that were not normalized.
func TestPlannedChangeValidator_Strict(t *testing.T) {
	amount := decimal.NewFromInt(10)
	candidate := planner.Candidate{
		PortfolioID: portfolioID,
		ChangeType:  planner.Contribution,
		Date:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Amount:      &amount,
		Recurrence: &planner.RecurrenceRule{
			Frequency:  planner.Daily,
			Interval:   1,
			DaysOfWeek: []planner.Weekday{planner.Monday},
			End:        planner.Never{},
		},
	}

	t.Run("strict validator panics", func(t *testing.T) {
		defer func() {
			r := recover()
			err, ok := r.(error)
			require.True(t, ok, "expected an error panic, got %v", r)
			assert.ErrorIs(t, err, apperrors.ErrInvariantViolation)
		}()
		_, _ = strict.Validate(candidate)
		t.Fatal("expected panic")
	})

	t.Run("lenient validator repairs", func(t *testing.T) {
		spec, err := validation.ValidatePlannedChange(candidate)
		require.NoError(t, err)
		assert.Nil(t, spec.Recurrence.DaysOfWeek)
	})
}

// TestRoundTrip covers saving and re-opening a change.
//
// WHY: Editing a stored change must start from exactly what was saved; any drift
// would silently change the plan on the next save.
func TestRoundTrip(t *testing.T) {
	forms := map[string]planner.Form{
		"one-time contribution": {ChangeType: "contribution", Date: "2025-01-06", Amount: "250.50", Description: "bonus"},
		"daily withdrawal after occurrences": {
			ChangeType: "withdrawal", Date: "2025-01-06", Amount: "12.25",
			Frequency: "daily", Interval: "3", EndsOnType: "after_occurrences", EndsOnOccurrences: "10",
		},
		"weekly contribution": {
			ChangeType: "contribution", Date: "2025-01-06", Amount: "100",
			Frequency: "weekly", Interval: "2", DaysOfWeek: []string{"wed", "mon"},
		},
		"monthly last weekday until date": {
			ChangeType: "contribution", Date: "2025-01-31", Amount: "100",
			Frequency: "monthly", MonthOrdinal: "last", MonthOrdinalDay: "weekday",
			EndsOnType: "on_date", EndsOnDate: "2026-01-31",
		},
		"yearly reallocation": {
			ChangeType: "reallocation", Date: "2025-03-15",
			TargetAllocations: []planner.FormAllocation{{AssetID: "a1", Percentage: "62.5"}, {AssetID: "a2", Percentage: "37.5"}},
			Frequency:         "yearly", DayOfMonth: "15", MonthOfYear: "3",
		},
	}

	for name, form := range forms {
		t.Run(name, func(t *testing.T) {
			spec, err := validateForm(t, form)
			require.NoError(t, err)
			first := planner.Flatten(spec)

			d, err := planner.DraftFromRecord(first, assets)
			require.NoError(t, err)
			spec2, err := strict.Validate(planner.Build(d))
			require.NoError(t, err)
			second := planner.Flatten(spec2)

			if first.Amount != nil {
				require.NotNil(t, second.Amount)
				assert.True(t, first.Amount.Equal(*second.Amount))
			} else {
				assert.Nil(t, second.Amount)
			}
			first.Amount, second.Amount = nil, nil
			assert.Equal(t, first, second)
		})
	}

	t.Run("flattened weekly change uses wire names", func(t *testing.T) {
		spec, err := validateForm(t, forms["weekly contribution"])
		require.NoError(t, err)
		pc := planner.Flatten(spec)

		assert.Equal(t, "weekly", *pc.Frequency)
		assert.Equal(t, []string{"monday", "wednesday"}, pc.DaysOfWeek)
		assert.Equal(t, "never", *pc.EndsOnType)
		assert.Nil(t, pc.DayOfMonth)
		assert.Nil(t, pc.MonthOfYear)
		assert.Nil(t, pc.TargetAllocations)
	})
}
