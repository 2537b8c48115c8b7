package planner

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
)

// Candidate is a planned change assembled from a draft but not yet validated.
// Values that could not be read from the form are left zero and explained in Coercion.
type Candidate struct {
	ID          string
	PortfolioID string
	ChangeType  ChangeType
	Date        time.Time
	Amount      *decimal.Decimal
	Allocations []AllocationEntry
	Description string
	Recurrence  *RecurrenceRule
	Coercion    map[string]string
}

// ChangeSpec is a validated planned change. Exactly one of Amount and
// TargetAllocations is set, Recurrence is nil for one-time changes, and a non-nil
// Recurrence is normalized.
type ChangeSpec struct {
	ID                string
	PortfolioID       string
	ChangeType        ChangeType
	Date              time.Time
	Amount            *decimal.Decimal
	TargetAllocations []model.AllocationTarget
	Description       string
	Recurrence        *RecurrenceRule
}

// Build assembles a candidate from a snapshot of d. The branch the change type
// does not use is left nil and the recurrence rule, if any, is normalized.
func Build(d *Draft) Candidate {
	c := Candidate{
		ID:          d.id,
		PortfolioID: d.portfolioID,
		ChangeType:  d.changeType,
		Description: d.description,
		Coercion:    maps.Clone(d.coercion),
	}
	if c.Coercion == nil {
		c.Coercion = make(map[string]string)
	}

	if d.date != "" {
		date, err := ParseDate(d.date)
		if err != nil {
			c.Coercion[FieldDate] = "date must be a valid date (YYYY-MM-DD)"
		} else {
			c.Date = date
		}
	}

	switch {
	case d.changeType.UsesAmount():
		amount, err := ParseAmount(d.amount)
		if err != nil {
			c.Coercion[FieldAmount] = "amount must be a valid number"
		}
		c.Amount = amount
	case d.changeType == Reallocation && d.allocations != nil:
		c.Allocations = d.allocations.Entries()
	}

	if d.rule != nil {
		rule := d.rule.Normalize()
		c.Recurrence = &rule
	}
	return c
}
