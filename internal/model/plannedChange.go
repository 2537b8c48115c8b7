package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationTarget is the desired share of portfolio value for one asset after a
// reallocation, in percent.
type AllocationTarget struct {
	AssetID    string  `json:"assetId"`
	Percentage float64 `json:"percentage"`
}

// PlannedChange is the flattened wire and storage shape of a planned change.
// Recurrence fields are nil for a one-time change, and each selector is nil unless
// the active frequency uses it.
type PlannedChange struct {
	ID                string             `json:"id,omitempty"`
	PortfolioID       string             `json:"portfolioId"`
	ChangeType        string             `json:"changeType"`
	Date              string             `json:"date"`
	Amount            *decimal.Decimal   `json:"amount"`
	TargetAllocations []AllocationTarget `json:"targetAllocations"`
	Description       string             `json:"description"`

	Frequency         *string  `json:"frequency"`
	Interval          *int     `json:"interval"`
	DaysOfWeek        []string `json:"daysOfWeek"`
	DayOfMonth        *int     `json:"dayOfMonth"`
	MonthOrdinal      *string  `json:"monthOrdinal"`
	MonthOrdinalDay   *string  `json:"monthOrdinalDay"`
	MonthOfYear       *int     `json:"monthOfYear"`
	EndsOnType        *string  `json:"endsOnType"`
	EndsOnOccurrences *int     `json:"endsOnOccurrences"`
	EndsOnDate        *string  `json:"endsOnDate"`
}

// PlannedChangeRecord is a persisted planned change with bookkeeping columns.
type PlannedChangeRecord struct {
	PlannedChange
	IsExpired bool      `json:"isExpired"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProjectionPoint is one projected portfolio value.
type ProjectionPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Projection is the preview returned by the projection engine for a planned change
// that has not been saved.
type Projection struct {
	Points []ProjectionPoint `json:"points"`
}
