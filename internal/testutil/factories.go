package testutil

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/repository"
)

// PortfolioBuilder provides a fluent interface for creating test portfolios.
//
// Example usage:
//
//	// Simple creation with defaults
//	portfolio := testutil.NewPortfolio().Build(t, db)
//
//	// Customized portfolio
//	portfolio := testutil.NewPortfolio().
//	    WithName("Custom Portfolio").
//	    Archived().
//	    Build(t, db)
type PortfolioBuilder struct {
	ID                  string
	Name                string
	Description         string
	IsArchived          bool
	ExcludeFromOverview bool
}

// NewPortfolio creates a PortfolioBuilder with sensible defaults.
func NewPortfolio() *PortfolioBuilder {
	return &PortfolioBuilder{
		ID:          MakeID(),
		Name:        MakePortfolioName("Test Portfolio"),
		Description: "Test description",
	}
}

// WithID sets a custom ID.
func (b *PortfolioBuilder) WithID(id string) *PortfolioBuilder {
	b.ID = id
	return b
}

// WithName sets a custom name.
func (b *PortfolioBuilder) WithName(name string) *PortfolioBuilder {
	b.Name = name
	return b
}

// Archived marks the portfolio as archived.
func (b *PortfolioBuilder) Archived() *PortfolioBuilder {
	b.IsArchived = true
	return b
}

// Build creates the portfolio in the database and returns it.
func (b *PortfolioBuilder) Build(t *testing.T, db *sql.DB) model.Portfolio {
	t.Helper()

	query := `
		INSERT INTO portfolio (id, name, description, is_archived, exclude_from_overview)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.Description, b.IsArchived, b.ExcludeFromOverview)
	if err != nil {
		t.Fatalf("Failed to create test portfolio: %v", err)
	}

	return model.Portfolio{
		ID:                  b.ID,
		Name:                b.Name,
		Description:         b.Description,
		IsArchived:          b.IsArchived,
		ExcludeFromOverview: b.ExcludeFromOverview,
	}
}

// CreatePortfolio creates a portfolio with the given name and default values.
func CreatePortfolio(t *testing.T, db *sql.DB, name string) model.Portfolio {
	t.Helper()
	return NewPortfolio().WithName(name).Build(t, db)
}

// FundBuilder provides a fluent interface for creating test funds.
//
// Example usage:
//
//	fund := testutil.NewFund().
//	    WithName("World Index").
//	    Build(t, db)
type FundBuilder struct {
	ID             string
	Name           string
	ISIN           string
	Symbol         string
	Currency       string
	Exchange       string
	InvestmentType string
	DividendType   string
}

// NewFund creates a FundBuilder with sensible defaults.
func NewFund() *FundBuilder {
	return &FundBuilder{
		ID:             MakeID(),
		Name:           MakeFundName("Test Fund"),
		ISIN:           MakeISIN("US"),
		Symbol:         MakeSymbol("TEST"),
		Currency:       "USD",
		Exchange:       "NASDAQ",
		InvestmentType: "FUND",
		DividendType:   "NONE",
	}
}

// WithName sets a custom name.
func (b *FundBuilder) WithName(name string) *FundBuilder {
	b.Name = name
	return b
}

// Build creates the fund in the database and returns it as a reallocation asset.
func (b *FundBuilder) Build(t *testing.T, db *sql.DB) model.Asset {
	t.Helper()

	query := `
		INSERT INTO fund (id, name, isin, symbol, currency, exchange, investment_type, dividend_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.Exec(query, b.ID, b.Name, b.ISIN, b.Symbol, b.Currency, b.Exchange, b.InvestmentType, b.DividendType)
	if err != nil {
		t.Fatalf("Failed to create test fund: %v", err)
	}

	return model.Asset{ID: b.ID, Name: b.Name}
}

// AttachFund links a fund to a portfolio through the portfolio_fund table.
func AttachFund(t *testing.T, db *sql.DB, portfolioID, fundID string) {
	t.Helper()

	query := `
		INSERT INTO portfolio_fund (id, portfolio_id, fund_id)
		VALUES (?, ?, ?)
	`

	if _, err := db.Exec(query, MakeID(), portfolioID, fundID); err != nil {
		t.Fatalf("Failed to create portfolio_fund: %v", err)
	}
}

// CreatePortfolioWithAssets creates a portfolio holding count new funds and
// returns the funds in attachment order.
//
// Example usage:
//
//	portfolio, assets := testutil.CreatePortfolioWithAssets(t, db, 2)
func CreatePortfolioWithAssets(t *testing.T, db *sql.DB, count int) (model.Portfolio, []model.Asset) {
	t.Helper()

	portfolio := NewPortfolio().Build(t, db)
	assets := make([]model.Asset, count)
	for i := range assets {
		assets[i] = NewFund().Build(t, db)
		AttachFund(t, db, portfolio.ID, assets[i].ID)
	}
	return portfolio, assets
}

// PlannedChangeBuilder provides a fluent interface for storing test planned changes.
// The default is a one-time contribution of 100.
//
// Example usage:
//
//	rec := testutil.NewPlannedChange(portfolio.ID).
//	    WithDate("2025-01-06").
//	    Monthly(15).
//	    Build(t, db)
type PlannedChangeBuilder struct {
	pc model.PlannedChange
}

// NewPlannedChange creates a PlannedChangeBuilder for a portfolio.
func NewPlannedChange(portfolioID string) *PlannedChangeBuilder {
	amount := decimal.NewFromInt(100)
	return &PlannedChangeBuilder{pc: model.PlannedChange{
		ID:          MakeID(),
		PortfolioID: portfolioID,
		ChangeType:  "contribution",
		Date:        "2025-01-06",
		Amount:      &amount,
	}}
}

// WithDate sets the anchor date (YYYY-MM-DD).
func (b *PlannedChangeBuilder) WithDate(date string) *PlannedChangeBuilder {
	b.pc.Date = date
	return b
}

// WithAmount sets the amount of a contribution or withdrawal.
func (b *PlannedChangeBuilder) WithAmount(amount string) *PlannedChangeBuilder {
	d := decimal.RequireFromString(amount)
	b.pc.Amount = &d
	return b
}

// WithDescription sets the description.
func (b *PlannedChangeBuilder) WithDescription(desc string) *PlannedChangeBuilder {
	b.pc.Description = desc
	return b
}

// Withdrawal turns the change into a withdrawal.
func (b *PlannedChangeBuilder) Withdrawal() *PlannedChangeBuilder {
	b.pc.ChangeType = "withdrawal"
	return b
}

// Reallocation turns the change into a reallocation with the given targets.
func (b *PlannedChangeBuilder) Reallocation(targets ...model.AllocationTarget) *PlannedChangeBuilder {
	b.pc.ChangeType = "reallocation"
	b.pc.Amount = nil
	b.pc.TargetAllocations = targets
	return b
}

// Weekly makes the change repeat every week on the given days, forever.
func (b *PlannedChangeBuilder) Weekly(days ...string) *PlannedChangeBuilder {
	b.recurring("weekly")
	b.pc.DaysOfWeek = days
	return b
}

// Monthly makes the change repeat every month on a fixed day, forever.
func (b *PlannedChangeBuilder) Monthly(day int) *PlannedChangeBuilder {
	b.recurring("monthly")
	b.pc.DayOfMonth = &day
	return b
}

// EndsOn ends a recurring change on date (YYYY-MM-DD).
func (b *PlannedChangeBuilder) EndsOn(date string) *PlannedChangeBuilder {
	endType := "on_date"
	b.pc.EndsOnType = &endType
	b.pc.EndsOnDate = &date
	return b
}

// EndsAfter ends a recurring change after n occurrences.
func (b *PlannedChangeBuilder) EndsAfter(n int) *PlannedChangeBuilder {
	endType := "after_occurrences"
	b.pc.EndsOnType = &endType
	b.pc.EndsOnOccurrences = &n
	return b
}

func (b *PlannedChangeBuilder) recurring(frequency string) {
	interval := 1
	endType := "never"
	b.pc.Frequency = &frequency
	b.pc.Interval = &interval
	b.pc.EndsOnType = &endType
}

// PlannedChange returns the change without storing it.
func (b *PlannedChangeBuilder) PlannedChange() model.PlannedChange {
	return b.pc
}

// Build stores the planned change and returns the stored record.
func (b *PlannedChangeBuilder) Build(t *testing.T, db *sql.DB) model.PlannedChangeRecord {
	t.Helper()

	repo := repository.NewPlannedChangeRepository(db)
	ctx := context.Background()
	if err := repo.InsertPlannedChange(ctx, b.pc); err != nil {
		t.Fatalf("Failed to create test planned change: %v", err)
	}

	rec, err := repo.GetPlannedChange(ctx, b.pc.ID)
	if err != nil {
		t.Fatalf("Failed to reload test planned change: %v", err)
	}
	return rec
}
