package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
)

// AssetRepository lists the funds a portfolio holds as reallocation assets.
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository with the provided database connection.
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// GetPortfolioAssets retrieves the funds attached to a portfolio via the portfolio_fund
// join table, in the order they were attached.
// Returns an empty slice if the portfolio holds no funds.
func (r *AssetRepository) GetPortfolioAssets(ctx context.Context, portfolioID string) ([]model.Asset, error) {
	query := `
		SELECT fund.id, fund.name
		FROM portfolio_fund
		JOIN fund ON fund.id = portfolio_fund.fund_id
		WHERE portfolio_fund.portfolio_id = ?
		ORDER BY portfolio_fund.rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve portfolio assets via portfolio_fund JOIN (portfolio_id=%s): %w", portfolioID, err)
	}
	defer rows.Close()

	assets := []model.Asset{}

	for rows.Next() {
		var a model.Asset
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan fund or portfolio_fund table results: %w", err)
		}
		assets = append(assets, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio_fund JOIN results: %w", err)
	}

	return assets, nil
}
