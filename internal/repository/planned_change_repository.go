package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
)

// PlannedChangeRepository provides data access methods for the planned_change and
// planned_change_allocation tables.
type PlannedChangeRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewPlannedChangeRepository creates a new PlannedChangeRepository with the provided database connection.
func NewPlannedChangeRepository(db *sql.DB) *PlannedChangeRepository {
	return &PlannedChangeRepository{db: db}
}

// WithTx returns a new PlannedChangeRepository scoped to the provided transaction.
func (r *PlannedChangeRepository) WithTx(tx *sql.Tx) *PlannedChangeRepository {
	return &PlannedChangeRepository{
		db: r.db,
		tx: tx,
	}
}

// getQuerier returns the active transaction if one is set, otherwise the database connection.
func (r *PlannedChangeRepository) getQuerier() interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const plannedChangeColumns = `
	id, portfolio_id, change_type, date, amount, description,
	frequency, recurrence_interval, days_of_week, day_of_month, month_ordinal,
	month_ordinal_day, month_of_year, ends_on_type, ends_on_occurrences, ends_on_date,
	is_expired, created_at, updated_at
`

// GetPlannedChangesPerPortfolio retrieves all planned changes of a portfolio, ordered by date.
// Returns an empty slice if the portfolio has none.
func (r *PlannedChangeRepository) GetPlannedChangesPerPortfolio(ctx context.Context, portfolioID string) ([]model.PlannedChangeRecord, error) {
	query := `SELECT ` + plannedChangeColumns + `
		FROM planned_change
		WHERE portfolio_id = ?
		ORDER BY date ASC, created_at ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned_change table: %w", err)
	}
	defer rows.Close()

	changes := []model.PlannedChangeRecord{}
	for rows.Next() {
		pc, err := scanPlannedChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, pc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating planned_change table: %w", err)
	}

	ids := make([]string, len(changes))
	for i, pc := range changes {
		ids[i] = pc.ID
	}
	allocations, err := r.getAllocations(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range changes {
		changes[i].TargetAllocations = allocations[changes[i].ID]
	}

	return changes, nil
}

// GetPlannedChange retrieves a single planned change with its allocation targets.
// Returns ErrPlannedChangeNotFound if no planned change with the given ID exists.
func (r *PlannedChangeRepository) GetPlannedChange(ctx context.Context, id string) (model.PlannedChangeRecord, error) {
	query := `SELECT ` + plannedChangeColumns + `
		FROM planned_change
		WHERE id = ?
	`

	pc, err := scanPlannedChange(r.getQuerier().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return model.PlannedChangeRecord{}, apperrors.ErrPlannedChangeNotFound
	}
	if err != nil {
		return model.PlannedChangeRecord{}, err
	}

	allocations, err := r.getAllocations(ctx, []string{id})
	if err != nil {
		return model.PlannedChangeRecord{}, err
	}
	pc.TargetAllocations = allocations[id]

	return pc, nil
}

// InsertPlannedChange stores a new planned change and its allocation targets.
// pc.ID must already be set.
func (r *PlannedChangeRepository) InsertPlannedChange(ctx context.Context, pc model.PlannedChange) error {
	query := `
		INSERT INTO planned_change (
			id, portfolio_id, change_type, date, amount, description,
			frequency, recurrence_interval, days_of_week, day_of_month, month_ordinal,
			month_ordinal_day, month_of_year, ends_on_type, ends_on_occurrences, ends_on_date,
			is_expired, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC().Format(time.RFC3339)
	args := append([]any{pc.ID}, plannedChangeValues(pc)...)
	args = append(args, false, now, now)

	if _, err := r.getQuerier().ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert planned_change: %w", err)
	}

	return r.insertAllocations(ctx, pc.ID, pc.TargetAllocations)
}

// UpdatePlannedChange replaces a stored planned change and its allocation targets.
// The expired flag is reset because the dates may have moved.
// Returns ErrPlannedChangeNotFound if no planned change with the given ID exists.
func (r *PlannedChangeRepository) UpdatePlannedChange(ctx context.Context, pc model.PlannedChange) error {
	query := `
		UPDATE planned_change
		SET portfolio_id = ?, change_type = ?, date = ?, amount = ?, description = ?,
			frequency = ?, recurrence_interval = ?, days_of_week = ?, day_of_month = ?, month_ordinal = ?,
			month_ordinal_day = ?, month_of_year = ?, ends_on_type = ?, ends_on_occurrences = ?, ends_on_date = ?,
			is_expired = ?, updated_at = ?
		WHERE id = ?
	`

	args := plannedChangeValues(pc)
	args = append(args, false, time.Now().UTC().Format(time.RFC3339), pc.ID)

	result, err := r.getQuerier().ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update planned_change: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrPlannedChangeNotFound
	}

	if _, err := r.getQuerier().ExecContext(ctx, `DELETE FROM planned_change_allocation WHERE planned_change_id = ?`, pc.ID); err != nil {
		return fmt.Errorf("failed to delete planned_change_allocation: %w", err)
	}

	return r.insertAllocations(ctx, pc.ID, pc.TargetAllocations)
}

// DeletePlannedChange removes a planned change; its allocation targets cascade.
// Returns ErrPlannedChangeNotFound if no planned change with the given ID exists.
func (r *PlannedChangeRepository) DeletePlannedChange(ctx context.Context, id string) error {
	result, err := r.getQuerier().ExecContext(ctx, `DELETE FROM planned_change WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete planned_change: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperrors.ErrPlannedChangeNotFound
	}

	return nil
}

// ExpireEnded flags planned changes that can have no occurrence on or after today:
// one-time changes dated before today and recurrences ending on a date before today.
// Returns the number of changes newly flagged.
func (r *PlannedChangeRepository) ExpireEnded(ctx context.Context, today time.Time) (int64, error) {
	query := `
		UPDATE planned_change
		SET is_expired = 1, updated_at = ?
		WHERE is_expired = 0
		AND (
			(frequency IS NULL AND date < ?)
			OR (ends_on_type = 'on_date' AND ends_on_date < ?)
		)
	`

	day := today.Format("2006-01-02")
	result, err := r.getQuerier().ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), day, day)
	if err != nil {
		return 0, fmt.Errorf("failed to expire planned changes: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

func (r *PlannedChangeRepository) insertAllocations(ctx context.Context, changeID string, targets []model.AllocationTarget) error {
	query := `
		INSERT INTO planned_change_allocation (id, planned_change_id, fund_id, percentage, position)
		VALUES (?, ?, ?, ?, ?)
	`
	for i, t := range targets {
		if _, err := r.getQuerier().ExecContext(ctx, query, uuid.New().String(), changeID, t.AssetID, t.Percentage, i); err != nil {
			return fmt.Errorf("failed to insert planned_change_allocation: %w", err)
		}
	}
	return nil
}

// getAllocations loads allocation targets for the given planned change IDs, grouped
// by planned change and kept in their stored order.
func (r *PlannedChangeRepository) getAllocations(ctx context.Context, changeIDs []string) (map[string][]model.AllocationTarget, error) {
	allocations := make(map[string][]model.AllocationTarget)
	if len(changeIDs) == 0 {
		return allocations, nil
	}

	placeholders := make([]string, len(changeIDs))
	args := make([]any, len(changeIDs))
	for i, id := range changeIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := `
		SELECT planned_change_id, fund_id, percentage
		FROM planned_change_allocation
		WHERE planned_change_id IN (` + strings.Join(placeholders, ",") + `)
		ORDER BY planned_change_id, position ASC
	`

	rows, err := r.getQuerier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query planned_change_allocation table: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var changeID string
		var t model.AllocationTarget
		if err := rows.Scan(&changeID, &t.AssetID, &t.Percentage); err != nil {
			return nil, fmt.Errorf("failed to scan planned_change_allocation table results: %w", err)
		}
		allocations[changeID] = append(allocations[changeID], t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating planned_change_allocation table: %w", err)
	}

	return allocations, nil
}

// plannedChangeValues returns the column values after id, in plannedChangeColumns
// order, up to and excluding is_expired.
func plannedChangeValues(pc model.PlannedChange) []any {
	var amount sql.NullString
	if pc.Amount != nil {
		amount = sql.NullString{String: pc.Amount.String(), Valid: true}
	}
	var days sql.NullString
	if len(pc.DaysOfWeek) > 0 {
		days = sql.NullString{String: strings.Join(pc.DaysOfWeek, ","), Valid: true}
	}

	return []any{
		pc.PortfolioID,
		pc.ChangeType,
		pc.Date,
		amount,
		pc.Description,
		nullString(pc.Frequency),
		nullInt(pc.Interval),
		days,
		nullInt(pc.DayOfMonth),
		nullString(pc.MonthOrdinal),
		nullString(pc.MonthOrdinalDay),
		nullInt(pc.MonthOfYear),
		nullString(pc.EndsOnType),
		nullInt(pc.EndsOnOccurrences),
		nullString(pc.EndsOnDate),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

//nolint:funlen // One destination per column.
func scanPlannedChange(row rowScanner) (model.PlannedChangeRecord, error) {
	var pc model.PlannedChangeRecord
	var (
		dateStr, createdAtStr, updatedAtStr                  string
		amount, description, frequency, days, ordinal        sql.NullString
		ordinalDay, endsOnType, endsOnDate                   sql.NullString
		interval, dayOfMonth, monthOfYear, endsOnOccurrences sql.NullInt64
	)

	err := row.Scan(
		&pc.ID,
		&pc.PortfolioID,
		&pc.ChangeType,
		&dateStr,
		&amount,
		&description,
		&frequency,
		&interval,
		&days,
		&dayOfMonth,
		&ordinal,
		&ordinalDay,
		&monthOfYear,
		&endsOnType,
		&endsOnOccurrences,
		&endsOnDate,
		&pc.IsExpired,
		&createdAtStr,
		&updatedAtStr,
	)
	if err == sql.ErrNoRows {
		return pc, err
	}
	if err != nil {
		return pc, fmt.Errorf("failed to scan planned_change table results: %w", err)
	}

	date, err := ParseTime(dateStr)
	if err != nil {
		return pc, fmt.Errorf("%w: planned change %s: %w", apperrors.ErrDataInconsistency, pc.ID, err)
	}
	pc.Date = date.Format("2006-01-02")

	if pc.CreatedAt, err = ParseTime(createdAtStr); err != nil {
		return pc, fmt.Errorf("%w: planned change %s: %w", apperrors.ErrDataInconsistency, pc.ID, err)
	}
	if pc.UpdatedAt, err = ParseTime(updatedAtStr); err != nil {
		return pc, fmt.Errorf("%w: planned change %s: %w", apperrors.ErrDataInconsistency, pc.ID, err)
	}

	if amount.Valid {
		d, err := decimal.NewFromString(amount.String)
		if err != nil {
			return pc, fmt.Errorf("%w: planned change %s amount: %w", apperrors.ErrDataInconsistency, pc.ID, err)
		}
		pc.Amount = &d
	}
	pc.Description = description.String
	pc.Frequency = stringPtr(frequency)
	pc.Interval = intPtr(interval)
	if days.Valid && days.String != "" {
		pc.DaysOfWeek = strings.Split(days.String, ",")
	}
	pc.DayOfMonth = intPtr(dayOfMonth)
	pc.MonthOrdinal = stringPtr(ordinal)
	pc.MonthOrdinalDay = stringPtr(ordinalDay)
	pc.MonthOfYear = intPtr(monthOfYear)
	pc.EndsOnType = stringPtr(endsOnType)
	pc.EndsOnOccurrences = intPtr(endsOnOccurrences)
	if endsOnDate.Valid {
		d, err := ParseTime(endsOnDate.String)
		if err != nil {
			return pc, fmt.Errorf("%w: planned change %s: %w", apperrors.ErrDataInconsistency, pc.ID, err)
		}
		s := d.Format("2006-01-02")
		pc.EndsOnDate = &s
	}

	return pc, nil
}
