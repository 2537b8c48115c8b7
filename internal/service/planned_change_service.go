package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/apperrors"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/planner"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/repository"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/validation"
)

// PlannedChangeService handles planned change business logic: opening editing
// sessions, persisting canonical changes and expiring changes that have ended.
type PlannedChangeService struct {
	db                *sql.DB
	plannedChangeRepo *repository.PlannedChangeRepository
	portfolioRepo     *repository.PortfolioRepository
	assetRepo         *repository.AssetRepository
	validator         validation.PlannedChangeValidator
	previewer         Previewer
}

// NewPlannedChangeService creates a new PlannedChangeService.
// previewer may be nil when no projection engine is configured.
func NewPlannedChangeService(
	db *sql.DB,
	plannedChangeRepo *repository.PlannedChangeRepository,
	portfolioRepo *repository.PortfolioRepository,
	assetRepo *repository.AssetRepository,
	validator validation.PlannedChangeValidator,
	previewer Previewer,
) *PlannedChangeService {
	return &PlannedChangeService{
		db:                db,
		plannedChangeRepo: plannedChangeRepo,
		portfolioRepo:     portfolioRepo,
		assetRepo:         assetRepo,
		validator:         validator,
		previewer:         previewer,
	}
}

// NewEditor opens an editing session.
//
// With an empty changeID the session creates a new planned change in portfolioID,
// which must exist (ErrPortfolioNotFound) when it is a well-formed UUID.
// Otherwise the stored change and the portfolio's assets are loaded concurrently and
// the draft is hydrated from the record. portfolioID may then be empty, in which case
// the record's portfolio is used; if it is set and differs from the record's,
// ErrPlannedChangeNotFound is returned.
func (s *PlannedChangeService) NewEditor(ctx context.Context, portfolioID, changeID string) (*Editor, error) {
	var (
		rec    model.PlannedChangeRecord
		assets []model.Asset
	)

	g, gctx := errgroup.WithContext(ctx)
	if changeID != "" {
		g.Go(func() error {
			var err error
			rec, err = s.plannedChangeRepo.GetPlannedChange(gctx, changeID)
			return err
		})
	}
	if portfolioID != "" {
		g.Go(func() error {
			var err error
			assets, err = s.assetRepo.GetPortfolioAssets(gctx, portfolioID)
			return err
		})
	}
	// A malformed portfolio id is left to validation so it is reported on its field.
	if changeID == "" && validation.ValidateUUID(portfolioID) == nil {
		g.Go(func() error {
			_, err := s.portfolioRepo.GetPortfolioOnID(gctx, portfolioID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if changeID == "" {
		return NewEditor(planner.NewDraft(portfolioID, assets), s.validator, s, s.previewer), nil
	}

	switch {
	case portfolioID == "":
		var err error
		if assets, err = s.assetRepo.GetPortfolioAssets(ctx, rec.PortfolioID); err != nil {
			return nil, err
		}
	case portfolioID != rec.PortfolioID:
		return nil, apperrors.ErrPlannedChangeNotFound
	}

	draft, err := planner.DraftFromRecord(rec.PlannedChange, assets)
	if err != nil {
		return nil, fmt.Errorf("%w: planned change %s: %w", apperrors.ErrDataInconsistency, changeID, err)
	}

	log.Debug().Str("planned_change_id", changeID).Msg("hydrated planned change editor")
	return NewEditor(draft, s.validator, s, s.previewer), nil
}

// Save stores a canonical planned change, inserting it when spec.ID is empty and
// replacing the stored change otherwise. The portfolio must exist and every
// allocation target must be one of its assets; a foreign asset is reported as a
// validation Error on targetAllocations.
//
// Returns the stored record, including bookkeeping columns.
func (s *PlannedChangeService) Save(ctx context.Context, spec planner.ChangeSpec) (model.PlannedChangeRecord, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(ctx, spec.PortfolioID); err != nil {
		return model.PlannedChangeRecord{}, err
	}

	if len(spec.TargetAllocations) > 0 {
		assets, err := s.assetRepo.GetPortfolioAssets(ctx, spec.PortfolioID)
		if err != nil {
			return model.PlannedChangeRecord{}, err
		}
		held := make(map[string]bool, len(assets))
		for _, a := range assets {
			held[a.ID] = true
		}
		for _, t := range spec.TargetAllocations {
			if !held[t.AssetID] {
				return model.PlannedChangeRecord{}, &validation.Error{Fields: map[string]string{
					planner.FieldTargetAllocations: fmt.Sprintf("asset %s is not part of this portfolio", t.AssetID),
				}}
			}
		}
	}

	pc := planner.Flatten(spec)
	insert := pc.ID == ""
	if insert {
		pc.ID = uuid.New().String()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PlannedChangeRecord{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	repo := s.plannedChangeRepo.WithTx(tx)
	if insert {
		err = repo.InsertPlannedChange(ctx, pc)
	} else {
		err = repo.UpdatePlannedChange(ctx, pc)
	}
	if err != nil {
		return model.PlannedChangeRecord{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.PlannedChangeRecord{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().
		Str("planned_change_id", pc.ID).
		Str("portfolio_id", pc.PortfolioID).
		Str("change_type", pc.ChangeType).
		Bool("recurring", pc.Frequency != nil).
		Bool("created", insert).
		Msg("saved planned change")

	return s.plannedChangeRepo.GetPlannedChange(ctx, pc.ID)
}

// GetPlannedChange retrieves a single planned change.
func (s *PlannedChangeService) GetPlannedChange(ctx context.Context, id string) (model.PlannedChangeRecord, error) {
	return s.plannedChangeRepo.GetPlannedChange(ctx, id)
}

// GetPlannedChangesPerPortfolio retrieves all planned changes of a portfolio, ordered by date.
// Returns ErrPortfolioNotFound if the portfolio does not exist.
func (s *PlannedChangeService) GetPlannedChangesPerPortfolio(ctx context.Context, portfolioID string) ([]model.PlannedChangeRecord, error) {
	if _, err := s.portfolioRepo.GetPortfolioOnID(ctx, portfolioID); err != nil {
		return nil, err
	}
	changes, err := s.plannedChangeRepo.GetPlannedChangesPerPortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("portfolio_id", portfolioID).Int("count", len(changes)).Msg("listed planned changes")
	return changes, nil
}

// DeletePlannedChange removes a planned change.
// Returns ErrPlannedChangeNotFound if it does not exist.
func (s *PlannedChangeService) DeletePlannedChange(ctx context.Context, id string) error {
	if err := s.plannedChangeRepo.DeletePlannedChange(ctx, id); err != nil {
		return err
	}
	log.Info().Str("planned_change_id", id).Msg("deleted planned change")
	return nil
}

// ExpireEnded flags planned changes that can no longer occur on or after today.
func (s *PlannedChangeService) ExpireEnded(ctx context.Context, today time.Time) (int64, error) {
	n, err := s.plannedChangeRepo.ExpireEnded(ctx, planner.DateOnly(today))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("expired", n).Msg("expired ended planned changes")
	}
	return n, nil
}
