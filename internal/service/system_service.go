package service

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/ndewijer/Investment-Portfolio-Planner/internal/database"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/model"
	"github.com/ndewijer/Investment-Portfolio-Planner/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db              *sql.DB
	previewEnabled  bool
	strictInvariant bool
}

// NewSystemService creates a new SystemService. The flags are reported as features.
func NewSystemService(db *sql.DB, previewEnabled, strictInvariant bool) *SystemService {
	return &SystemService{
		db:              db,
		previewEnabled:  previewEnabled,
		strictInvariant: strictInvariant,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth(ctx context.Context) error {
	return database.HealthCheck(ctx, s.db)
}

// CheckVersion reports the application and schema versions and which optional
// features are enabled.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	current, pending, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, err
	}

	info := model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(current, 10),
		Features: map[string]bool{
			"planned_changes":    true,
			"projection_preview": s.previewEnabled,
			"strict_invariants":  s.strictInvariant,
		},
		MigrationNeeded: pending,
	}
	if pending {
		msg := "database schema is behind the application; restart to apply migrations"
		info.MigrationMessage = &msg
	}
	return info, nil
}
