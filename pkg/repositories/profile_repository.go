// Package repositories provides document-per-tenant data access with
// optimistic concurrency. Every mutable document carries a version; writes
// are compare-and-swap on that version and surface apperrors.ErrConflict
// on a lost race instead of silently dropping updates.
package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
	"github.com/promoforge-inc/promoforge-engine/pkg/database"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// ProfileRepository provides data access for brand profiles.
type ProfileRepository interface {
	Get(ctx context.Context, tenantID string) (*models.BrandProfile, error)
	// Save inserts the profile when Version is zero, otherwise performs a
	// versioned update. On success the profile's Version is advanced.
	Save(ctx context.Context, profile *models.BrandProfile) error
}

type profileRepository struct {
	db *database.DB
}

// NewProfileRepository creates a new ProfileRepository.
func NewProfileRepository(db *database.DB) ProfileRepository {
	return &profileRepository{db: db}
}

var _ ProfileRepository = (*profileRepository)(nil)

func (r *profileRepository) Get(ctx context.Context, tenantID string) (*models.BrandProfile, error) {
	query := `SELECT doc, version FROM brand_profiles WHERE tenant_id = $1`

	var doc []byte
	var version int64
	err := r.db.QueryRow(ctx, query, tenantID).Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query brand profile: %w", err)
	}

	var profile models.BrandProfile
	if err := json.Unmarshal(doc, &profile); err != nil {
		return nil, fmt.Errorf("failed to decode brand profile: %w", err)
	}
	profile.Version = version
	return &profile, nil
}

func (r *profileRepository) Save(ctx context.Context, profile *models.BrandProfile) error {
	doc, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode brand profile: %w", err)
	}

	if profile.Version == 0 {
		query := `
			INSERT INTO brand_profiles (tenant_id, doc)
			VALUES ($1, $2)
			ON CONFLICT (tenant_id) DO NOTHING`
		tag, err := r.db.Exec(ctx, query, profile.TenantID, doc)
		if err != nil {
			return fmt.Errorf("failed to insert brand profile: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrConflict
		}
		profile.Version = 1
		return nil
	}

	query := `
		UPDATE brand_profiles
		SET doc = $2, version = version + 1, updated_at = now()
		WHERE tenant_id = $1 AND version = $3`
	tag, err := r.db.Exec(ctx, query, profile.TenantID, doc, profile.Version)
	if err != nil {
		return fmt.Errorf("failed to update brand profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	profile.Version++
	return nil
}
