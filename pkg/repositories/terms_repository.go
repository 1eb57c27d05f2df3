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

// TermDictionaryRepository provides data access for tenant vocabularies.
type TermDictionaryRepository interface {
	// Get returns the tenant's dictionary, or a fresh empty one (Version 0)
	// when the tenant has none yet.
	Get(ctx context.Context, tenantID string) (*models.TermDictionary, error)
	Save(ctx context.Context, dict *models.TermDictionary) error
}

// TermStatsRepository provides data access for token statistics.
type TermStatsRepository interface {
	Get(ctx context.Context, tenantID string) (*models.TermStats, error)
	Save(ctx context.Context, stats *models.TermStats) error
}

type termDictionaryRepository struct {
	db *database.DB
}

// NewTermDictionaryRepository creates a new TermDictionaryRepository.
func NewTermDictionaryRepository(db *database.DB) TermDictionaryRepository {
	return &termDictionaryRepository{db: db}
}

var _ TermDictionaryRepository = (*termDictionaryRepository)(nil)

func (r *termDictionaryRepository) Get(ctx context.Context, tenantID string) (*models.TermDictionary, error) {
	var doc []byte
	var version int64
	err := r.db.QueryRow(ctx,
		`SELECT doc, version FROM term_dictionaries WHERE tenant_id = $1`, tenantID).
		Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewTermDictionary(tenantID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query term dictionary: %w", err)
	}

	var dict models.TermDictionary
	if err := json.Unmarshal(doc, &dict); err != nil {
		return nil, fmt.Errorf("failed to decode term dictionary: %w", err)
	}
	dict.Version = version
	return &dict, nil
}

func (r *termDictionaryRepository) Save(ctx context.Context, dict *models.TermDictionary) error {
	doc, err := json.Marshal(dict)
	if err != nil {
		return fmt.Errorf("failed to encode term dictionary: %w", err)
	}
	return saveVersionedDoc(ctx, r.db, "term_dictionaries", dict.TenantID, doc, &dict.Version)
}

type termStatsRepository struct {
	db *database.DB
}

// NewTermStatsRepository creates a new TermStatsRepository.
func NewTermStatsRepository(db *database.DB) TermStatsRepository {
	return &termStatsRepository{db: db}
}

var _ TermStatsRepository = (*termStatsRepository)(nil)

func (r *termStatsRepository) Get(ctx context.Context, tenantID string) (*models.TermStats, error) {
	var doc []byte
	var version int64
	err := r.db.QueryRow(ctx,
		`SELECT doc, version FROM term_stats WHERE tenant_id = $1`, tenantID).
		Scan(&doc, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewTermStats(tenantID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query term stats: %w", err)
	}

	var stats models.TermStats
	if err := json.Unmarshal(doc, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode term stats: %w", err)
	}
	stats.Version = version
	return &stats, nil
}

func (r *termStatsRepository) Save(ctx context.Context, stats *models.TermStats) error {
	doc, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode term stats: %w", err)
	}
	return saveVersionedDoc(ctx, r.db, "term_stats", stats.TenantID, doc, &stats.Version)
}

// saveVersionedDoc implements the shared insert-or-CAS-update cycle for
// single-key tenant documents.
func saveVersionedDoc(ctx context.Context, db *database.DB, table, tenantID string, doc []byte, version *int64) error {
	if *version == 0 {
		query := fmt.Sprintf(`
			INSERT INTO %s (tenant_id, doc)
			VALUES ($1, $2)
			ON CONFLICT (tenant_id) DO NOTHING`, table)
		tag, err := db.Exec(ctx, query, tenantID, doc)
		if err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrConflict
		}
		*version = 1
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET doc = $2, version = version + 1, updated_at = now()
		WHERE tenant_id = $1 AND version = $3`, table)
	tag, err := db.Exec(ctx, query, tenantID, doc, *version)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	*version++
	return nil
}
