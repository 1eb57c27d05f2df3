package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
	"github.com/promoforge-inc/promoforge-engine/pkg/database"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// ABStatsRepository provides data access for per-(tenant, market) bandit
// counters. The decay timestamp is stored alongside the document so a read
// can tell how stale the counters are.
type ABStatsRepository interface {
	// Get returns the stats document, or a fresh empty one (Version 0)
	// when the pair has no history yet.
	Get(ctx context.Context, tenantID, marketID string) (*models.ABStats, error)
	// Save inserts on Version zero, otherwise performs a versioned update.
	Save(ctx context.Context, stats *models.ABStats) error
}

type abStatsRepository struct {
	db *database.DB
}

// NewABStatsRepository creates a new ABStatsRepository.
func NewABStatsRepository(db *database.DB) ABStatsRepository {
	return &abStatsRepository{db: db}
}

var _ ABStatsRepository = (*abStatsRepository)(nil)

func (r *abStatsRepository) Get(ctx context.Context, tenantID, marketID string) (*models.ABStats, error) {
	query := `SELECT doc, last_decay_at, version FROM ab_stats WHERE tenant_id = $1 AND market_id = $2`

	var doc []byte
	var lastDecayAt time.Time
	var version int64
	err := r.db.QueryRow(ctx, query, tenantID, marketID).Scan(&doc, &lastDecayAt, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.NewABStats(tenantID, marketID, time.Now().UTC()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query ab stats: %w", err)
	}

	var stats models.ABStats
	if err := json.Unmarshal(doc, &stats); err != nil {
		return nil, fmt.Errorf("failed to decode ab stats: %w", err)
	}
	stats.LastDecayAt = lastDecayAt
	stats.Version = version
	return &stats, nil
}

func (r *abStatsRepository) Save(ctx context.Context, stats *models.ABStats) error {
	doc, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode ab stats: %w", err)
	}

	if stats.Version == 0 {
		query := `
			INSERT INTO ab_stats (tenant_id, market_id, doc, last_decay_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tenant_id, market_id) DO NOTHING`
		tag, err := r.db.Exec(ctx, query, stats.TenantID, stats.MarketID, doc, stats.LastDecayAt)
		if err != nil {
			return fmt.Errorf("failed to insert ab stats: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrConflict
		}
		stats.Version = 1
		return nil
	}

	query := `
		UPDATE ab_stats
		SET doc = $3, last_decay_at = $4, version = version + 1, updated_at = now()
		WHERE tenant_id = $1 AND market_id = $2 AND version = $5`
	tag, err := r.db.Exec(ctx, query, stats.TenantID, stats.MarketID, doc, stats.LastDecayAt, stats.Version)
	if err != nil {
		return fmt.Errorf("failed to update ab stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrConflict
	}
	stats.Version++
	return nil
}
