package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/promoforge-inc/promoforge-engine/pkg/database"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// TeachSampleRepository is the append-only correction log. Samples are
// never updated, so no version column is involved.
type TeachSampleRepository interface {
	Append(ctx context.Context, sample *models.TeachSample) error
	// Recent returns up to k samples, newest first.
	Recent(ctx context.Context, tenantID string, k int) ([]*models.TeachSample, error)
}

type teachSampleRepository struct {
	db *database.DB
}

// NewTeachSampleRepository creates a new TeachSampleRepository.
func NewTeachSampleRepository(db *database.DB) TeachSampleRepository {
	return &teachSampleRepository{db: db}
}

var _ TeachSampleRepository = (*teachSampleRepository)(nil)

func (r *teachSampleRepository) Append(ctx context.Context, sample *models.TeachSample) error {
	doc, err := json.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to encode teach sample: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO teach_samples (id, tenant_id, doc, created_at) VALUES ($1, $2, $3, $4)`,
		sample.ID, sample.TenantID, doc, sample.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append teach sample: %w", err)
	}
	return nil
}

func (r *teachSampleRepository) Recent(ctx context.Context, tenantID string, k int) ([]*models.TeachSample, error) {
	rows, err := r.db.Query(ctx,
		`SELECT doc FROM teach_samples WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`,
		tenantID, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query teach samples: %w", err)
	}
	defer rows.Close()

	var samples []*models.TeachSample
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan teach sample: %w", err)
		}
		var sample models.TeachSample
		if err := json.Unmarshal(doc, &sample); err != nil {
			return nil, fmt.Errorf("failed to decode teach sample: %w", err)
		}
		samples = append(samples, &sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teach samples: %w", err)
	}
	return samples, nil
}
