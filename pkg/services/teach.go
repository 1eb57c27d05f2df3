package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
	"github.com/promoforge-inc/promoforge-engine/pkg/repositories"
)

// TeachService records human corrections of generated copy and serves the
// most recent ones back as few-shot exemplars.
type TeachService interface {
	Add(ctx context.Context, sample *models.TeachSample) error
	RecentExemplars(ctx context.Context, tenantID string, k int) ([]*models.TeachSample, error)
}

type teachService struct {
	repo   repositories.TeachSampleRepository
	logger *zap.Logger
}

// NewTeachService creates a new TeachService.
func NewTeachService(repo repositories.TeachSampleRepository, logger *zap.Logger) TeachService {
	return &teachService{repo: repo, logger: logger}
}

var _ TeachService = (*teachService)(nil)

func (s *teachService) Add(ctx context.Context, sample *models.TeachSample) error {
	if sample.TenantID == "" {
		return fmt.Errorf("teach sample has no tenant")
	}
	if sample.Input == "" || sample.IdealOutput == "" {
		return fmt.Errorf("teach sample needs both input and ideal output")
	}
	if sample.ID == uuid.Nil {
		sample.ID = uuid.New()
	}
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Append(ctx, sample); err != nil {
		return err
	}
	s.logger.Info("Recorded teach sample",
		zap.String("tenant", sample.TenantID),
		zap.String("id", sample.ID.String()))
	return nil
}

func (s *teachService) RecentExemplars(ctx context.Context, tenantID string, k int) ([]*models.TeachSample, error) {
	if k <= 0 {
		return nil, nil
	}
	return s.repo.Recent(ctx, tenantID, k)
}
