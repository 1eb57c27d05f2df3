package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
	"github.com/promoforge-inc/promoforge-engine/pkg/colorx"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
	"github.com/promoforge-inc/promoforge-engine/pkg/repositories"
)

// ProfileService manages per-tenant brand profiles: onboarding from a logo,
// lookup with a default fallback, and feedback-tag mutation.
type ProfileService interface {
	// GetOrCreate returns the tenant's profile, creating and persisting a
	// default one on first contact.
	GetOrCreate(ctx context.Context, tenantID, brandName string) (*models.BrandProfile, error)

	// CreateFromLogo onboards a tenant by deriving a palette from its logo
	// image. An existing profile is returned unchanged.
	CreateFromLogo(ctx context.Context, tenantID, brandName, logoPath, brandHex string, strategy colorx.Strategy) (*models.BrandProfile, error)

	// ApplyFeedback applies reviewer tags to the profile and saves it.
	// Returns the updated profile and the tags that were not recognized.
	ApplyFeedback(ctx context.Context, tenantID string, tags []string) (*models.BrandProfile, []string, error)

	// Update persists caller-side edits through the version check.
	Update(ctx context.Context, profile *models.BrandProfile) error
}

type profileService struct {
	repo   repositories.ProfileRepository
	logger *zap.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(repo repositories.ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger}
}

var _ ProfileService = (*profileService)(nil)

func (s *profileService) GetOrCreate(ctx context.Context, tenantID, brandName string) (*models.BrandProfile, error) {
	profile, err := s.repo.Get(ctx, tenantID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	profile = models.DefaultProfile(tenantID, brandName)
	profile.CreatedAt = time.Now().UTC()
	err = s.repo.Save(ctx, profile)
	if errors.Is(err, apperrors.ErrConflict) {
		// Another caller onboarded this tenant in between; theirs wins.
		return s.repo.Get(ctx, tenantID)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Created default brand profile", zap.String("tenant", tenantID))
	return profile, nil
}

func (s *profileService) CreateFromLogo(ctx context.Context, tenantID, brandName, logoPath, brandHex string, strategy colorx.Strategy) (*models.BrandProfile, error) {
	if existing, err := s.repo.Get(ctx, tenantID); err == nil {
		return existing, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	profile := models.DefaultProfile(tenantID, brandName)
	profile.CreatedAt = time.Now().UTC()

	img, err := imaging.Open(logoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open logo %s: %w", logoPath, err)
	}
	brand, err := colorx.ParseHex(brandHex)
	if err != nil {
		// No usable brand color given; lean on the logo alone.
		brand = colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	profile.Colors = colorx.PickHarmoniousColors(img, brand, strategy)

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	err = s.repo.Save(ctx, profile)
	if errors.Is(err, apperrors.ErrConflict) {
		return s.repo.Get(ctx, tenantID)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Onboarded brand profile from logo",
		zap.String("tenant", tenantID),
		zap.String("primary", profile.Colors.Primary),
		zap.String("strategy", string(strategy)))
	return profile, nil
}

func (s *profileService) ApplyFeedback(ctx context.Context, tenantID string, tags []string) (*models.BrandProfile, []string, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		profile, err := s.repo.Get(ctx, tenantID)
		if err != nil {
			return nil, nil, err
		}

		var unknown []string
		changed := false
		for _, tag := range tags {
			if profile.ApplyFeedbackTag(tag) {
				changed = true
			} else {
				unknown = append(unknown, tag)
			}
		}
		if !changed {
			return profile, unknown, nil
		}

		err = s.repo.Save(ctx, profile)
		if err == nil {
			s.logger.Info("Applied profile feedback",
				zap.String("tenant", tenantID),
				zap.Strings("tags", tags))
			return profile, unknown, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, nil, err
		}
	}
	return nil, nil, fmt.Errorf("profile update for %s kept conflicting: %w", tenantID, apperrors.ErrConflict)
}

func (s *profileService) Update(ctx context.Context, profile *models.BrandProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	return s.repo.Save(ctx, profile)
}
