package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

func TestTeachAddFillsDefaults(t *testing.T) {
	repo := newMemTeachRepo()
	svc := NewTeachService(repo, zap.NewNop())

	sample := &models.TeachSample{
		TenantID:    "t1",
		Input:       "業務用タオル 50枚セット 白",
		IdealOutput: "まとめ買いでお得なタオル",
	}
	require.NoError(t, svc.Add(context.Background(), sample))

	assert.NotEqual(t, uuid.Nil, sample.ID)
	assert.False(t, sample.CreatedAt.IsZero())
}

func TestTeachAddRejectsIncompleteSamples(t *testing.T) {
	svc := NewTeachService(newMemTeachRepo(), zap.NewNop())
	ctx := context.Background()

	err := svc.Add(ctx, &models.TeachSample{Input: "in", IdealOutput: "out"})
	assert.Error(t, err, "missing tenant")

	err = svc.Add(ctx, &models.TeachSample{TenantID: "t1", IdealOutput: "out"})
	assert.Error(t, err, "missing input")

	err = svc.Add(ctx, &models.TeachSample{TenantID: "t1", Input: "in"})
	assert.Error(t, err, "missing ideal output")
}

func TestRecentExemplarsNewestFirst(t *testing.T) {
	repo := newMemTeachRepo()
	svc := NewTeachService(repo, zap.NewNop())
	ctx := context.Background()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	for i, input := range []string{"first", "second", "third"} {
		require.NoError(t, svc.Add(ctx, &models.TeachSample{
			TenantID:    "t1",
			Input:       input,
			IdealOutput: input + " out",
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		}))
	}
	require.NoError(t, svc.Add(ctx, &models.TeachSample{
		TenantID:    "other",
		Input:       "noise",
		IdealOutput: "noise out",
		CreatedAt:   base.Add(10 * time.Hour),
	}))

	samples, err := svc.RecentExemplars(ctx, "t1", 2)
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, "third", samples[0].Input)
	assert.Equal(t, "second", samples[1].Input)
}

func TestRecentExemplarsZeroLimit(t *testing.T) {
	svc := NewTeachService(newMemTeachRepo(), zap.NewNop())

	samples, err := svc.RecentExemplars(context.Background(), "t1", 0)
	require.NoError(t, err)
	assert.Empty(t, samples)
}
