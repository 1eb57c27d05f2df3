package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// In-memory repository fakes with the same versioned compare-and-swap
// semantics as the real Postgres-backed ones.

type memProfileRepo struct {
	mu   sync.Mutex
	docs map[string]*models.BrandProfile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{docs: make(map[string]*models.BrandProfile)}
}

func (r *memProfileRepo) Get(_ context.Context, tenantID string) (*models.BrandProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.docs[tenantID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProfileRepo) Save(_ context.Context, profile *models.BrandProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[profile.TenantID]
	if profile.Version == 0 {
		if ok {
			return apperrors.ErrConflict
		}
	} else if !ok || existing.Version != profile.Version {
		return apperrors.ErrConflict
	}
	profile.Version++
	cp := *profile
	r.docs[profile.TenantID] = &cp
	return nil
}

type memABStatsRepo struct {
	mu   sync.Mutex
	docs map[string]*models.ABStats
}

func newMemABStatsRepo() *memABStatsRepo {
	return &memABStatsRepo{docs: make(map[string]*models.ABStats)}
}

func statsKey(tenantID, marketID string) string { return tenantID + "/" + marketID }

func (r *memABStatsRepo) Get(_ context.Context, tenantID, marketID string) (*models.ABStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.docs[statsKey(tenantID, marketID)]
	if !ok {
		return models.NewABStats(tenantID, marketID, time.Now().UTC()), nil
	}
	return cloneStats(s), nil
}

func (r *memABStatsRepo) Save(_ context.Context, stats *models.ABStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := statsKey(stats.TenantID, stats.MarketID)
	existing, ok := r.docs[key]
	if stats.Version == 0 {
		if ok {
			return apperrors.ErrConflict
		}
	} else if !ok || existing.Version != stats.Version {
		return apperrors.ErrConflict
	}
	stats.Version++
	r.docs[key] = cloneStats(stats)
	return nil
}

func cloneStats(s *models.ABStats) *models.ABStats {
	data, _ := json.Marshal(s)
	var cp models.ABStats
	_ = json.Unmarshal(data, &cp)
	cp.Version = s.Version
	return &cp
}

type memDictRepo struct {
	mu   sync.Mutex
	docs map[string]*models.TermDictionary
}

func newMemDictRepo() *memDictRepo {
	return &memDictRepo{docs: make(map[string]*models.TermDictionary)}
}

func (r *memDictRepo) Get(_ context.Context, tenantID string) (*models.TermDictionary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.docs[tenantID]
	if !ok {
		return models.NewTermDictionary(tenantID), nil
	}
	return cloneDict(d), nil
}

func (r *memDictRepo) Save(_ context.Context, dict *models.TermDictionary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[dict.TenantID]
	if dict.Version == 0 {
		if ok {
			return apperrors.ErrConflict
		}
	} else if !ok || existing.Version != dict.Version {
		return apperrors.ErrConflict
	}
	dict.Version++
	r.docs[dict.TenantID] = cloneDict(dict)
	return nil
}

func cloneDict(d *models.TermDictionary) *models.TermDictionary {
	data, _ := json.Marshal(d)
	var cp models.TermDictionary
	_ = json.Unmarshal(data, &cp)
	cp.Version = d.Version
	return &cp
}

type memTermStatsRepo struct {
	mu   sync.Mutex
	docs map[string]*models.TermStats
}

func newMemTermStatsRepo() *memTermStatsRepo {
	return &memTermStatsRepo{docs: make(map[string]*models.TermStats)}
}

func (r *memTermStatsRepo) Get(_ context.Context, tenantID string) (*models.TermStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.docs[tenantID]
	if !ok {
		return models.NewTermStats(tenantID), nil
	}
	data, _ := json.Marshal(s)
	var cp models.TermStats
	_ = json.Unmarshal(data, &cp)
	cp.Version = s.Version
	return &cp, nil
}

func (r *memTermStatsRepo) Save(_ context.Context, stats *models.TermStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.docs[stats.TenantID]
	if stats.Version == 0 {
		if ok {
			return apperrors.ErrConflict
		}
	} else if !ok || existing.Version != stats.Version {
		return apperrors.ErrConflict
	}
	stats.Version++
	data, _ := json.Marshal(stats)
	var cp models.TermStats
	_ = json.Unmarshal(data, &cp)
	cp.Version = stats.Version
	r.docs[stats.TenantID] = &cp
	return nil
}

type memTeachRepo struct {
	mu      sync.Mutex
	samples []*models.TeachSample
}

func newMemTeachRepo() *memTeachRepo { return &memTeachRepo{} }

func (r *memTeachRepo) Append(_ context.Context, sample *models.TeachSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sample
	r.samples = append(r.samples, &cp)
	return nil
}

func (r *memTeachRepo) Recent(_ context.Context, tenantID string, k int) ([]*models.TeachSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TeachSample
	for _, s := range r.samples {
		if s.TenantID == tenantID {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

type memSessionRepo struct {
	mu   sync.Mutex
	docs map[uuid.UUID]*models.BanditSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{docs: make(map[uuid.UUID]*models.BanditSession)}
}

func (r *memSessionRepo) Create(_ context.Context, session *models.BanditSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.docs[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) Get(_ context.Context, id uuid.UUID) (*models.BanditSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.docs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}
