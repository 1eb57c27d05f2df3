package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
	"github.com/promoforge-inc/promoforge-engine/pkg/config"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
	"github.com/promoforge-inc/promoforge-engine/pkg/render"
	"github.com/promoforge-inc/promoforge-engine/pkg/repositories"
)

// casRetries bounds the optimistic-concurrency retry loop on stats updates.
const casRetries = 5

// Candidate is one rendered suggestion handed back to the caller.
type Candidate struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	Path       string `json:"path"`
}

// Suggestion is the result of one bandit round: rendered candidates plus
// the session id the winner choice must reference.
type Suggestion struct {
	SessionID  uuid.UUID   `json:"session_id"`
	Candidates []Candidate `json:"candidates"`
}

// CTRRow is one aggregated click-through line from an external report.
type CTRRow struct {
	TemplateID  string
	Impressions float64
	Clicks      float64
}

// candidateRenderer is what the bandit needs from the rendering pipeline.
type candidateRenderer interface {
	Generate(ctx context.Context, req *models.BannerRequest, profile *models.BrandProfile) (*render.Output, error)
}

// BanditService runs epsilon-greedy template selection over decayed
// per-(tenant, market) win counters.
type BanditService interface {
	// Suggest picks n distinct templates, renders each as a candidate, and
	// opens a session. Plays are counted at suggestion time.
	Suggest(ctx context.Context, req *models.BannerRequest, profile *models.BrandProfile, n int) (*Suggestion, error)

	// SelectWinner credits a win to the template behind the chosen
	// candidate of an earlier session.
	SelectWinner(ctx context.Context, sessionID uuid.UUID, candidateID string) error

	// Bootstrap seeds prior win-rates per template. A no-op once any real
	// counter exists, so replays are safe.
	Bootstrap(ctx context.Context, tenantID, marketID string, rates map[string]float64) error

	// IngestCTR folds aggregated impressions and clicks into the counters.
	IngestCTR(ctx context.Context, tenantID, marketID string, rows []CTRRow) error

	// Stats returns the current decayed counters without mutating them.
	Stats(ctx context.Context, tenantID, marketID string) (*models.ABStats, error)
}

type banditService struct {
	cfg         config.BanditConfig
	statsRepo   repositories.ABStatsRepository
	sessionRepo repositories.SessionRepository
	renderer    candidateRenderer
	templateIDs func() []string
	rnd         *rand.Rand
	now         func() time.Time
	logger      *zap.Logger
}

// NewBanditService creates a new BanditService. templateIDs supplies the
// current arm universe; rnd may be nil for a time-seeded source.
func NewBanditService(
	cfg config.BanditConfig,
	statsRepo repositories.ABStatsRepository,
	sessionRepo repositories.SessionRepository,
	renderer candidateRenderer,
	templateIDs func() []string,
	rnd *rand.Rand,
	logger *zap.Logger,
) BanditService {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &banditService{
		cfg:         cfg,
		statsRepo:   statsRepo,
		sessionRepo: sessionRepo,
		renderer:    renderer,
		templateIDs: templateIDs,
		rnd:         rnd,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger,
	}
}

var _ BanditService = (*banditService)(nil)

func (s *banditService) Suggest(ctx context.Context, req *models.BannerRequest, profile *models.BrandProfile, n int) (*Suggestion, error) {
	ids := s.templateIDs()
	if len(ids) == 0 {
		return nil, fmt.Errorf("no templates registered")
	}
	if n <= 0 {
		n = 1
	}
	if n > len(ids) {
		n = len(ids)
	}

	var picked []string
	err := s.withStats(ctx, req.TenantID, req.MarketID, func(stats *models.ABStats) {
		stats.Decay(s.now(), s.cfg.HalfLifeDays, s.cfg.MinDecayDays)
		picked = s.pick(stats, ids, n)
		for _, id := range picked {
			stats.Arm(id).Plays++
		}
	})
	if err != nil {
		return nil, err
	}

	session := &models.BanditSession{
		ID:        uuid.New(),
		TenantID:  req.TenantID,
		MarketID:  req.MarketID,
		Templates: make(map[string]string, len(picked)),
		CreatedAt: s.now(),
	}

	sugg := &Suggestion{SessionID: session.ID}
	for _, templateID := range picked {
		cand := *req
		cand.TemplateID = templateID
		cand.OutputPath = ""
		out, err := s.renderer.Generate(ctx, &cand, profile)
		if err != nil {
			// One bad template should not sink the round.
			s.logger.Warn("Candidate render failed",
				zap.String("tenant", req.TenantID),
				zap.String("template", templateID),
				zap.Error(err))
			continue
		}
		candidateID := uuid.New().String()
		session.Templates[candidateID] = templateID
		sugg.Candidates = append(sugg.Candidates, Candidate{
			ID:         candidateID,
			TemplateID: templateID,
			Path:       out.Path,
		})
	}
	if len(sugg.Candidates) == 0 {
		return nil, fmt.Errorf("all candidate renders failed")
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return sugg, nil
}

// pick selects n distinct templates. Each slot exploits the best remaining
// win-rate (ties to the least played arm) unless the epsilon coin says to
// explore uniformly.
func (s *banditService) pick(stats *models.ABStats, ids []string, n int) []string {
	remaining := append([]string{}, ids...)
	sort.Strings(remaining)

	picked := make([]string, 0, n)
	for len(picked) < n && len(remaining) > 0 {
		var idx int
		if s.rnd.Float64() < s.cfg.Epsilon {
			idx = s.rnd.Intn(len(remaining))
		} else {
			idx = bestArmIndex(stats, remaining)
		}
		picked = append(picked, remaining[idx])
		remaining = append(remaining[:idx], remaining[idx+1:]...)
	}
	return picked
}

// bestArmIndex returns the index of the highest win-rate arm; ties go to
// the arm with the fewest plays, then to the lexicographically first id.
func bestArmIndex(stats *models.ABStats, ids []string) int {
	best := 0
	for i := 1; i < len(ids); i++ {
		a, b := stats.Arm(ids[i]), stats.Arm(ids[best])
		switch {
		case a.WinRate() > b.WinRate():
			best = i
		case a.WinRate() == b.WinRate() && a.Plays < b.Plays:
			best = i
		}
	}
	return best
}

func (s *banditService) SelectWinner(ctx context.Context, sessionID uuid.UUID, candidateID string) error {
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	templateID, ok := session.Templates[candidateID]
	if !ok {
		return fmt.Errorf("candidate %s not in session %s: %w", candidateID, sessionID, apperrors.ErrNotFound)
	}

	return s.withStats(ctx, session.TenantID, session.MarketID, func(stats *models.ABStats) {
		stats.Decay(s.now(), s.cfg.HalfLifeDays, s.cfg.MinDecayDays)
		stats.Arm(templateID).Wins++
	})
}

func (s *banditService) Bootstrap(ctx context.Context, tenantID, marketID string, rates map[string]float64) error {
	applied := false
	err := s.withStats(ctx, tenantID, marketID, func(stats *models.ABStats) {
		applied = false
		if !stats.Empty() {
			return
		}
		for templateID, rate := range rates {
			if rate < 0 {
				rate = 0
			} else if rate > 1 {
				rate = 1
			}
			arm := stats.Arm(templateID)
			arm.Plays = s.cfg.BootstrapPlays
			arm.Wins = rate * s.cfg.BootstrapPlays
		}
		applied = true
	})
	if err != nil {
		return err
	}
	if !applied {
		s.logger.Info("Bootstrap skipped, counters already populated",
			zap.String("tenant", tenantID), zap.String("market", marketID))
	}
	return nil
}

func (s *banditService) IngestCTR(ctx context.Context, tenantID, marketID string, rows []CTRRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.withStats(ctx, tenantID, marketID, func(stats *models.ABStats) {
		stats.Decay(s.now(), s.cfg.HalfLifeDays, s.cfg.MinDecayDays)
		for _, row := range rows {
			arm := stats.Arm(row.TemplateID)
			arm.Plays += row.Impressions
			arm.Wins += row.Clicks
		}
	})
}

func (s *banditService) Stats(ctx context.Context, tenantID, marketID string) (*models.ABStats, error) {
	stats, err := s.statsRepo.Get(ctx, tenantID, marketID)
	if err != nil {
		return nil, err
	}
	// Report decayed values without persisting; the next write decays.
	stats.Decay(s.now(), s.cfg.HalfLifeDays, s.cfg.MinDecayDays)
	return stats, nil
}

// withStats runs a read-modify-write against the stats document, retrying
// when a concurrent writer bumped the version first.
func (s *banditService) withStats(ctx context.Context, tenantID, marketID string, mutate func(*models.ABStats)) error {
	for attempt := 0; attempt < casRetries; attempt++ {
		stats, err := s.statsRepo.Get(ctx, tenantID, marketID)
		if err != nil {
			return err
		}
		mutate(stats)
		err = s.statsRepo.Save(ctx, stats)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("stats update for %s/%s kept conflicting: %w", tenantID, marketID, apperrors.ErrConflict)
}
