package models

import (
	"math"
	"time"
)

// ArmStats are the decayed play/win counters for one template arm.
// Floating point because decay is applied multiplicatively on read.
// wins ≤ plays is a soft expectation, not enforced: CTR ingestion can
// briefly report clicks attributed to impressions from an earlier batch.
type ArmStats struct {
	Plays float64 `json:"plays"`
	Wins  float64 `json:"wins"`
}

// WinRate is the observed win rate, with an optimistic 0.5 prior for arms
// that have never been played.
func (a ArmStats) WinRate() float64 {
	if a.Plays <= 0 {
		return 0.5
	}
	return a.Wins / a.Plays
}

// ABStats is the bandit state for one (tenant, market) pair: one arm per
// template, plus the decay bookkeeping sidecar.
type ABStats struct {
	TenantID    string               `json:"tenant_id"`
	MarketID    string               `json:"market_id"`
	Arms        map[string]*ArmStats `json:"arms"`
	LastDecayAt time.Time            `json:"last_decay_at"`

	Version int64 `json:"-"`
}

// NewABStats returns empty stats with decay anchored at now.
func NewABStats(tenantID, marketID string, now time.Time) *ABStats {
	return &ABStats{
		TenantID:    tenantID,
		MarketID:    marketID,
		Arms:        make(map[string]*ArmStats),
		LastDecayAt: now,
	}
}

// Arm returns the stats for a template, creating a zero arm on first use.
func (s *ABStats) Arm(templateID string) *ArmStats {
	if s.Arms == nil {
		s.Arms = make(map[string]*ArmStats)
	}
	a, ok := s.Arms[templateID]
	if !ok {
		a = &ArmStats{}
		s.Arms[templateID] = a
	}
	return a
}

// Empty reports whether every counter is still at zero. Bootstrap seeding
// is only permitted in this state.
func (s *ABStats) Empty() bool {
	for _, a := range s.Arms {
		if a.Plays != 0 || a.Wins != 0 {
			return false
		}
	}
	return true
}

// Decay applies half-life decay to all counters: factor =
// 0.5^(daysSince/halfLifeDays). Amortized: a no-op unless at least
// minIntervalDays have elapsed since the last decay, so historical weight
// stays bounded without a separate sweep job. Reports whether counters
// changed.
func (s *ABStats) Decay(now time.Time, halfLifeDays, minIntervalDays float64) bool {
	if halfLifeDays <= 0 {
		return false
	}
	days := now.Sub(s.LastDecayAt).Hours() / 24
	if days < minIntervalDays {
		return false
	}
	factor := math.Pow(0.5, days/halfLifeDays)
	for _, a := range s.Arms {
		a.Plays *= factor
		a.Wins *= factor
	}
	s.LastDecayAt = now
	return true
}
