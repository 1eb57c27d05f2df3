package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/promoforge-inc/promoforge-engine/pkg/apperrors"
	"github.com/promoforge-inc/promoforge-engine/pkg/database"
	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// SessionRepository stores bandit sessions so a winner choice arriving
// later (possibly on another instance) can be resolved to its template.
type SessionRepository interface {
	Create(ctx context.Context, session *models.BanditSession) error
	Get(ctx context.Context, id uuid.UUID) (*models.BanditSession, error)
}

type sessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *database.DB) SessionRepository {
	return &sessionRepository{db: db}
}

var _ SessionRepository = (*sessionRepository)(nil)

func (r *sessionRepository) Create(ctx context.Context, session *models.BanditSession) error {
	templates, err := json.Marshal(session.Templates)
	if err != nil {
		return fmt.Errorf("failed to encode session templates: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO bandit_sessions (id, tenant_id, market_id, templates, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.TenantID, session.MarketID, templates, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bandit session: %w", err)
	}
	return nil
}

func (r *sessionRepository) Get(ctx context.Context, id uuid.UUID) (*models.BanditSession, error) {
	var session models.BanditSession
	var templates []byte
	err := r.db.QueryRow(ctx,
		`SELECT id, tenant_id, market_id, templates, created_at FROM bandit_sessions WHERE id = $1`, id).
		Scan(&session.ID, &session.TenantID, &session.MarketID, &templates, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bandit session: %w", err)
	}
	if err := json.Unmarshal(templates, &session.Templates); err != nil {
		return nil, fmt.Errorf("failed to decode session templates: %w", err)
	}
	return &session, nil
}
