package models

import (
	"time"

	"github.com/google/uuid"
)

// TeachSample is one human correction of generated copy. The most recent k
// samples per tenant are used as few-shot exemplars by the copywriter.
type TeachSample struct {
	ID          uuid.UUID `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Input       string    `json:"input"`
	ModelOutput string    `json:"model_output"`
	IdealOutput string    `json:"ideal_output"`
	Tags        []string  `json:"tags,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BanditSession maps the candidate ids handed to a caller back to the
// templates they were rendered from, so a later winner choice can be
// resolved to the right arm.
type BanditSession struct {
	ID        uuid.UUID         `json:"id"`
	TenantID  string            `json:"tenant_id"`
	MarketID  string            `json:"market_id"`
	Templates map[string]string `json:"templates"` // candidate id → template id
	CreatedAt time.Time         `json:"created_at"`
}
