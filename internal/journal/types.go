package journal

import (
	"context"
	"time"
)

// Exchange is one prompt/completion pair spoken by the avatar. Durable chat
// history lives in the backend; this journal only feeds the gateway's local
// status surface.
type Exchange struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Prompt            string    `json:"prompt"`
	Completion        string    `json:"completion"`
	UsedKnowledgeBase bool      `json:"used_knowledge_base"`
	Mode              string    `json:"mode"`
	CreatedAt         time.Time `json:"created_at"`
}

// Store records exchanges and serves them back newest-last.
type Store interface {
	SaveExchange(ctx context.Context, ex Exchange) error
	Recent(ctx context.Context, limit int) ([]Exchange, error)
	Close() error
}
