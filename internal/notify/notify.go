package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// MatchEvent announces properties newly matching a saved search
type MatchEvent struct {
	ID            string    `json:"id"`
	SavedSearchID uint      `json:"saved_search_id"`
	UserID        uint      `json:"user_id"`
	Name          string    `json:"name"`
	PropertyIDs   []uint    `json:"property_ids"`
	Count         int       `json:"count"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher delivers match events to the notification pipeline
type Publisher interface {
	Publish(ctx context.Context, event MatchEvent) error
	Close() error
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that only logs
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event MatchEvent) error {
	p.logger.Info("Saved search matched new properties",
		zap.String("event_id", event.ID),
		zap.Uint("saved_search_id", event.SavedSearchID),
		zap.Uint("user_id", event.UserID),
		zap.Int("count", event.Count),
		zap.Uints("property_ids", event.PropertyIDs),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }
