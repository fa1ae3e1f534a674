package events

import "context"

// Domain event codes. The NATS subject is "events.<code>".
const (
	CreditsAdjusted      = "CREDITS_ADJUSTED"
	SessionCreated       = "SESSION_CREATED"
	VisualizationUpdated = "VISUALIZATION_UPDATED"
)

// Publisher sends events to the bus. Implemented by pkg/nats.Publisher.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
