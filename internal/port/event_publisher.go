package port

import "context"

// EventPublisher fans stock-movement and alert lifecycle events out to
// subscribers (dashboards, notification panels).
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
	Close() error
}
