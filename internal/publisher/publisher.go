// Package publisher pushes aggregate stats snapshots to an external
// broker for consumers that do not hold a websocket subscription.
package publisher

import "context"

// Publisher defines the interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Close() error
}
