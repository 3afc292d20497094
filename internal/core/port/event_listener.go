package port

import "context"

// EventListenerPort - a component that listens to external events
// (queue messages) and runs the matching business logic
type EventListenerPort interface {
	// Start blocks until ctx is cancelled or the listener fails
	Start(ctx context.Context) error

	// Close stops the listener, waiting for in-flight work
	Close() error
}
