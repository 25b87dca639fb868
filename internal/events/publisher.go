// internal/events/publisher.go
package events

import "context"

// Publisher is the publish-only interface C3 exposes to C4 and C5.
// Delivery is best-effort: a publish failure must be logged by the
// implementation and never propagated as an error that could unwind a
// persisted state transition (spec §4.3).
type Publisher interface {
	Publish(ctx context.Context, event *Event)
}
