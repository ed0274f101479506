// Package eventbus is the in-process fan-out used to decouple the plan
// coordinator from metrics collection.
package eventbus

// Event represents an arbitrary event passed on the bus.
type Event = any

// EventBus is the publish/subscribe contract shared by producers and
// collectors.
type EventBus interface {
	Publish(Event)
	Subscribe() <-chan Event
	Unsubscribe(<-chan Event)
	Close()
}

// Bus carries events of any type; consumers switch on the concrete type.
type Bus = TypedBus[Event]

// New creates a new Bus.
func New() *Bus { return NewTyped[Event]() }
