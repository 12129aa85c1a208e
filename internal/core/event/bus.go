package event

// Bus collects the domain events emitted during one tick. Systems append
// in execution order; the orchestrator drains the flat list at tick end
// and hands it to the broadcast and persistence layers. Single-goroutine
// access only (game loop); no locking.
type Bus struct {
	events []Event
}

func NewBus() *Bus {
	return &Bus{events: make([]Event, 0, 256)}
}

// Emit appends an event. Emission order is broadcast order.
func (b *Bus) Emit(ev Event) {
	b.events = append(b.events, ev)
}

// Len returns the number of events queued this tick.
func (b *Bus) Len() int { return len(b.events) }

// Drain returns all queued events and resets the bus for the next tick.
// The returned slice is owned by the caller.
func (b *Bus) Drain() []Event {
	if len(b.events) == 0 {
		return nil
	}
	out := b.events
	b.events = make([]Event, 0, cap(out))
	return out
}
