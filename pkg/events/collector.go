package events

import "sync"

// EventCollector gathers domain events raised during a unit of work so they
// can be published once the work has been committed. It is safe for
// concurrent use.
type EventCollector struct {
	mu     sync.Mutex
	events []DomainEvent
}

// Record appends domain events to the collector.
func (c *EventCollector) Record(events ...DomainEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

// Events returns a copy of the collected domain events without clearing them.
func (c *EventCollector) Events() []DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DomainEvent, len(c.events))
	copy(out, c.events)
	return out
}

// ClearEvents returns the collected domain events and clears the internal slice.
func (c *EventCollector) ClearEvents() []DomainEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	collected := c.events
	c.events = nil
	return collected
}
