package events

// Event is a structured state change emitted by a deal instance.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (indexers, test hooks).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding everything. It is the
// default wired into an engine until a caller installs a real sink.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// CollectEmitter records every emitted event in order. Intended for tests.
type CollectEmitter struct {
	Events []Event
}

// Emit implements the Emitter interface.
func (c *CollectEmitter) Emit(evt Event) { c.Events = append(c.Events, evt) }
