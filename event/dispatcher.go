package event

// Handler processes the event types it declares
type Handler interface {
	// HandleEvent is called synchronously on the loop goroutine
	HandleEvent(ev Event)

	// EventTypes is read once at registration
	EventTypes() []EventType
}

// HandlerFunc adapts a function subscribed to a single type
type HandlerFunc func(ev Event)

// Dispatcher routes events to handlers
//
// Architecture:
//   - Trigger dispatches immediately on the caller's goroutine
//   - Enqueue defers until the next Update; the only method safe off the loop goroutine
//   - Handlers for one type run in registration order
type Dispatcher struct {
	handlers map[EventType][]HandlerFunc
	queue    Queue
}

// NewDispatcher creates a dispatcher with no handlers
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: make(map[EventType][]HandlerFunc),
	}
}

// Subscribe attaches fn to t
func (d *Dispatcher) Subscribe(t EventType, fn HandlerFunc) {
	d.handlers[t] = append(d.handlers[t], fn)
}

// Register attaches h to every type it declares
func (d *Dispatcher) Register(h Handler) {
	for _, t := range h.EventTypes() {
		d.handlers[t] = append(d.handlers[t], h.HandleEvent)
	}
}

// Trigger dispatches ev now
func (d *Dispatcher) Trigger(ev Event) {
	for _, fn := range d.handlers[ev.Type] {
		fn(ev)
	}
}

// Enqueue stores ev for the next Update
func (d *Dispatcher) Enqueue(ev Event) {
	d.queue.Push(ev)
}

// Update drains queued events in FIFO order, returns how many were dispatched
// Events enqueued by handlers during the drain wait for the next Update
func (d *Dispatcher) Update() int {
	events := d.queue.Consume()
	for _, ev := range events {
		d.Trigger(ev)
	}
	return len(events)
}

// Pending returns the queued event count
func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// HandlerCount returns the number of handlers for t
func (d *Dispatcher) HandlerCount(t EventType) int {
	return len(d.handlers[t])
}
