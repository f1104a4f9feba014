package event

// EventType identifies an event kind
type EventType int

const (
	// EventCloseGame requests loop shutdown
	// Trigger: scenes (Escape), scripts, signal handler
	// Consumer: engine.Game | Payload: nil
	EventCloseGame EventType = iota

	// EventScriptChanged reports a modified script file
	// Trigger: script.Watcher (background goroutine, enqueued)
	// Consumer: engine.Game | Payload: string (path relative to the script root)
	EventScriptChanged

	// EventSceneChanged reports a completed scene transition
	// Trigger: engine.Game after ChangeScene | Payload: string (scene name)
	EventSceneChanged

	// EventUser is the first id free for client code
	EventUser EventType = 1000
)

// Event is a single dispatched event
type Event struct {
	Type    EventType
	Payload any
}
