package core

import "sync"

// EventContext carries a small fixed payload alongside an event. Listeners
// pick the fields relevant to the code they registered for.
type EventContext struct {
	U32 [4]uint32
	F32 [4]float32
	Str string
}

// System internal event codes. Applications should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * u32 width  = ctx.U32[0]
	 * u32 height = ctx.U32[1]
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// A watched shader source changed on disk.
	/* Context usage:
	 * str path = ctx.Str
	 */
	EVENT_CODE_SHADER_CHANGED SystemEventCode = 0x03

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

// Should return true if the event was consumed and must not reach further
// listeners.
type FnOnEvent func(code SystemEventCode, sender interface{}, data EventContext) bool

type eventSystemState struct {
	mu         sync.Mutex
	registered map[SystemEventCode][]FnOnEvent
}

var eventState = &eventSystemState{
	registered: map[SystemEventCode][]FnOnEvent{},
}

func EventRegister(code SystemEventCode, callback FnOnEvent) {
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	eventState.registered[code] = append(eventState.registered[code], callback)
}

// EventFire dispatches to listeners in registration order until one
// consumes the event. Returns true if any listener consumed it.
func EventFire(code SystemEventCode, sender interface{}, data EventContext) bool {
	eventState.mu.Lock()
	listeners := append([]FnOnEvent(nil), eventState.registered[code]...)
	eventState.mu.Unlock()

	for _, cb := range listeners {
		if cb(code, sender, data) {
			return true
		}
	}
	return false
}

// EventShutdown drops every registration. Used on engine teardown and in
// tests to isolate listeners.
func EventShutdown() {
	eventState.mu.Lock()
	defer eventState.mu.Unlock()
	eventState.registered = map[SystemEventCode][]FnOnEvent{}
}
