package systest

import (
	"fmt"
	"sync/atomic"
)

// EventType identifies an event's shape. It is a comparable value so it can
// key handler tables directly; replaces reflection-based dynamic
// dispatch with exactly this: a closed tagged-variant id with O(1) lookup.
//
// Well-known types are package-level values (EventHalt, EventDefault,...);
// user-defined types are minted with NewEventType and are distinct from one
// another and from every well-known type by construction.
type EventType struct {
	name string
	id uint64
}

// nextEventTypeID mints the discriminator that makes two NewEventType calls
// with the same name distinct types, even though the zero id shared by every
// well-known package-level EventType never collides with a minted one.
var nextEventTypeID atomic.Uint64

// NewEventType mints a user-defined event type. Two calls with the same
// name produce distinct types — callers that need stable identity should
// keep the returned EventType in a package-level variable, exactly as one
// would declare an event class once and reuse it.
func NewEventType(name string) EventType {
	return EventType{name: name, id: nextEventTypeID.Add(1)}
}

func (t EventType) String() string { return t.name }

var (
	// EventHalt requests that an actor begin graceful shutdown.
	EventHalt = EventType{name: "halt"}
	// EventDefault is the synthetic event dispatched when a state installs
	// a default handler and nothing else is available to dequeue.
	EventDefault = EventType{name: "default"}
	// EventWildcard is not itself enqueued; it names the fallback handler
	// slot consulted when no type-specific handler exists.
	EventWildcard = EventType{name: "*"}
	// EventGotoState carries a target state name as its Payload.
	EventGotoState = EventType{name: "goto"}
	// EventPushState carries a target state name as its Payload.
	EventPushState = EventType{name: "push"}
	// EventPopState pops the top of the state stack.
	EventPopState = EventType{name: "pop"}
	// EventTimerElapsed carries a *TimerInfo as its Payload.
	EventTimerElapsed = EventType{name: "timer-elapsed"}
	// EventTimerSetup carries a *TimerInfo as its Payload.
	EventTimerSetup = EventType{name: "timer-setup"}
	// EventQuiescent is raised internally once an actor's inbox drains
	// with no pending receive, for CreateActorAndExecuteAsync-style waits.
	EventQuiescent = EventType{name: "quiescent"}
)

// Event is a domain value carrying a type identity and an optional payload.
// Events carry no identity of their own: two sends of an equal Event are
// distinct enqueue occurrences, ordered only by when they were enqueued.
type Event struct {
	Type EventType
	Payload any
}

// NewEvent constructs a user event of the given type.
func NewEvent(t EventType, payload any) Event {
	return Event{Type: t, Payload: payload}
}

func (e Event) String() string {
	if e.Payload == nil {
		return e.Type.String()
	}
	return fmt.Sprintf("%s(%v)", e.Type, e.Payload)
}

// GotoStateEvent builds an EventGotoState event targeting state.
func GotoStateEvent(state string) Event { return Event{Type: EventGotoState, Payload: state} }

// PushStateEvent builds an EventPushState event targeting state.
func PushStateEvent(state string) Event { return Event{Type: EventPushState, Payload: state} }

// PopStateEvent builds an EventPopState event.
func PopStateEvent() Event { return Event{Type: EventPopState} }

// HaltEvent builds an EventHalt event.
func HaltEvent() Event { return Event{Type: EventHalt} }

// TimerInfo identifies a fired or armed timer, carried as the Payload of
// EventTimerElapsed and EventTimerSetup events.
type TimerInfo struct {
	Name string
	Periodic bool
}
