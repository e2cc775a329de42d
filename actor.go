package systest

// ExecutionStatus is an actor's lifecycle state.
//
//	Active ──RaiseHalt / Halt-event──▶ Halting ──handler returns──▶ Halted
//	Active ──OnException.Halt──▶ Halting
//
// Halted is terminal: Enqueue returns Dropped; all timers disposed.
type ExecutionStatus int

const (
	ActorActive ExecutionStatus = iota
	ActorHalting
	ActorHalted
)

func (s ExecutionStatus) String() string {
	switch s {
	case ActorActive:
		return "Active"
	case ActorHalting:
		return "Halting"
	case ActorHalted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// Actor owns an inbox and a single-threaded event-handler loop driven by a
// [StateMachineTemplate]. A plain (non-state-machine) actor is simply one
// built from a single-state template — a class-level default handler maps
// directly onto that lone state's Default handler.
type Actor struct {
	id ActorId
	inbox *Inbox
	sm *stateMachineInstance
	status ExecutionStatus
	op *Operation
	group EventGroup
	timers map[string]*timerHandle
	rt *Runtime
}

// ID returns the actor's identity.
func (a *Actor) ID() ActorId { return a.id }

// Status returns the actor's lifecycle status.
func (a *Actor) Status() ExecutionStatus { return a.status }

// CurrentStateName returns the name of the state on top of the stack.
func (a *Actor) CurrentStateName() string { return a.sm.currentStateName() }

// ActorContext is the actor-facing API available from inside a handler.
// Every method is only valid for the duration of the handler call that
// received it.
type ActorContext struct {
	actor *Actor
	inbox *Inbox
	rt *Runtime
	// monitorType is non-empty when this context was built for a monitor's
	// synchronous dispatch rather than a scheduled actor's handler loop;
	// Assert tags failures raised through it as that monitor's safety
	// violation before falling through to the ordinary fatal path.
	monitorType string
}

// Self returns the id of the actor executing the current handler.
func (ctx *ActorContext) Self() ActorId { return ctx.actor.id }

// CurrentEventGroup returns the correlation token active for the event
// currently being handled.
func (ctx *ActorContext) CurrentEventGroup() EventGroup { return ctx.actor.group }

// CreateActor spawns a new actor of the given template.
func (ctx *ActorContext) CreateActor(tmpl *StateMachineTemplate, actorType, name string, initial *Event, group *EventGroup) ActorId {
	return ctx.rt.createActor(tmpl, actorType, name, initial, ctx.resolveGroup(group))
}

// SendEvent enqueues e on target. If group is nil, target inherits the
// sender's current event group.
func (ctx *ActorContext) SendEvent(target ActorId, e Event, group *EventGroup, meta Metadata) {
	ctx.rt.sendEvent(ctx.actor.id, target, e, ctx.resolveGroup(group), meta)
}

func (ctx *ActorContext) resolveGroup(group *EventGroup) EventGroup {
	if group != nil {
		return *group
	}
	return ctx.actor.group
}

// RaiseEvent raises e on the current actor, completing the current action;
// the next dispatch sees e before any enqueued event.
func (ctx *ActorContext) RaiseEvent(e Event) {
	ctx.inbox.Raise(e, ctx.actor.group, Metadata{})
}

// RaiseGotoStateEvent raises a goto-transition to state.
func (ctx *ActorContext) RaiseGotoStateEvent(state string) { ctx.RaiseEvent(GotoStateEvent(state)) }

// RaisePushStateEvent raises a push-transition to state.
func (ctx *ActorContext) RaisePushStateEvent(state string) { ctx.RaiseEvent(PushStateEvent(state)) }

// RaisePopStateEvent raises a pop-transition.
func (ctx *ActorContext) RaisePopStateEvent() { ctx.RaiseEvent(PopStateEvent()) }

// RaiseHaltEvent raises a halt request.
func (ctx *ActorContext) RaiseHaltEvent() { ctx.RaiseEvent(HaltEvent()) }

// ReceiveEventAsync suspends the current operation until a matching event
// arrives. The supplied continuation resumes with the matched event once
// dispatch returns control to it.
func (ctx *ActorContext) ReceiveEventAsync(types []EventType, predicate func(Event) bool, onMatch func(Event, EventGroup)) {
	ctx.rt.receiveAsync(ctx.actor, types, predicate, onMatch)
}

// StartTimer arms a one-shot virtual timer named name, firing after delay
// scheduler-steps by delivering a timeout event through the owning actor's
// inbox, not via real-time callbacks.
func (ctx *ActorContext) StartTimer(name string, delay uint64) {
	ctx.rt.startTimer(ctx.actor, name, delay, false)
}

// StartPeriodicTimer arms a repeating virtual timer.
func (ctx *ActorContext) StartPeriodicTimer(name string, period uint64) {
	ctx.rt.startTimer(ctx.actor, name, period, true)
}

// StopTimer disposes a previously-armed timer so it fires no more. A
// timer-elapsed event it already enqueued before the stop stays in the
// inbox and is still dispatched.
func (ctx *ActorContext) StopTimer(name string) {
	ctx.rt.stopTimer(ctx.actor, name)
}

// RandomBoolean asks the configured strategy for a nondeterministic boolean
// choice.
func (ctx *ActorContext) RandomBoolean() bool { return ctx.rt.nondetBoolean() }

// RandomInteger asks the configured strategy for a nondeterministic integer
// choice in [0, maxExclusive).
func (ctx *ActorContext) RandomInteger(maxExclusive int) int { return ctx.rt.nondetInteger(maxExclusive) }

// Monitor synchronously invokes every registered monitor of the given type
// with e.
func (ctx *ActorContext) Monitor(monitorType string, e Event) {
	ctx.rt.invokeMonitor(monitorType, e)
}

// Assert fails the iteration with an AssertionFailure if predicate is false.
// Inside a monitor's handler this additionally fires OnMonitorError, tagged
// with the monitor's type, before the ordinary fatal path runs.
func (ctx *ActorContext) Assert(predicate bool, message string) {
	if predicate {
		return
	}
	err := ErrAssertionFailure(ctx.actor.op.ID, ctx.actor.CurrentStateName(), message).(*EngineError)
	if ctx.monitorType != "" {
		ctx.rt.cfg.hooks.fireMonitorError(ctx.monitorType, err)
	}
	ctx.rt.fail(err)
}
