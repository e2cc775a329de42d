package systest

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/joeycumines/go-systest/coverage"
	"github.com/joeycumines/go-systest/strategy"
	"github.com/joeycumines/go-systest/trace"
)

// Runtime is the controlled execution runtime: it owns every actor's inbox,
// decides deterministically which operation runs next at each scheduling
// point, and records a trace sufficient to replay the exact interleaving.
type Runtime struct {
	cfg *config

	actors map[int64]*Actor
	byName map[string]int64
	nextID int64
	registry *operationRegistry

	tasks map[OperationId]*taskInstance
	taskOrder []OperationId

	monitors map[string]*monitorInstance

	stepCount uint64
	currentOp strategy.OperationID
	temperature int

	recorder trace.Recorder
	coverage *coverage.Builder

	fatal error
	done bool
}

// NewRuntime constructs a Runtime with the given options.
func NewRuntime(opts ...RuntimeOption) *Runtime {
	cfg := resolveConfig(opts)
	rt := &Runtime{
		cfg: cfg,
		actors: make(map[int64]*Actor),
		byName: make(map[string]int64),
		registry: newOperationRegistry(),
		tasks: make(map[OperationId]*taskInstance),
		monitors: make(map[string]*monitorInstance),
	}
	if cfg.clock == nil {
		cfg.clock = stepClock{rt: rt}
	}
	if cfg.recorder != nil {
		rt.recorder = cfg.recorder
	}
	return rt
}

// WithTrace wires a trace recorder (see package trace) that observes every
// scheduling point.
func (rt *Runtime) WithTrace(r trace.Recorder) *Runtime { rt.recorder = r; return rt }

// WithCoverage wires a coverage graph builder.
func (rt *Runtime) WithCoverage(c *coverage.Builder) *Runtime { rt.coverage = c; return rt }

// CreateActor spawns a new actor from tmpl.
func (rt *Runtime) CreateActor(tmpl *StateMachineTemplate, actorType, name string, initial *Event, group *EventGroup) ActorId {
	return rt.createActor(tmpl, actorType, name, initial, rt.resolveTopLevelGroup(group))
}

// CreateActorAndExecuteAsync spawns an actor and runs its handler loop to
// quiescence (inbox drained, not paused on receive) before returning.
func (rt *Runtime) CreateActorAndExecuteAsync(tmpl *StateMachineTemplate, actorType, name string, initial *Event, group *EventGroup) ActorId {
	id := rt.CreateActor(tmpl, actorType, name, initial, group)
	rt.drain(rt.actors[id.Value])
	return id
}

func (rt *Runtime) resolveTopLevelGroup(group *EventGroup) EventGroup {
	if group != nil {
		return *group
	}
	return EventGroup{}
}

func (rt *Runtime) createActor(tmpl *StateMachineTemplate, actorType, name string, initial *Event, group EventGroup) ActorId {
	rt.nextID++
	id := ActorId{Value: rt.nextID, Name: name, Type: actorType, InstanceID: newInstanceID(), runtime: rt}
	a := &Actor{
		id: id,
		sm: tmpl.newInstance(),
		status: ActorActive,
		timers: make(map[string]*timerHandle),
	}
	a.inbox = NewInbox(func(e Event, g EventGroup, m Metadata) {
			rt.cfg.hooks.fireEventDropped(e, id)
			if m.MustHandle {
				rt.fail(ErrDroppedMustHandle(id, e.Type).(*EngineError))
			}
	})
	a.inbox.SetOnDeferred(func(e Event) { rt.cfg.hooks.fireEventDeferred(id, e) })
	a.inbox.SetOnIgnored(func(e Event) { rt.cfg.hooks.fireEventIgnored(id, e) })
	a.op = rt.registry.create(id)
	a.rt = rt
	rt.actors[id.Value] = a
	if name != "" {
		rt.byName[name] = id.Value
	}

	if fs, ok := a.sm.tmpl.states[a.sm.currentStateName()]; ok {
		installStateHandlerSets(a.inbox, fs)
		a.inbox.SetDefaultHandler(fs.def.Default != nil)
	}

	rt.cfg.hooks.fireInitialize(id)
	rt.cfg.logger.Debug().Str("actor", id.String()).Str("type", actorType).Str("state", a.sm.currentStateName()).Msg("actor created")
	if rt.coverage != nil {
		rt.coverage.AddActor(id.String(), actorType, a.sm.currentStateName())
	}

	ctx := &ActorContext{actor: a, inbox: a.inbox, rt: rt}
	if fs, ok := a.sm.tmpl.states[a.sm.currentStateName()]; ok && fs.def.OnEntry != nil {
		fs.def.OnEntry(ctx)
	}
	if initial != nil {
		a.inbox.Enqueue(*initial, group, Metadata{}, true)
	}
	return id
}

func newInstanceID() uuid.UUID { return uuid.New() }

// SendEvent enqueues e on target from outside any actor handler (a direct
// host call).
func (rt *Runtime) SendEvent(target ActorId, e Event, group *EventGroup, meta Metadata) {
	rt.sendEvent(ActorId{}, target, e, rt.resolveTopLevelGroup(group), meta)
}

// SendEventAndExecuteAsync enqueues e on target and, if its handler loop was
// idle, runs it synchronously to quiescence, reporting true in that case.
func (rt *Runtime) SendEventAndExecuteAsync(target ActorId, e Event, group *EventGroup, meta Metadata) bool {
	a, ok := rt.actors[target.Value]
	if !ok {
		return false
	}
	idle := rt.dispatchable(a) == false && !a.inbox.HasPendingReceive()
	rt.SendEvent(target, e, group, meta)
	if idle {
		rt.drain(a)
		return true
	}
	return false
}

func (rt *Runtime) sendEvent(sender, target ActorId, e Event, group EventGroup, meta Metadata) {
	a, ok := rt.actors[target.Value]
	if !ok || a.status == ActorHalted {
		rt.cfg.hooks.fireEventDropped(e, target)
		if meta.MustHandle {
			rt.fail(ErrDroppedMustHandle(target, e.Type).(*EngineError))
		}
		return
	}
	handlerIdle := !rt.dispatchable(a) && !a.inbox.HasPendingReceive()
	a.inbox.Enqueue(e, group, meta, handlerIdle)
	if rt.coverage != nil {
		rt.coverage.AddEdge(sender.String(), target.String(), e.Type.String())
	}
}

// dispatchable reports whether a has something ready to dequeue right now:
// a raised event, a dispatchable queued event, or a default handler with an
// otherwise-empty queue.
func (rt *Runtime) dispatchable(a *Actor) bool {
	if a.status == ActorHalted {
		return false
	}
	if a.inbox.HasPendingReceive() {
		return false
	}
	status, _, _, _ := a.inbox.peekDequeueStatus()
	return status != DequeueUnavailable
}

// peekDequeueStatus is a read-only preview of what Dequeue would return,
// used only to decide enabled-set membership without consuming anything:
// it defers to dispatchPeek, which genuinely has no side effect, rather
// than peekFront, which performs Dequeue's own ignored-removal/notification
// bookkeeping.
func (ib *Inbox) peekDequeueStatus() (DequeueStatus, Event, EventGroup, Metadata) {
	if ib.raised != nil {
		return DequeueRaised, ib.raised.event, ib.raised.group, ib.raised.meta
	}
	if entry, ok := ib.dispatchPeek(); ok {
		return DequeueSuccess, entry.event, entry.group, entry.meta
	}
	if ib.defaultSet {
		return DequeueDefault, Event{Type: EventDefault}, EventGroup{}, Metadata{}
	}
	return DequeueUnavailable, Event{}, EventGroup{}, Metadata{}
}

// receiveAsync implements ActorContext.ReceiveEventAsync.
func (rt *Runtime) receiveAsync(a *Actor, types []EventType, predicate func(Event) bool, onMatch func(Event, EventGroup)) {
	e, g, _, ok := a.inbox.ReceiveAsync(types, predicate)
	if ok {
		onMatch(e, g)
		return
	}
	a.op.park(PointDequeue, OperationPausedOnReceive, nil)
	a.inbox.SetReceive(func(e Event, g EventGroup, _ Metadata) {
			a.op.resumeNow()
			a.group = g
			onMatch(e, g)
	})
}

func (rt *Runtime) startTimer(a *Actor, name string, delay uint64, periodic bool) {
	a.timers[name] = &timerHandle{name: name, periodic: periodic, delay: delay, dueAtStep: rt.cfg.clock.Now() + delay, owner: a.id}
}

func (rt *Runtime) stopTimer(a *Actor, name string) {
	if th, ok := a.timers[name]; ok {
		th.disposed = true
	}
	delete(a.timers, name)
}

func (rt *Runtime) fireDueTimers(a *Actor) {
	now := rt.cfg.clock.Now()
	// Sorted by name before enqueuing: a.timers is a map, and the order in
	// which several simultaneously-due timers land in the actor's FIFO inbox
	// is observable (it decides dispatch order), so an unsorted walk would
	// make the same seed produce different interleavings across runs.
	names := make([]string, 0, len(a.timers))
	for name := range a.timers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		th := a.timers[name]
		if th.disposed || now < th.dueAtStep {
			continue
		}
		info := &TimerInfo{Name: name, Periodic: th.periodic}
		a.inbox.Enqueue(Event{Type: EventTimerElapsed, Payload: info}, a.group, Metadata{}, false)
		if th.periodic {
			th.dueAtStep = now + th.delay
		} else {
			delete(a.timers, name)
		}
	}
}

// RegisterMonitor installs a monitor template under monitorType.
func (rt *Runtime) RegisterMonitor(monitorType string, tmpl *StateMachineTemplate) {
	rt.monitors[monitorType] = newMonitorInstance(rt, monitorType, tmpl)
}

// InvokeMonitor synchronously dispatches e to the named monitor.
func (rt *Runtime) InvokeMonitor(monitorType string, e Event) { rt.invokeMonitor(monitorType, e) }

func (rt *Runtime) invokeMonitor(monitorType string, e Event) {
	m, ok := rt.monitors[monitorType]
	if !ok {
		return
	}
	m.dispatch(e)
}

// hotMonitorType returns the type name of a registered monitor currently
// sitting in a hot state, or "" if none is. Iterated in a stable order
// (sorted keys) purely so the reported violation names a deterministic
// monitor when more than one happens to be hot at once; the temperature
// counter itself is global, matching spec.md §4.3's single liveness-
// temperature threshold.
func (rt *Runtime) hotMonitorType() string {
	if len(rt.monitors) == 0 {
		return ""
	}
	names := make([]string, 0, len(rt.monitors))
	for name := range rt.monitors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if rt.monitors[name].inHotState() {
			return name
		}
	}
	return ""
}

// tickLiveness advances the liveness-temperature counter once per
// scheduling step: a fair strategy's temperature increments on every step
// that leaves at least one monitor in a hot state, and resets the moment
// none remain hot (spec.md §4.3/§4.4 "any transition out of a hot state
// resets it"). Returns a fatal LivenessViolation once the configured
// threshold is reached.
func (rt *Runtime) tickLiveness() error {
	if !rt.cfg.strategy.IsFair() {
		return nil
	}
	hot := rt.hotMonitorType()
	if hot == "" {
		rt.temperature = 0
		return nil
	}
	rt.temperature++
	if rt.temperature >= rt.cfg.livenessTemperatureThreshold {
		err := ErrLivenessViolation(hot, rt.temperature).(*EngineError)
		rt.fail(err)
		return err
	}
	return nil
}

// GetNondeterministicBooleanChoice answers a host-level nondeterministic
// boolean choice.
func (rt *Runtime) GetNondeterministicBooleanChoice() bool { return rt.nondetBoolean() }

// GetNondeterministicIntegerChoice answers a host-level nondeterministic
// integer choice in [0, max).
func (rt *Runtime) GetNondeterministicIntegerChoice(max int) int { return rt.nondetInteger(max) }

func (rt *Runtime) nondetBoolean() bool {
	v := rt.cfg.strategy.GetNextBoolean()
	rt.recordNondet("bool", v)
	return v
}

func (rt *Runtime) nondetInteger(max int) int {
	v := rt.cfg.strategy.GetNextInteger(max)
	rt.recordNondet("int", v)
	return v
}

func (rt *Runtime) recordNondet(kind string, v any) {
	if rt.recorder != nil {
		rt.recorder.RecordNondet(kind, v)
	}
}

// Assert fails the iteration with an AssertionFailure if predicate is false.
func (rt *Runtime) Assert(predicate bool, message string) {
	if !predicate {
		rt.fail(ErrAssertionFailure(0, "", message).(*EngineError))
	}
}

func (rt *Runtime) fail(err *EngineError) {
	if rt.fatal == nil {
		rt.fatal = err
		rt.cfg.logger.Error().Str("kind", err.EngineKind.String()).Err(err).Msg("iteration failed")
		rt.cfg.hooks.fireFailure(err)
	}
	rt.done = true
}

// Run drives the scheduling loop until completion, a fatal error, or the
// configured step bound. It returns the first fatal error, if any. After a
// Run that returned nil, Run may be called again to run work (actors, tasks,
// events) created since.
func (rt *Runtime) Run() error {
	if rt.fatal != nil {
		return rt.fatal
	}
	rt.done = false
	bound := rt.cfg.maxUnfairSchedulingSteps
	if rt.cfg.strategy.IsFair() {
		bound = rt.cfg.maxFairSchedulingSteps
	}
	for !rt.done {
		if bound > 0 && rt.stepCount >= bound {
			err := ErrMaxStepsHit(rt.stepCount).(*EngineError)
			if rt.cfg.considerDepthBoundHitAsBug {
				rt.fail(err)
				return err
			}
			return nil
		}
		if err := rt.step(); err != nil {
			return err
		}
		if rt.fatal != nil {
			return rt.fatal
		}
	}
	return rt.fatal
}

// step performs exactly one scheduling decision: compute the enabled set
// across every actor and task operation, ask the strategy, advance the
// chosen operation by exactly one turn.
func (rt *Runtime) step() error {
	for _, a := range rt.actors {
		rt.fireDueTimers(a)
	}

	// Actor iteration order must be deterministic across runs: Go's map
	// iteration order is randomized per-process, and the strategy's choice
	// is an index/lookup over this very slice, so an unsorted walk would
	// make two runs with the same seed schedule differently.
	actorIDs := make([]int64, 0, len(rt.actors))
	for id := range rt.actors {
		actorIDs = append(actorIDs, id)
	}
	sort.Slice(actorIDs, func(i, j int) bool { return actorIDs[i] < actorIDs[j] })

	enabled := make([]strategy.OperationID, 0, len(rt.actors)+len(rt.taskOrder))
	run := make(map[strategy.OperationID]func(), len(rt.actors)+len(rt.taskOrder))
	var pausedAny bool
	for _, id := range actorIDs {
		a := rt.actors[id]
		if a.status == ActorHalted {
			continue
		}
		if rt.dispatchable(a) {
			sid := strategy.OperationID(a.op.ID)
			enabled = append(enabled, sid)
			run[sid] = func() { rt.handleOne(a) }
		} else if a.op.Status() == OperationPausedOnReceive {
			pausedAny = true
		}
	}
	for _, id := range rt.taskOrder {
		t := rt.tasks[id]
		if t.pending != nil && t.op.Status() == OperationEnabled {
			sid := strategy.OperationID(t.op.ID)
			enabled = append(enabled, sid)
			run[sid] = func() { rt.runTaskBody(t) }
		} else if t.op.Status() == OperationPausedOnResource {
			pausedAny = true
		}
	}

	if len(enabled) == 0 {
		if pausedAny {
			if rt.cfg.reportPotentialDeadlocksAsBug {
				err := ErrDeadlock(rt.pausedOpIDs()).(*EngineError)
				rt.fail(err)
				return err
			}
			rt.done = true
			return nil
		}
		rt.done = true
		return nil
	}

	current := rt.currentOp
	chosen, ok := rt.cfg.strategy.GetNextOperation(current, enabled)
	if !ok {
		rt.done = true
		return nil
	}
	rt.currentOp = chosen
	rt.stepCount++
	rt.cfg.logger.Debug().Int("step", int(rt.stepCount)).Int("op", int(chosen)).Msg("scheduled")
	if rt.recorder != nil {
		rt.recorder.RecordStep(trace.Step{
				Step: rt.stepCount, Kind: "dequeue",
				CurrentOp: uint64(current), ChosenOp: uint64(chosen),
		})
	}
	run[chosen]()
	if err := rt.tickLiveness(); err != nil {
		return err
	}
	return nil
}

// pausedOpIDs collects every actor or task operation currently parked,
// for the diagnostic Deadlock error.
func (rt *Runtime) pausedOpIDs() []OperationId {
	var out []OperationId
	for _, a := range rt.actors {
		if a.op.Status() == OperationPausedOnReceive {
			out = append(out, a.op.ID)
		}
	}
	for _, id := range rt.taskOrder {
		t := rt.tasks[id]
		if t.op.Status() == OperationPausedOnResource {
			out = append(out, t.op.ID)
		}
	}
	return out
}

// drain repeatedly advances a until it is halted, paused on receive, or its
// inbox has nothing left to dequeue — used by CreateActorAndExecuteAsync
// and SendEventAndExecuteAsync.
func (rt *Runtime) drain(a *Actor) {
	for rt.dispatchable(a) && a.status != ActorHalted {
		rt.handleOne(a)
	}
}

// handleOne runs exactly one dequeue+dispatch cycle for a: dequeue, fire
// observer hooks, look up and run the handler, apply any state transition,
// then check for halt.
func (rt *Runtime) handleOne(a *Actor) {
	status, e, group, _ := a.inbox.Dequeue()
	if status == DequeueUnavailable {
		return
	}
	a.group = group
	ctx := &ActorContext{actor: a, inbox: a.inbox, rt: rt}
	rt.cfg.hooks.fireEventDequeued(a.id, e, group)

	// The four structural sentinel events (Halt, GotoState, PushState,
	// PopState) are runtime-level commands, not ordinary dispatched events:
	// RaiseGotoStateEvent/RaisePushStateEvent/RaisePopStateEvent/
	// RaiseHaltEvent must take effect whether or not the current state
	// happens to declare a handler for the literal sentinel type. A state's
	// own OnGoto/OnPush table entries are a separate mechanism, keyed on
	// whatever ordinary event type the state author chose, and are
	// unaffected by this — they still flow through the lookup path below.
	switch e.Type {
	case EventHalt:
		a.status = ActorHalting
		rt.cfg.hooks.fireEventHandled(a.id, e, group)
		if a.inbox.Len() == 0 {
			rt.haltActor(a, ctx)
		}
		return
	case EventGotoState:
		target, _ := e.Payload.(string)
		a.sm.goTo(ctx, target)
		rt.coverageTransition(a, e)
		rt.cfg.hooks.fireEventHandled(a.id, e, group)
		return
	case EventPushState:
		target, _ := e.Payload.(string)
		a.sm.pushState(ctx, target)
		rt.coverageTransition(a, e)
		rt.cfg.hooks.fireEventHandled(a.id, e, group)
		return
	case EventPopState:
		if a.sm.popState(ctx) {
			rt.haltActor(a, ctx)
			return
		}
		rt.coverageTransition(a, e)
		rt.cfg.hooks.fireEventHandled(a.id, e, group)
		return
	}

	h, found := a.sm.lookup(e.Type)
	if !found {
		outcome := rt.cfg.hooks.fireEventUnhandled(a.id, e)
		switch outcome {
		case Halt:
			rt.haltActor(a, ctx)
		case HandledException:
		default:
			rt.fail(ErrUnhandledEvent(a.op.ID, a.CurrentStateName(), e.Type).(*EngineError))
		}
		return
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				err, _ := r.(error)
				if err == nil {
					err = fmt.Errorf("%v", r)
				}
				outcome := rt.cfg.hooks.fireException(a.id, err, a.CurrentStateName())
				switch outcome {
				case Halt:
					rt.haltActor(a, ctx)
				case HandledException:
				default:
					rt.fail(ErrAssertionFailure(a.op.ID, a.CurrentStateName(), err.Error()).(*EngineError))
				}
			}
		}()

		switch h.kind {
		case handlerDo:
			h.action(ctx, e)
		case handlerGoto:
			a.sm.goTo(ctx, h.target)
			rt.coverageTransition(a, e)
		case handlerPush:
			a.sm.pushState(ctx, h.target)
			rt.coverageTransition(a, e)
		case handlerDefer:
			rt.cfg.hooks.fireEventDeferred(a.id, e)
			a.inbox.Defer(e.Type)
			return
		case handlerIgnore:
			rt.cfg.hooks.fireEventIgnored(a.id, e)
			return
		}
	}()

	if a.status != ActorHalted {
		rt.cfg.hooks.fireEventHandled(a.id, e, group)
	}

	if a.status == ActorHalting && a.inbox.Len() == 0 {
		rt.haltActor(a, ctx)
	}
}

func (rt *Runtime) coverageTransition(a *Actor, e Event) {
	if rt.coverage != nil {
		rt.coverage.AddState(a.id.String(), a.CurrentStateName())
	}
}

func (rt *Runtime) haltActor(a *Actor, ctx *ActorContext) {
	if a.status == ActorHalted {
		return
	}
	a.status = ActorHalted
	a.inbox.Close()
	for name := range a.timers {
		delete(a.timers, name)
	}
	rt.cfg.hooks.fireHalt(a.id)
	rt.registry.release(a.op.ID)
}

// ActorByName looks up a previously-created actor by its assigned name.
func (rt *Runtime) ActorByName(name string) (ActorId, bool) {
	v, ok := rt.byName[name]
	if !ok {
		return ActorId{}, false
	}
	return rt.actors[v].id, true
}
