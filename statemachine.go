package systest

import "fmt"

// HandlerKind classifies how a (state, event) pair is handled.
type HandlerKind int

const (
	handlerDo HandlerKind = iota
	handlerGoto
	handlerPush
	handlerDefer
	handlerIgnore
)

type handlerEntry struct {
	kind HandlerKind
	action func(*ActorContext, Event)
	target string // for goto/push
}

// StateDef declares one state's entry/exit/do/goto/push/defer/ignore table
// and its optional inheritance parent. Built via [NewState] and composed
// into a [StateMachineTemplate] by [StateMachineBuilder.Build].
type StateDef struct {
	Name string
	Parent string // inherits-from; "" for none
	Initial bool
	Hot bool // monitor-only: a hot state obligates liveness progress
	OnEntry func(*ActorContext)
	OnExit func(*ActorContext)
	Default func(*ActorContext, Event) // class/state-level default handler
	Wildcard func(*ActorContext, Event)
	handlers map[EventType]handlerEntry
}

// NewState begins a state declaration named name.
func NewState(name string) *StateDef {
	return &StateDef{Name: name, handlers: make(map[EventType]handlerEntry)}
}

// AsInitial marks this state as the state machine's starting state.
func (s *StateDef) AsInitial() *StateDef { s.Initial = true; return s }

// AsHot marks this state as hot for a monitor: remaining in it across fair
// scheduling steps raises liveness temperature. It has no effect on a
// plain actor/state-machine state.
func (s *StateDef) AsHot() *StateDef { s.Hot = true; return s }

// InheritsFrom names a base state whose handlers apply unless overridden.
func (s *StateDef) InheritsFrom(parent string) *StateDef { s.Parent = parent; return s }

// Entry installs the state's entry handler.
func (s *StateDef) Entry(fn func(*ActorContext)) *StateDef { s.OnEntry = fn; return s }

// Exit installs the state's exit handler.
func (s *StateDef) Exit(fn func(*ActorContext)) *StateDef { s.OnExit = fn; return s }

// OnDo installs a do-action handler for evt: invoked and then post-handling
// proceeds without a state transition.
func (s *StateDef) OnDo(evt EventType, fn func(*ActorContext, Event)) *StateDef {
	s.set(evt, handlerEntry{kind: handlerDo, action: fn})
	return s
}

// OnGoto installs a goto-transition handler for evt targeting state target.
func (s *StateDef) OnGoto(evt EventType, target string) *StateDef {
	s.set(evt, handlerEntry{kind: handlerGoto, target: target})
	return s
}

// OnPush installs a push-transition handler for evt targeting state target.
func (s *StateDef) OnPush(evt EventType, target string) *StateDef {
	s.set(evt, handlerEntry{kind: handlerPush, target: target})
	return s
}

// OnDefer marks evt as deferred while this state is active.
func (s *StateDef) OnDefer(evt EventType) *StateDef {
	s.set(evt, handlerEntry{kind: handlerDefer})
	return s
}

// OnIgnore marks evt as ignored while this state is active.
func (s *StateDef) OnIgnore(evt EventType) *StateDef {
	s.set(evt, handlerEntry{kind: handlerIgnore})
	return s
}

// OnDefaultDo installs this state's default handler, used when a dequeued
// event has no specific handler and no wildcard handler fires first.
func (s *StateDef) OnDefaultDo(fn func(*ActorContext, Event)) *StateDef {
	s.Default = fn
	return s
}

// OnWildcardDo installs this state's wildcard handler.
func (s *StateDef) OnWildcardDo(fn func(*ActorContext, Event)) *StateDef {
	s.Wildcard = fn
	return s
}

func (s *StateDef) set(evt EventType, e handlerEntry) {
	if _, exists := s.handlers[evt]; exists {
		panic(ErrDuplicateHandler(s.Name, evt))
	}
	s.handlers[evt] = e
}

// flatState is a StateDef with its inheritance chain materialized into one
// handler table, computed once at construction time via a static walk up
// the declared inheritance chain rather than at every dispatch.
type flatState struct {
	def *StateDef
	handlers map[EventType]handlerEntry
}

// StateMachineBuilder accumulates StateDefs before Build materializes the
// flattened dispatch table.
type StateMachineBuilder struct {
	states map[string]*StateDef
	order []string
	initial string
}

// NewStateMachineBuilder starts a new builder.
func NewStateMachineBuilder() *StateMachineBuilder {
	return &StateMachineBuilder{states: make(map[string]*StateDef)}
}

// AddState registers s. Panics on a duplicate state name, mirroring the
// fatal DuplicateHandler/InvalidAction class of structural errors.
func (b *StateMachineBuilder) AddState(s *StateDef) *StateMachineBuilder {
	if _, exists := b.states[s.Name]; exists {
		panic(ErrInvalidAction(s.Name, "duplicate state name"))
	}
	b.states[s.Name] = s
	b.order = append(b.order, s.Name)
	if s.Initial {
		b.initial = s.Name
	}
	return b
}

// Build flattens every state's inheritance chain into a standalone handler
// table and returns the resulting template, ready for per-instance use via
// newInstance.
func (b *StateMachineBuilder) Build() *StateMachineTemplate {
	flat := make(map[string]*flatState, len(b.states))
	for _, name := range b.order {
		flat[name] = b.flatten(name, make(map[string]bool))
	}
	return &StateMachineTemplate{states: flat, initial: b.initial}
}

func (b *StateMachineBuilder) flatten(name string, seen map[string]bool) *flatState {
	def, ok := b.states[name]
	if !ok {
		panic(ErrInvalidAction(name, "undeclared state referenced"))
	}
	if seen[name] {
		panic(ErrInvalidAction(name, "cyclic state inheritance"))
	}
	seen[name] = true

	table := make(map[EventType]handlerEntry)
	if def.Parent != "" {
		parent := b.flatten(def.Parent, seen)
		for evt, h := range parent.handlers {
			table[evt] = h
		}
	}
	// Two inherited handlers at the same level for the same event are
	// fatal; two base-vs-derived handlers are an intentional override.
	for evt, h := range def.handlers {
		table[evt] = h
	}
	return &flatState{def: def, handlers: table}
}

// StateMachineTemplate is an immutable, shared flattened dispatch table
// produced by [StateMachineBuilder.Build]. One template is constructed once
// per actor type and instantiated per spawned actor via [newInstance],
// rather than recomputed per instance.
type StateMachineTemplate struct {
	states map[string]*flatState
	initial string
}

// stateMachineInstance is the per-actor runtime state: the explicit state
// stack (ordered sequence of state names) over the immutable template.
type stateMachineInstance struct {
	tmpl *StateMachineTemplate
	stack []string
}

func (tmpl *StateMachineTemplate) newInstance() *stateMachineInstance {
	return &stateMachineInstance{tmpl: tmpl, stack: []string{tmpl.initial}}
}

func (sm *stateMachineInstance) current() *flatState {
	return sm.tmpl.states[sm.stack[len(sm.stack)-1]]
}

func (sm *stateMachineInstance) lookup(evt EventType) (handlerEntry, bool) {
	fs := sm.current()
	if h, ok := fs.handlers[evt]; ok {
		return h, true
	}
	if fs.def.Wildcard != nil {
		return handlerEntry{kind: handlerDo, action: fs.def.Wildcard}, true
	}
	if fs.def.Default != nil {
		return handlerEntry{kind: handlerDo, action: fs.def.Default}, true
	}
	return handlerEntry{}, false
}

// installStateHandlerSets seeds the inbox's defer/ignore sets from fs's
// flattened handler table, so a deferred event type is already known before
// Dequeue ever sees one — the alternative (learning defer/ignore reactively
// off the first dequeued instance of the type) loses that instance, since
// Dequeue has already removed it from the queue by the time dispatch
// discovers its handler kind.
func installStateHandlerSets(ib *Inbox, fs *flatState) {
	for evt, h := range fs.handlers {
		switch h.kind {
		case handlerDefer:
			ib.Defer(evt)
		case handlerIgnore:
			ib.Ignore(evt)
		}
	}
}

func (sm *stateMachineInstance) goTo(ctx *ActorContext, target string) {
	// Exit handlers run along the popped portion of the stack up to the LCA
	// with the target (here: the whole stack, since target always replaces
	// the full stack for a goto — there is no shared prefix to preserve,
	// matching step 4 for a flat, non-nested state tree).
	for i := len(sm.stack) - 1; i >= 0; i-- {
		if fs, ok := sm.tmpl.states[sm.stack[i]]; ok && fs.def.OnExit != nil {
			fs.def.OnExit(ctx)
		}
	}
	sm.stack = []string{target}
	ctx.inbox.ClearDefers()
	ctx.inbox.ClearIgnores()
	if fs, ok := sm.tmpl.states[target]; ok {
		installStateHandlerSets(ctx.inbox, fs)
		ctx.inbox.SetDefaultHandler(fs.def.Default != nil)
		if fs.def.OnEntry != nil {
			fs.def.OnEntry(ctx)
		}
	}
}

func (sm *stateMachineInstance) pushState(ctx *ActorContext, target string) {
	sm.stack = append(sm.stack, target)
	ctx.inbox.ClearDefers()
	ctx.inbox.ClearIgnores()
	if fs, ok := sm.tmpl.states[target]; ok {
		installStateHandlerSets(ctx.inbox, fs)
		ctx.inbox.SetDefaultHandler(fs.def.Default != nil)
		if fs.def.OnEntry != nil {
			fs.def.OnEntry(ctx)
		}
	}
}

// popState pops the top of the stack. Popping the last state halts the
// actor (reports true).
func (sm *stateMachineInstance) popState(ctx *ActorContext) (halted bool) {
	top := sm.current()
	if top.def.OnExit != nil {
		top.def.OnExit(ctx)
	}
	if len(sm.stack) <= 1 {
		return true
	}
	sm.stack = sm.stack[:len(sm.stack)-1]
	ctx.inbox.ClearDefers()
	ctx.inbox.ClearIgnores()
	fs := sm.current()
	installStateHandlerSets(ctx.inbox, fs)
	ctx.inbox.SetDefaultHandler(fs.def.Default != nil)
	return false
}

func (sm *stateMachineInstance) currentStateName() string {
	return sm.stack[len(sm.stack)-1]
}

func (sm *stateMachineInstance) String() string {
	return fmt.Sprintf("%s%v", sm.currentStateName(), sm.stack)
}
