package systest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateDefDuplicateHandlerPanics(t *testing.T) {
	evt := NewEventType("dup")
	s := NewState("S")
	s.OnDo(evt, func(*ActorContext, Event) {})
	assert.Panics(t, func() {
		s.OnGoto(evt, "Other")
	})
}

func TestBuilderDuplicateStateNamePanics(t *testing.T) {
	b := NewStateMachineBuilder()
	b.AddState(NewState("S").AsInitial())
	assert.Panics(t, func() {
		b.AddState(NewState("S"))
	})
}

func TestBuilderUndeclaredParentPanics(t *testing.T) {
	b := NewStateMachineBuilder()
	b.AddState(NewState("S").AsInitial().InheritsFrom("Ghost"))
	assert.Panics(t, func() {
		b.Build()
	})
}

func TestBuilderCyclicInheritancePanics(t *testing.T) {
	b := NewStateMachineBuilder()
	b.AddState(NewState("A").AsInitial().InheritsFrom("B"))
	b.AddState(NewState("B").InheritsFrom("A"))
	assert.Panics(t, func() {
		b.Build()
	})
}

func TestInheritedHandlerOverride(t *testing.T) {
	evt := NewEventType("shared")
	var who string
	b := NewStateMachineBuilder()
	b.AddState(NewState("Base").OnDo(evt, func(*ActorContext, Event) { who = "base" }))
	b.AddState(NewState("Derived").AsInitial().InheritsFrom("Base").OnDo(evt, func(*ActorContext, Event) { who = "derived" }))
	tmpl := b.Build()
	inst := tmpl.newInstance()

	h, ok := inst.lookup(evt)
	require.True(t, ok)
	h.action(nil, Event{Type: evt})
	assert.Equal(t, "derived", who)
}

func TestInheritedHandlerFallsThroughWhenNotOverridden(t *testing.T) {
	evt := NewEventType("onlyBase")
	var fired bool
	b := NewStateMachineBuilder()
	b.AddState(NewState("Base").OnDo(evt, func(*ActorContext, Event) { fired = true }))
	b.AddState(NewState("Derived").AsInitial().InheritsFrom("Base"))
	tmpl := b.Build()
	inst := tmpl.newInstance()

	h, ok := inst.lookup(evt)
	require.True(t, ok)
	h.action(nil, Event{Type: evt})
	assert.True(t, fired)
}

func TestLookupFallsBackToWildcardThenDefault(t *testing.T) {
	var wildcardFired, defaultFired bool
	s := NewState("S").AsInitial().
		OnWildcardDo(func(*ActorContext, Event) { wildcardFired = true })
	tmpl := NewStateMachineBuilder().AddState(s).Build()
	inst := tmpl.newInstance()

	h, ok := inst.lookup(NewEventType("unknown"))
	require.True(t, ok)
	h.action(nil, Event{})
	assert.True(t, wildcardFired)

	s2 := NewState("S2").AsInitial().
		OnDefaultDo(func(*ActorContext, Event) { defaultFired = true })
	tmpl2 := NewStateMachineBuilder().AddState(s2).Build()
	inst2 := tmpl2.newInstance()
	h2, ok2 := inst2.lookup(NewEventType("unknown2"))
	require.True(t, ok2)
	h2.action(nil, Event{})
	assert.True(t, defaultFired)
}

func TestLookupUnhandledReturnsFalse(t *testing.T) {
	tmpl := NewStateMachineBuilder().AddState(NewState("S").AsInitial()).Build()
	inst := tmpl.newInstance()
	_, ok := inst.lookup(NewEventType("nope"))
	assert.False(t, ok)
}

func TestRaiseGotoStateEventTakesEffectWithoutDeclaredHandler(t *testing.T) {
	var enteredFinal bool
	goEvt := NewEventType("go")
	start := NewState("Start").AsInitial().
		OnDo(goEvt, func(ctx *ActorContext, _ Event) {
			ctx.RaiseGotoStateEvent("Final")
		})
	final := NewState("Final").Entry(func(*ActorContext) { enteredFinal = true })
	tmpl := NewStateMachineBuilder().AddState(start).AddState(final).Build()

	rt := NewRuntime(WithSeed(1))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: goEvt}, nil, Metadata{})
	require.NoError(t, rt.Run())

	assert.True(t, enteredFinal)
	a := rt.actors[id.Value]
	assert.Equal(t, "Final", a.CurrentStateName())
}

func TestRaisePushThenPopStateRestoresPreviousState(t *testing.T) {
	var poppedBackTo string
	pushEvt := NewEventType("push")
	popEvt := NewEventType("pop")
	start := NewState("Start").AsInitial().
		OnDo(pushEvt, func(ctx *ActorContext, _ Event) {
			ctx.RaisePushStateEvent("Inner")
		})
	inner := NewState("Inner").
		OnDo(popEvt, func(ctx *ActorContext, _ Event) {
			ctx.RaisePopStateEvent()
		})
	tmpl := NewStateMachineBuilder().AddState(start).AddState(inner).Build()

	rt := NewRuntime(WithSeed(1))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: pushEvt}, nil, Metadata{})
	rt.SendEvent(id, Event{Type: popEvt}, nil, Metadata{})
	require.NoError(t, rt.Run())

	a := rt.actors[id.Value]
	poppedBackTo = a.CurrentStateName()
	assert.Equal(t, "Start", poppedBackTo)
}

func TestRaiseHaltEventDrainsThenHalts(t *testing.T) {
	dieEvt := NewEventType("die")
	start := NewState("Start").AsInitial().
		OnDo(dieEvt, func(ctx *ActorContext, _ Event) {
			ctx.RaiseHaltEvent()
		})
	tmpl := NewStateMachineBuilder().AddState(start).Build()

	rt := NewRuntime(WithSeed(1))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: dieEvt}, nil, Metadata{})
	require.NoError(t, rt.Run())

	a := rt.actors[id.Value]
	assert.Equal(t, ActorHalted, a.Status())
}

func TestPopLastStateHaltsActor(t *testing.T) {
	popEvt := NewEventType("pop")
	start := NewState("Start").AsInitial().
		OnDo(popEvt, func(ctx *ActorContext, _ Event) {
			ctx.RaisePopStateEvent()
		})
	tmpl := NewStateMachineBuilder().AddState(start).Build()

	rt := NewRuntime(WithSeed(1))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: popEvt}, nil, Metadata{})
	require.NoError(t, rt.Run())

	a := rt.actors[id.Value]
	assert.Equal(t, ActorHalted, a.Status())
}

func TestDeclaredOnGotoUsesItsOwnStaticTarget(t *testing.T) {
	evt := NewEventType("advance")
	start := NewState("Start").AsInitial().OnGoto(evt, "End")
	end := NewState("End")
	tmpl := NewStateMachineBuilder().AddState(start).AddState(end).Build()

	rt := NewRuntime(WithSeed(1))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: evt}, nil, Metadata{})
	require.NoError(t, rt.Run())

	a := rt.actors[id.Value]
	assert.Equal(t, "End", a.CurrentStateName())
}
