package systest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	evtArm = NewEventType("arm")
	evtTick = NewEventType("tick")
)

// driveClock keeps an actor dispatchable for up to n further turns by
// re-raising evtTick on itself each time it is handled: the virtual clock
// only advances while some operation is being chosen and run each step, so
// a timer with nothing else happening in the system never becomes due.
func driveClock(ctx *ActorContext, remaining *int) {
	if *remaining <= 0 {
		return
	}
	*remaining--
	ctx.RaiseEvent(Event{Type: evtTick})
}

func TestTimerFiresOneShotEventWithCorrectInfo(t *testing.T) {
	var fired *TimerInfo
	ticks := 20
	s := NewState("S").AsInitial().
		OnDo(evtArm, func(ctx *ActorContext, _ Event) {
			ctx.StartTimer("T1", 3)
			driveClock(ctx, &ticks)
		}).
		OnDo(evtTick, func(ctx *ActorContext, _ Event) {
			driveClock(ctx, &ticks)
		}).
		OnDo(EventTimerElapsed, func(ctx *ActorContext, e Event) {
			fired = e.Payload.(*TimerInfo)
		})
	tmpl := NewStateMachineBuilder().AddState(s).Build()

	rt := NewRuntime(WithSeed(1), WithMaxUnfairSchedulingSteps(200))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: evtArm}, nil, Metadata{})
	require.NoError(t, rt.Run())

	require.NotNil(t, fired)
	assert.Equal(t, "T1", fired.Name)
	assert.False(t, fired.Periodic)
}

func TestStopTimerPreventsFiring(t *testing.T) {
	var fired bool
	ticks := 20
	s := NewState("S").AsInitial().
		OnDo(evtArm, func(ctx *ActorContext, _ Event) {
			ctx.StartTimer("T1", 3)
			ctx.StopTimer("T1")
			driveClock(ctx, &ticks)
		}).
		OnDo(evtTick, func(ctx *ActorContext, _ Event) {
			driveClock(ctx, &ticks)
		}).
		OnDo(EventTimerElapsed, func(ctx *ActorContext, _ Event) {
			fired = true
		})
	tmpl := NewStateMachineBuilder().AddState(s).Build()

	rt := NewRuntime(WithSeed(1), WithMaxUnfairSchedulingSteps(200))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: evtArm}, nil, Metadata{})
	require.NoError(t, rt.Run())

	assert.False(t, fired)
}

func TestPeriodicTimerRefiresMultipleTimes(t *testing.T) {
	var count int
	ticks := 30
	s := NewState("S").AsInitial().
		OnDo(evtArm, func(ctx *ActorContext, _ Event) {
			ctx.StartPeriodicTimer("P1", 2)
			driveClock(ctx, &ticks)
		}).
		OnDo(evtTick, func(ctx *ActorContext, _ Event) {
			driveClock(ctx, &ticks)
		}).
		OnDo(EventTimerElapsed, func(ctx *ActorContext, e Event) {
			count++
			info := e.Payload.(*TimerInfo)
			assert.True(t, info.Periodic)
			if count >= 3 {
				ctx.StopTimer("P1")
			}
		})
	tmpl := NewStateMachineBuilder().AddState(s).Build()

	rt := NewRuntime(WithSeed(1), WithMaxUnfairSchedulingSteps(200))
	id := rt.CreateActor(tmpl, "T", "", nil, nil)
	rt.SendEvent(id, Event{Type: evtArm}, nil, Metadata{})
	require.NoError(t, rt.Run())

	assert.GreaterOrEqual(t, count, 3)
}

func TestStepClockTracksRuntimeStepCount(t *testing.T) {
	rt := NewRuntime(WithSeed(1))
	clk := stepClock{rt: rt}
	assert.Equal(t, uint64(0), clk.Now())
	rt.stepCount = 7
	assert.Equal(t, uint64(7), clk.Now())
}

type fakeClock struct{ n uint64 }

func (c fakeClock) Now() uint64 { return c.n }

func TestWithClockOverridesDefault(t *testing.T) {
	rt := NewRuntime(WithSeed(1), WithClock(fakeClock{n: 42}))
	assert.Equal(t, uint64(42), rt.cfg.clock.Now())
}

func TestDefaultClockIsStepClockWhenUnset(t *testing.T) {
	rt := NewRuntime(WithSeed(1))
	assert.Equal(t, uint64(0), rt.cfg.clock.Now())
	rt.stepCount = 3
	assert.Equal(t, uint64(3), rt.cfg.clock.Now())
}
