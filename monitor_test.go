package systest

import (
	"testing"

	"github.com/joeycumines/go-systest/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	evtGo = NewEventType("go")
	evtCalm = NewEventType("calm")
	evtBad = NewEventType("bad")
)

func hotColdMonitorTemplate() *StateMachineTemplate {
	idle := NewState("Idle").AsInitial().OnGoto(evtGo, "Hot")
	hot := NewState("Hot").AsHot().
		OnGoto(evtCalm, "Idle").
		OnDo(evtBad, func(ctx *ActorContext, _ Event) {
			ctx.Assert(false, "bad thing happened while hot")
		})
	return NewStateMachineBuilder().AddState(idle).AddState(hot).Build()
}

// tickingActorTemplate stays enabled forever by re-raising loopEvt on
// itself each time it's handled, so a test can drive Runtime.step
// repeatedly and observe per-step liveness-temperature bookkeeping without
// needing the monitor's own events to be what keeps the actor schedulable.
func tickingActorTemplate(loopEvt EventType) *StateMachineTemplate {
	s := NewState("S").AsInitial().
		OnDo(loopEvt, func(ctx *ActorContext, _ Event) { ctx.RaiseEvent(Event{Type: loopEvt}) })
	return NewStateMachineBuilder().AddState(s).Build()
}

func TestMonitorInHotStateTracksTemperature(t *testing.T) {
	loopEvt := NewEventType("tick-temp")
	rt := NewRuntime(WithSeed(1), WithStrategy(strategy.NewFairPrioritization(2, 1)))
	rt.RegisterMonitor("M", hotColdMonitorTemplate())
	rt.CreateActor(tickingActorTemplate(loopEvt), "T", "", &Event{Type: loopEvt}, nil)

	rt.InvokeMonitor("M", Event{Type: evtGo})
	require.NoError(t, rt.step())
	assert.Equal(t, 1, rt.temperature)
	require.NoError(t, rt.step())
	assert.Equal(t, 2, rt.temperature, "remaining hot across steps keeps accumulating temperature")

	rt.InvokeMonitor("M", Event{Type: evtCalm})
	require.NoError(t, rt.step())
	assert.Equal(t, 0, rt.temperature, "leaving the hot state resets temperature")
}

func TestMonitorLivenessViolationOnlyUnderFairStrategy(t *testing.T) {
	loopEvt := NewEventType("tick-unfair")
	rt := NewRuntime(WithSeed(1), WithLivenessTemperatureThreshold(3))
	rt.RegisterMonitor("M", hotColdMonitorTemplate())
	rt.CreateActor(tickingActorTemplate(loopEvt), "T", "", &Event{Type: loopEvt}, nil)
	rt.InvokeMonitor("M", Event{Type: evtGo})

	for i := 0; i < 10; i++ {
		require.NoError(t, rt.step())
	}
	assert.Nil(t, rt.fatal, "an unfair strategy must never report a liveness violation")
}

func TestMonitorLivenessViolationUnderFairStrategy(t *testing.T) {
	loopEvt := NewEventType("tick-fair")
	rt := NewRuntime(WithSeed(1), WithStrategy(strategy.NewFairPrioritization(2, 1)), WithLivenessTemperatureThreshold(3))
	rt.RegisterMonitor("M", hotColdMonitorTemplate())
	rt.CreateActor(tickingActorTemplate(loopEvt), "T", "", &Event{Type: loopEvt}, nil)
	rt.InvokeMonitor("M", Event{Type: evtGo})

	for i := 0; i < 5 && rt.fatal == nil; i++ {
		_ = rt.step()
	}
	require.NotNil(t, rt.fatal)
	engErr, ok := rt.fatal.(*EngineError)
	require.True(t, ok)
	assert.Equal(t, KindLivenessViolation, engErr.Kind())
}

func TestMonitorAssertFailureFiresOnMonitorErrorHook(t *testing.T) {
	var gotType string
	var gotErr error
	rt := NewRuntime(WithSeed(1), WithHooks(Hooks{
		OnMonitorError: func(monitorType string, err error) {
			gotType = monitorType
			gotErr = err
		},
	}))
	rt.RegisterMonitor("M", hotColdMonitorTemplate())

	rt.InvokeMonitor("M", Event{Type: evtGo})
	rt.InvokeMonitor("M", Event{Type: evtBad})

	assert.Equal(t, "M", gotType)
	require.Error(t, gotErr)
	require.NotNil(t, rt.fatal)
}

func TestInvokeUnregisteredMonitorIsNoop(t *testing.T) {
	rt := NewRuntime(WithSeed(1))
	assert.NotPanics(t, func() {
		rt.InvokeMonitor("nonexistent", Event{Type: evtGo})
	})
}
